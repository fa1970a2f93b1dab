package calc

import (
	"fmt"
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// SmoothParams describes a FIR band-pass. Frequencies are in Hz, TR in seconds.
// Low == 0 gives a low-pass filter.
type SmoothParams struct {
	TR    float64 `yaml:"tr" validate:"gt=0"`
	Low   float64 `yaml:"low" validate:"gte=0,ltfield=High"`
	High  float64 `yaml:"high" validate:"gt=0"`
	Order int     `yaml:"order" validate:"gte=2"`
}

// DefaultSmoothParams matches the face/house motor experiment.
var DefaultSmoothParams = SmoothParams{TR: 1.5, Low: 0.001, High: 0.06, Order: 64}

func (s SmoothParams) check() error {
	nyq := 0.5 / s.TR
	switch {
	case s.TR <= 0:
		return fmt.Errorf("smooth: TR must be positive, got %g", s.TR)
	case s.Order < 2 || s.Order%2 != 0:
		return fmt.Errorf("smooth: order must be even and >= 2, got %d", s.Order)
	case s.Low < 0 || s.High <= s.Low:
		return fmt.Errorf("smooth: need 0 <= low < high, got %g, %g", s.Low, s.High)
	case s.High >= nyq:
		return fmt.Errorf("smooth: high cutoff %g Hz is at or above Nyquist %g Hz", s.High, nyq)
	}
	return nil
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// FIRBandPass designs a Hamming-windowed sinc filter with Order+1 taps,
// scaled to unit gain at the centre of the pass band.
func FIRBandPass(s SmoothParams) ([]float64, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	nyq := 0.5 / s.TR
	left := s.Low / nyq
	right := s.High / nyq

	taps := s.Order + 1
	alpha := 0.5 * float64(taps-1)
	h := make([]float64, taps)

	for n := range h {
		m := float64(n) - alpha
		h[n] = right*sinc(right*m) - left*sinc(left*m)
		h[n] *= 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/float64(taps-1))
	}

	centre := 0.0
	if left > 0 {
		centre = 0.5 * (left + right)
	}

	var gain float64
	for n, v := range h {
		gain += v * math.Cos(math.Pi*(float64(n)-alpha)*centre)
	}
	floats.Scale(1/gain, h)

	return h, nil
}

// firFilter convolves x with b; samples before the start are taken to equal x[0].
func firFilter(b, x []float64) []float64 {
	y := make([]float64, len(x))
	for n := range x {
		var acc float64
		for k, coef := range b {
			i := n - k
			if i < 0 {
				i = 0
			}
			acc += coef * x[i]
		}
		y[n] = acc
	}
	return y
}

// filtFilt applies b forwards and backwards over an odd-reflected extension of x,
// so the result has no phase shift.
func filtFilt(b, x []float64) []float64 {
	n := len(x)
	if n < 2 {
		return append([]float64(nil), x...)
	}

	pad := 3 * len(b)
	if pad > n-1 {
		pad = n - 1
	}

	ext := make([]float64, 0, n+2*pad)
	for i := pad; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := n - 2; i >= n-1-pad; i-- {
		ext = append(ext, 2*x[n-1]-x[i])
	}

	y := firFilter(b, ext)
	floats.Reverse(y)
	y = firFilter(b, y)
	floats.Reverse(y)

	return y[pad : pad+n]
}

// Smooth band-pass filters every column of X (columns are voxel time series).
func (p *PipeLine) Smooth(X *mat64.Dense, params SmoothParams) (*mat64.Dense, error) {
	b, err := FIRBandPass(params)
	if err != nil {
		return nil, err
	}

	rows, cols := X.Dims()
	out := mat64.NewDense(rows, cols, nil)

	p.Each("smooth", cols, func(j int) {
		col := mat64.Col(make([]float64, rows), j, X)
		out.SetCol(j, filtFilt(b, col))
	})

	return out, nil
}
