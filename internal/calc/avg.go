package calc

import (
	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// RowMean returns the mean of every row of X (the average over all voxels).
func (p *PipeLine) RowMean(X *mat64.Dense) []float64 {
	rows, cols := X.Dims()
	means := make([]float64, rows)
	if cols == 0 {
		return means
	}

	p.Each("rowMean", rows, func(i int) {
		means[i] = floats.Sum(X.RawRowView(i)) / float64(cols)
	})

	return means
}

// MeanRows averages the given rows of X into dst.
func MeanRows(dst []float64, X *mat64.Dense, rows []int) {
	for j := range dst {
		dst[j] = 0
	}
	if len(rows) == 0 {
		return
	}

	for _, i := range rows {
		floats.Add(dst, X.RawRowView(i))
	}
	floats.Scale(1/float64(len(rows)), dst)
}
