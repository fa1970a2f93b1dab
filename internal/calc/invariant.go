package calc

import (
	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// RemoveInvariantFeatures drops columns whose value never changes across rows.
// It returns the reduced matrix and the original indices of the kept columns.
func (p *PipeLine) RemoveInvariantFeatures(X *mat64.Dense) (*mat64.Dense, []int) {
	rows, cols := X.Dims()
	varies := make([]bool, cols)

	p.Each("invariant", cols, func(j int) {
		if rows == 0 {
			return
		}
		col := mat64.Col(make([]float64, rows), j, X)
		varies[j] = floats.Max(col) != floats.Min(col)
	})

	var kept []int
	for j, ok := range varies {
		if ok {
			kept = append(kept, j)
		}
	}

	out := mat64.NewDense(rows, len(kept), nil)
	p.Each("invariant-copy", rows, func(i int) {
		src := X.RawRowView(i)
		dst := out.RawRowView(i)
		for k, j := range kept {
			dst[k] = src[j]
		}
	})

	return out, kept
}
