package calc

import (
	"github.com/gonum/matrix/mat64"
)

// ZScore standardises every column of X. Constant columns become 0.
func (p *PipeLine) ZScore(X *mat64.Dense) *mat64.Dense {
	rows, cols := X.Dims()
	stats := p.colStats(X)
	out := mat64.NewDense(rows, cols, nil)

	p.Each("zscore", rows, func(i int) {
		src := X.RawRowView(i)
		dst := out.RawRowView(i)
		for j, value := range src {
			if stats[j].std == 0 {
				dst[j] = 0
				continue
			}
			dst[j] = (value - stats[j].avg) / stats[j].std
		}
	})

	return out
}
