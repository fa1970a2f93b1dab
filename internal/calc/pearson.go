package calc

import (
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

func getStat(values []float64) statistic {
	n := float64(len(values))
	if n == 0 {
		return statistic{}
	}

	var accVal float64
	var accSqrVal float64

	for _, value := range values {
		accVal += value
		accSqrVal += value * value
	}

	avgVal := accVal / n
	avgSqrVal := accSqrVal / n

	variance := avgSqrVal - (avgVal * avgVal)
	if variance < 0 {
		variance = 0
	}

	return statistic{avg: avgVal, std: math.Sqrt(variance)}
}

// colStats returns the mean and population std of every column of X.
func (p *PipeLine) colStats(X mat64.Matrix) []statistic {
	rows, cols := X.Dims()
	stats := make([]statistic, cols)

	p.Each("colStats", cols, func(j int) {
		col := mat64.Col(make([]float64, rows), j, X)
		stats[j] = getStat(col)
	})

	return stats
}

// Pearson returns Pearson's correlation of two equally long vectors.
// It is 0 when either vector is constant.
func Pearson(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	statA := getStat(a)
	statB := getStat(b)
	if statA.std == 0 || statB.std == 0 {
		return 0
	}

	cov := (floats.Dot(a, b) / float64(len(a))) - (statA.avg * statB.avg)
	return cov / (statA.std * statB.std)
}
