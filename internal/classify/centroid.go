package classify

import (
	"fmt"

	"github.com/KyungWonPark/fhlearn/internal/calc"
	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// Distance metrics for NearestCentroid.
const (
	MetricEuclidean   = "euclidean"
	MetricCorrelation = "correlation"
)

// NearestCentroid assigns each sample to the class with the closest mean pattern.
// The correlation metric picks the class whose mean pattern correlates best.
type NearestCentroid struct {
	Metric string

	classes   []string
	centroids [][]float64
}

// Name implements Classifier.
func (c *NearestCentroid) Name() string {
	return NameNearestCentroid
}

// Fit implements Classifier.
func (c *NearestCentroid) Fit(X *mat64.Dense, y []string) error {
	if err := checkXY(X, y); err != nil {
		return fmt.Errorf("centroid: %w", err)
	}
	switch c.Metric {
	case "":
		c.Metric = MetricEuclidean
	case MetricEuclidean, MetricCorrelation:
	default:
		return fmt.Errorf("centroid: unknown metric %q", c.Metric)
	}

	c.classes = uniqueSorted(y)
	_, cols := X.Dims()
	c.centroids = make([][]float64, len(c.classes))

	for k, class := range c.classes {
		var rows []int
		for i, label := range y {
			if label == class {
				rows = append(rows, i)
			}
		}
		c.centroids[k] = make([]float64, cols)
		calc.MeanRows(c.centroids[k], X, rows)
	}

	return nil
}

// Predict implements Classifier.
func (c *NearestCentroid) Predict(X *mat64.Dense) ([]string, error) {
	if c.classes == nil {
		return nil, ErrNotFitted
	}

	rows, cols := X.Dims()
	if cols != len(c.centroids[0]) {
		return nil, fmt.Errorf("centroid: fitted on %d features, got %d", len(c.centroids[0]), cols)
	}

	pred := make([]string, rows)
	scores := make([]float64, len(c.classes))
	for i := 0; i < rows; i++ {
		row := X.RawRowView(i)
		for k, centroid := range c.centroids {
			if c.Metric == MetricCorrelation {
				scores[k] = calc.Pearson(row, centroid)
			} else {
				scores[k] = -floats.Distance(row, centroid, 2)
			}
		}
		pred[i] = c.classes[floats.MaxIdx(scores)]
	}

	return pred, nil
}
