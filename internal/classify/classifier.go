// Package classify holds the estimators, cross-validation and scoring used by the
// motor experiment.
package classify

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KyungWonPark/fhlearn/internal/calc"
	"github.com/gonum/matrix/mat64"
)

// Estimator names accepted by New.
const (
	NameGradientBoosting = "gbc"
	NameNearestCentroid  = "centroid"
)

// ErrNotFitted is returned by Predict before a successful Fit.
var ErrNotFitted = errors.New("classifier is not fitted")

// Classifier is a supervised estimator over string labels.
type Classifier interface {
	Fit(X *mat64.Dense, y []string) error
	Predict(X *mat64.Dense) ([]string, error)
	Name() string
}

// Params selects and configures an estimator.
type Params struct {
	Name         string  `yaml:"name" validate:"oneof=gbc centroid"`
	NEstimators  int     `yaml:"n_estimators" validate:"gte=1"`
	LearningRate float64 `yaml:"learning_rate" validate:"gt=0"`
	MaxDepth     int     `yaml:"max_depth" validate:"eq=1"`
	Metric       string  `yaml:"metric" validate:"oneof=euclidean correlation"`
}

// DefaultParams is the boosting setup of the motor experiment.
var DefaultParams = Params{
	Name:         NameGradientBoosting,
	NEstimators:  100,
	LearningRate: 1.0,
	MaxDepth:     1,
	Metric:       MetricEuclidean,
}

// New returns an unfitted estimator. pl runs the per-feature work.
func New(params Params, pl *calc.PipeLine) (Classifier, error) {
	switch params.Name {
	case NameGradientBoosting:
		if params.MaxDepth != 1 {
			return nil, fmt.Errorf("gbc: only max_depth 1 is supported, got %d", params.MaxDepth)
		}
		return &GradientBoosting{
			NEstimators:  params.NEstimators,
			LearningRate: params.LearningRate,
			pl:           pl,
		}, nil
	case NameNearestCentroid:
		return &NearestCentroid{Metric: params.Metric}, nil
	default:
		return nil, fmt.Errorf("unknown classifier %q", params.Name)
	}
}

func uniqueSorted(y []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func checkXY(X *mat64.Dense, y []string) error {
	rows, cols := X.Dims()
	switch {
	case rows != len(y):
		return fmt.Errorf("X has %d rows but y has %d labels", rows, len(y))
	case rows == 0:
		return errors.New("no samples")
	case cols == 0:
		return errors.New("no features")
	}
	return nil
}
