package classify

import (
	"context"
	"fmt"

	"github.com/gonum/matrix/mat64"
)

// Fold is one train/test partition.
type Fold struct {
	Train []int
	Test  []int
}

// KFold splits 0..n-1 into k contiguous test blocks without shuffling. The first
// n%k folds get one extra sample.
func KFold(n, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("kfold: need at least 2 folds, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("kfold: cannot split %d samples into %d folds", n, k)
	}

	folds := make([]Fold, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		stop := start + size

		for i := 0; i < n; i++ {
			if i >= start && i < stop {
				folds[f].Test = append(folds[f].Test, i)
			} else {
				folds[f].Train = append(folds[f].Train, i)
			}
		}
		start = stop
	}

	return folds, nil
}

// SelectRows copies the given rows of X into a new matrix.
func SelectRows(X *mat64.Dense, rows []int) *mat64.Dense {
	_, cols := X.Dims()
	out := mat64.NewDense(len(rows), cols, nil)
	for k, i := range rows {
		out.SetRow(k, X.RawRowView(i))
	}
	return out
}

func selectLabels(y []string, rows []int) []string {
	out := make([]string, len(rows))
	for k, i := range rows {
		out[k] = y[i]
	}
	return out
}

// SimpleCV fits a fresh estimator per fold and returns the held-out truths and
// predictions, one slice per fold.
func SimpleCV(ctx context.Context, X *mat64.Dense, y []string, folds []Fold, newClassifier func() (Classifier, error)) ([][]string, [][]string, error) {
	if err := checkXY(X, y); err != nil {
		return nil, nil, fmt.Errorf("cv: %w", err)
	}

	truths := make([][]string, 0, len(folds))
	predictions := make([][]string, 0, len(folds))

	for f, fold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		clf, err := newClassifier()
		if err != nil {
			return nil, nil, err
		}

		if err := clf.Fit(SelectRows(X, fold.Train), selectLabels(y, fold.Train)); err != nil {
			return nil, nil, fmt.Errorf("cv fold %d: %w", f, err)
		}

		pred, err := clf.Predict(SelectRows(X, fold.Test))
		if err != nil {
			return nil, nil, fmt.Errorf("cv fold %d: %w", f, err)
		}

		truths = append(truths, selectLabels(y, fold.Test))
		predictions = append(predictions, pred)
	}

	return truths, predictions, nil
}
