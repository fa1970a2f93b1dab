package anal

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KyungWonPark/fhlearn/internal/calc"
	"github.com/gonum/matrix/mat64"
)

var (
	// ErrNoTrials is returned when no trial has enough rows for the window.
	ErrNoTrials = errors.New("no trial has enough rows for the averaging window")
	// ErrMixedLabels is returned when the rows of one trial carry different labels.
	ErrMixedLabels = errors.New("trial rows carry more than one label")
)

// Trials holds one averaged feature row per trial.
type Trials struct {
	X          *mat64.Dense
	Labels     []string
	TrialIndex []int
	// TimecourseIndex is the offset inside the window and Counts the number of
	// trials averaged into the row. Both are nil for per-trial averages.
	TimecourseIndex []int
	Counts          []int
}

// Index returns the per-row index written to the timecourse table: the window
// offset for class timecourses, the trial index otherwise.
func (t *Trials) Index() []int {
	if t.TimecourseIndex != nil {
		return t.TimecourseIndex
	}
	return t.TrialIndex
}

// Len returns the number of output rows.
func (t *Trials) Len() int {
	return len(t.Labels)
}

type trial struct {
	index int
	label string
	rows  []int
}

// groupTrials collects rows by trial index in order of first appearance and
// keeps the trials with at least window rows.
func groupTrials(X *mat64.Dense, y []string, trialIndex []int, window int) ([]trial, error) {
	rows, _ := X.Dims()
	switch {
	case window < 1:
		return nil, fmt.Errorf("window must be at least 1, got %d", window)
	case len(y) != rows || len(trialIndex) != rows:
		return nil, fmt.Errorf("X has %d rows but %d labels and %d trial indices", rows, len(y), len(trialIndex))
	}

	var order []int
	byIndex := map[int]*trial{}
	for i, idx := range trialIndex {
		tr, ok := byIndex[idx]
		if !ok {
			tr = &trial{index: idx, label: y[i]}
			byIndex[idx] = tr
			order = append(order, idx)
		}
		if y[i] != tr.label {
			return nil, fmt.Errorf("%w: trial %d has %q and %q", ErrMixedLabels, idx, tr.label, y[i])
		}
		tr.rows = append(tr.rows, i)
	}

	var kept []trial
	for _, idx := range order {
		tr := byIndex[idx]
		if len(tr.rows) < window {
			continue
		}
		tr.rows = tr.rows[:window]
		kept = append(kept, *tr)
	}

	if len(kept) == 0 {
		return nil, ErrNoTrials
	}

	return kept, nil
}

// EVA averages the first minWindow rows of every trial, giving one row per trial.
// Trials with fewer than minWindow rows are dropped.
func EVA(pl *calc.PipeLine, X *mat64.Dense, y []string, trialIndex []int, minWindow int) (*Trials, error) {
	trials, err := groupTrials(X, y, trialIndex, minWindow)
	if err != nil {
		return nil, fmt.Errorf("eva: %w", err)
	}

	_, cols := X.Dims()
	out := &Trials{
		X:          mat64.NewDense(len(trials), cols, nil),
		Labels:     make([]string, len(trials)),
		TrialIndex: make([]int, len(trials)),
	}

	pl.Each("eva", len(trials), func(k int) {
		calc.MeanRows(out.X.RawRowView(k), X, trials[k].rows)
		out.Labels[k] = trials[k].label
		out.TrialIndex[k] = trials[k].index
	})

	return out, nil
}

// Timecourse averages the windows of all kept trials of a class offset by offset,
// giving window rows per class (classes sorted).
func Timecourse(pl *calc.PipeLine, X *mat64.Dense, y []string, trialIndex []int, window int) (*Trials, error) {
	trials, err := groupTrials(X, y, trialIndex, window)
	if err != nil {
		return nil, fmt.Errorf("timecourse: %w", err)
	}

	byClass := map[string][]trial{}
	var classes []string
	for _, tr := range trials {
		if _, ok := byClass[tr.label]; !ok {
			classes = append(classes, tr.label)
		}
		byClass[tr.label] = append(byClass[tr.label], tr)
	}
	sort.Strings(classes)

	_, cols := X.Dims()
	n := len(classes) * window
	out := &Trials{
		X:               mat64.NewDense(n, cols, nil),
		Labels:          make([]string, n),
		TimecourseIndex: make([]int, n),
		Counts:          make([]int, n),
	}

	pl.Each("timecourse", n, func(k int) {
		class := classes[k/window]
		offset := k % window
		members := byClass[class]

		rows := make([]int, len(members))
		for m, tr := range members {
			rows[m] = tr.rows[offset]
		}

		calc.MeanRows(out.X.RawRowView(k), X, rows)
		out.Labels[k] = class
		out.TimecourseIndex[k] = offset
		out.Counts[k] = len(members)
	})

	return out, nil
}
