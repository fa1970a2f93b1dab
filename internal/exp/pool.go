package exp

import (
	"errors"

	"github.com/KyungWonPark/fhlearn/internal/anal"
	"github.com/KyungWonPark/fhlearn/internal/calc"
	"github.com/KyungWonPark/fhlearn/internal/io"
	"github.com/gonum/matrix/mat64"
	"go.uber.org/zap"
)

// ErrEmptyPool is returned when no subject was pooled.
var ErrEmptyPool = errors.New("no subject was pooled")

// Pool stacks per-subject trial averages in the order they are added. The
// first subject fixes the column count; later subjects with a different
// count are skipped with a warning.
type Pool struct {
	logger *zap.Logger
	cols   int
	rows   int

	blocks []*anal.Trials
	names  []string
}

// NewPool returns an empty pool.
func NewPool(logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{logger: logger, cols: -1}
}

// Add appends a subject's rows and reports whether they were accepted.
func (p *Pool) Add(name string, t *anal.Trials) bool {
	_, cols := t.X.Dims()
	if p.cols >= 0 && cols != p.cols {
		p.logger.Warn("wrong number of columns, skipping subject",
			zap.String("run", name),
			zap.Int("cols", cols),
			zap.Int("want", p.cols),
		)
		return false
	}

	p.cols = cols
	p.rows += t.Len()
	p.blocks = append(p.blocks, t)
	p.names = append(p.names, name)
	return true
}

// Subjects returns the number of pooled subjects.
func (p *Pool) Subjects() int {
	return len(p.blocks)
}

// Timecourses builds the output table. vox_mean is the row mean of the pooled
// matrix.
func (p *Pool) Timecourses(pl *calc.PipeLine) (*io.Timecourses, error) {
	if len(p.blocks) == 0 {
		return nil, ErrEmptyPool
	}

	tc := &io.Timecourses{
		X:               mat64.NewDense(p.rows, p.cols, nil),
		ReactionTimes:   make([]string, 0, p.rows),
		RunNames:        make([]string, 0, p.rows),
		TimecourseIndex: make([]int, 0, p.rows),
	}

	row := 0
	for b, t := range p.blocks {
		for i := 0; i < t.Len(); i++ {
			if p.cols > 0 {
				tc.X.SetRow(row, t.X.RawRowView(i))
			}
			tc.RunNames = append(tc.RunNames, p.names[b])
			row++
		}
		tc.ReactionTimes = append(tc.ReactionTimes, t.Labels...)
		tc.TimecourseIndex = append(tc.TimecourseIndex, t.Index()...)
	}

	tc.VoxMean = pl.RowMean(tc.X)
	return tc, nil
}
