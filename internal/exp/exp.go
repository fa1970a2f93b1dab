// Package exp runs the face/house experiments: motor response classification
// and reaction time timecourses, one ROI at a time over every subject.
package exp

import (
	"context"
	"fmt"
	"runtime"

	"github.com/KyungWonPark/fhlearn/internal/calc"
	"github.com/KyungWonPark/fhlearn/internal/config"
	"github.com/KyungWonPark/fhlearn/internal/io"
	"github.com/KyungWonPark/fhlearn/internal/labels"
	"github.com/gonum/matrix/mat64"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner holds what every experiment shares.
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger
	pl     *calc.PipeLine
}

// NewRunner returns a Runner. A nil logger discards output.
func NewRunner(cfg *config.Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		cfg:    cfg,
		logger: logger,
		pl:     calc.Init(cfg.Run.Workers, logger.Core().Enabled(zap.DebugLevel)).WithLogger(logger),
	}
}

// subject is one (ROI image, metadata table) pair.
type subject struct {
	index    int
	roiPath  string
	metaPath string
}

func pairPaths(roiPaths, metaPaths []string) ([]subject, error) {
	if len(roiPaths) != len(metaPaths) {
		return nil, fmt.Errorf("%d roi images but %d metadata tables", len(roiPaths), len(metaPaths))
	}

	subjects := make([]subject, len(roiPaths))
	for i := range roiPaths {
		subjects[i] = subject{index: i, roiPath: roiPaths[i], metaPath: metaPaths[i]}
	}
	return subjects, nil
}

// forEachSubject runs do for every subject, at most run.subjects at a time,
// and stops at the first error. do must only write to its own result slot.
func (r *Runner) forEachSubject(ctx context.Context, subjects []subject, do func(ctx context.Context, s subject) error) error {
	limit := r.cfg.Run.Subjects
	if limit < 1 {
		limit = runtime.NumCPU()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for _, s := range subjects {
		s := s
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			return do(egCtx, s)
		})
	}

	return eg.Wait()
}

// loadAligned loads a subject's volume, drops invariant voxels and aligns the
// rows with the labelled TRs.
func (r *Runner) loadAligned(s subject, targets labels.Targets) (*mat64.Dense, error) {
	X, err := io.Load(s.roiPath)
	if err != nil {
		return nil, err
	}

	rows, cols := X.Dims()
	X, kept := r.pl.RemoveInvariantFeatures(X)
	r.logger.Debug("loaded volume",
		zap.String("path", s.roiPath),
		zap.Int("trs", rows),
		zap.Int("voxels", cols),
		zap.Int("variant_voxels", len(kept)),
	)

	return labels.AlignTRs(targets, X)
}

func (r *Runner) preprocess(X *mat64.Dense, smooth bool) (*mat64.Dense, error) {
	if smooth {
		var err error
		if X, err = r.pl.Smooth(X, r.cfg.Preprocess.Smooth); err != nil {
			return nil, err
		}
	}
	if r.cfg.Preprocess.ZScore {
		X = r.pl.ZScore(X)
	}
	return X, nil
}
