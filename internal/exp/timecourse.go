package exp

import (
	"context"
	"fmt"
	"strings"

	"github.com/KyungWonPark/fhlearn/internal/anal"
	"github.com/KyungWonPark/fhlearn/internal/config"
	"github.com/KyungWonPark/fhlearn/internal/fh"
	"github.com/KyungWonPark/fhlearn/internal/io"
	"github.com/KyungWonPark/fhlearn/internal/labels"
	"go.uber.org/zap"
)

// Metadata columns read by the timecourse experiment.
const (
	colRT         = "rt"
	colTrialCount = "trialcount"
)

type timecourseResult struct {
	name   string
	trials *anal.Trials
}

// RunTimecourses writes one timecourse table per configured ROI.
func (r *Runner) RunTimecourses(ctx context.Context) error {
	for _, roi := range r.cfg.ROIs {
		if err := r.Timecourses(ctx, roi); err != nil {
			return fmt.Errorf("timecourses %s: %w", roi, err)
		}
	}

	r.logger.Info("timecourse experiment done", zap.Int("rois", len(r.cfg.ROIs)))
	return nil
}

// Timecourses averages the reaction time trials of every subject of roi, pools
// them in subject order and saves the table.
func (r *Runner) Timecourses(ctx context.Context, roi string) error {
	dataset := r.cfg.DatasetPaths()
	roiPaths, err := dataset.ROIDataPaths(roi)
	if err != nil {
		return err
	}
	metaPaths, err := dataset.RTMetadataPaths()
	if err != nil {
		return err
	}
	subjects, err := pairPaths(roiPaths, metaPaths)
	if err != nil {
		return err
	}

	logger := r.logger.With(zap.String("roi", roi))
	results := make([]timecourseResult, len(subjects))

	err = r.forEachSubject(ctx, subjects, func(ctx context.Context, s subject) error {
		res, err := r.timecourseSubject(logger, s)
		if err != nil {
			return fmt.Errorf("%s: %w", s.roiPath, err)
		}
		results[s.index] = res
		return nil
	})
	if err != nil {
		return err
	}

	pool := NewPool(logger)
	for _, res := range results {
		pool.Add(res.name, res.trials)
	}

	tc, err := pool.Timecourses(r.pl)
	if err != nil {
		return err
	}

	table := r.cfg.TimecourseTable(roi)
	if err := io.WriteTimecourses(table, tc); err != nil {
		return err
	}
	if r.cfg.Timecourse.Npy {
		if err := io.Mat64toNpy(strings.TrimSuffix(table, ".csv")+".npy", tc.X); err != nil {
			return err
		}
	}

	logger.Info("saved timecourses",
		zap.String("table", table),
		zap.Int("subjects", pool.Subjects()),
		zap.Int("rows", len(tc.ReactionTimes)),
	)
	return nil
}

func (r *Runner) timecourseSubject(logger *zap.Logger, s subject) (timecourseResult, error) {
	res := timecourseResult{name: fh.RunName(s.roiPath)}
	logger = logger.With(zap.String("run", res.name))

	meta, err := io.ReadMeta(s.metaPath, colRT, colTrialCount, colTR)
	if err != nil {
		return res, err
	}
	rts, err := meta.Strings(colRT)
	if err != nil {
		return res, err
	}
	trialIndex, err := meta.Ints(colTrialCount)
	if err != nil {
		return res, err
	}
	trs, err := meta.Ints(colTR)
	if err != nil {
		return res, err
	}

	targets, err := labels.Construct(labels.Channels{ReactionTimes: rts, TrialIndex: trialIndex, TRs: trs})
	if err != nil {
		return res, err
	}

	X, err := r.loadAligned(s, targets)
	if err != nil {
		return res, err
	}

	cfg := r.cfg.Timecourse
	keep := labels.ConstructFilter(targets.ReactionTimes, cfg.Keep, true)
	targets, X, err = labels.Filter(keep, targets, X)
	if err != nil {
		return res, err
	}

	merged, err := labels.MergeLabels(targets.ReactionTimes, cfg.Merge)
	if err != nil {
		return res, err
	}
	if err := targets.Set(cfg.Channel, merged); err != nil {
		return res, err
	}
	logger.Debug("after filtration", labels.Describe(targets)...)

	X, err = r.preprocess(X, false)
	if err != nil {
		return res, err
	}

	if cfg.Mode == config.ModeClass {
		res.trials, err = anal.Timecourse(r.pl, X, merged, targets.TrialIndex, cfg.MinWindow)
	} else {
		res.trials, err = anal.EVA(r.pl, X, merged, targets.TrialIndex, cfg.MinWindow)
	}
	if err != nil {
		return res, err
	}

	logger.Debug("averaged trials", zap.Int("rows", res.trials.Len()))
	return res, nil
}
