package exp

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/KyungWonPark/fhlearn/internal/classify"
	"github.com/KyungWonPark/fhlearn/internal/io"
	"github.com/KyungWonPark/fhlearn/internal/labels"
	"github.com/gonum/floats"
	"go.uber.org/zap"
)

// Metadata columns read by the motor experiment.
const (
	colResp = "resp"
	colTR   = "TR"
)

type motorResult struct {
	name       string
	accuracies []float64
	reports    [][]classify.ClassReport
}

// RunMotor resets the accuracy table and classifies every configured ROI.
func (r *Runner) RunMotor(ctx context.Context) error {
	table := r.cfg.MotorTable()
	if err := io.ResetAccuracyTable(table); err != nil {
		return err
	}

	for _, roi := range r.cfg.ROIs {
		if err := r.Motor(ctx, roi); err != nil {
			return fmt.Errorf("motor %s: %w", roi, err)
		}
	}

	r.logger.Info("motor experiment done", zap.String("table", table), zap.Int("rois", len(r.cfg.ROIs)))
	return nil
}

// Motor cross-validates left/right motor responses for every subject of roi.
// It appends one row per fold and one overall row, the mean of every fold of
// every subject, to the accuracy table.
func (r *Runner) Motor(ctx context.Context, roi string) error {
	dataset := r.cfg.DatasetPaths()
	roiPaths, err := dataset.ROIDataPaths(roi)
	if err != nil {
		return err
	}
	metaPaths, err := dataset.MotorMetadataPaths()
	if err != nil {
		return err
	}
	subjects, err := pairPaths(roiPaths, metaPaths)
	if err != nil {
		return err
	}

	logger := r.logger.With(zap.String("roi", roi))
	results := make([]motorResult, len(subjects))

	err = r.forEachSubject(ctx, subjects, func(ctx context.Context, s subject) error {
		res, err := r.motorSubject(ctx, logger, s)
		if err != nil {
			return fmt.Errorf("%s: %w", s.roiPath, err)
		}
		results[s.index] = res
		return nil
	})
	if err != nil {
		return err
	}

	table := r.cfg.MotorTable()
	var overall []float64
	for _, res := range results {
		for i, acc := range res.accuracies {
			if err := io.AppendAccuracy(table, roi, res.name, fmt.Sprintf("cv_%d", i), acc); err != nil {
				return err
			}
			logger.Info("fold accuracy", zap.String("run", res.name), zap.Int("cv", i), zap.Float64("accuracy", acc))
			if r.cfg.Motor.Report {
				logger.Debug("classification report\n" + classify.FormatReport(res.reports[i]))
			}
		}
		overall = append(overall, res.accuracies...)
	}

	if len(overall) == 0 {
		return fmt.Errorf("no folds were scored")
	}
	omean := floats.Sum(overall) / float64(len(overall))
	if err := io.AppendAccuracy(table, roi, roi, "overall", omean); err != nil {
		return err
	}

	logger.Info("overall accuracy", zap.Float64("accuracy", omean), zap.Int("folds", len(overall)))
	return nil
}

func (r *Runner) motorSubject(ctx context.Context, logger *zap.Logger, s subject) (motorResult, error) {
	res := motorResult{name: filepath.Base(s.roiPath)}
	logger = logger.With(zap.String("run", res.name))

	meta, err := io.ReadMeta(s.metaPath, colResp, colTR)
	if err != nil {
		return res, err
	}
	resps, err := meta.Strings(colResp)
	if err != nil {
		return res, err
	}
	trs, err := meta.Ints(colTR)
	if err != nil {
		return res, err
	}

	targets, err := labels.Construct(labels.Channels{Resps: resps, TRs: trs})
	if err != nil {
		return res, err
	}

	X, err := r.loadAligned(s, targets)
	if err != nil {
		return res, err
	}
	logger.Debug("before filtration", labels.Describe(targets)...)

	keep := labels.ConstructFilter(targets.Resps, r.cfg.Motor.Keep, true)
	targets, X, err = labels.Filter(keep, targets, X)
	if err != nil {
		return res, err
	}
	logger.Debug("after filtration", labels.Describe(targets)...)

	X, err = r.preprocess(X, r.cfg.Motor.Smooth)
	if err != nil {
		return res, err
	}

	folds, err := classify.KFold(targets.Len(), r.cfg.Motor.Folds)
	if err != nil {
		return res, err
	}

	truths, predictions, err := classify.SimpleCV(ctx, X, targets.Resps, folds, func() (classify.Classifier, error) {
		return classify.New(r.cfg.Motor.Classifier, r.pl)
	})
	if err != nil {
		return res, err
	}

	for i := range truths {
		acc, err := classify.AccuracyScore(truths[i], predictions[i])
		if err != nil {
			return res, err
		}
		report, err := classify.Report(truths[i], predictions[i])
		if err != nil {
			return res, err
		}
		res.accuracies = append(res.accuracies, acc)
		res.reports = append(res.reports, report)
	}

	return res, nil
}
