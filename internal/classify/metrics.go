package classify

import (
	"fmt"
	"strings"
)

// AccuracyScore is the fraction of predictions equal to the truth.
func AccuracyScore(truth, pred []string) (float64, error) {
	if len(truth) != len(pred) {
		return 0, fmt.Errorf("accuracy: %d truths but %d predictions", len(truth), len(pred))
	}
	if len(truth) == 0 {
		return 0, fmt.Errorf("accuracy: no samples")
	}

	var hits int
	for i := range truth {
		if truth[i] == pred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth)), nil
}

// ClassReport holds the per-class scores of a classification report.
type ClassReport struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report scores every label seen in truth or pred, sorted by label.
func Report(truth, pred []string) ([]ClassReport, error) {
	if len(truth) != len(pred) {
		return nil, fmt.Errorf("report: %d truths but %d predictions", len(truth), len(pred))
	}

	labels := uniqueSorted(append(append([]string(nil), truth...), pred...))
	reports := make([]ClassReport, len(labels))

	for k, label := range labels {
		var tp, fp, fn int
		for i := range truth {
			switch {
			case truth[i] == label && pred[i] == label:
				tp++
			case truth[i] != label && pred[i] == label:
				fp++
			case truth[i] == label && pred[i] != label:
				fn++
			}
		}

		r := ClassReport{Label: label, Support: tp + fn}
		if tp+fp > 0 {
			r.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			r.Recall = float64(tp) / float64(tp+fn)
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		reports[k] = r
	}

	return reports, nil
}

// FormatReport renders a report as an aligned text table.
func FormatReport(reports []ClassReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	for _, r := range reports {
		fmt.Fprintf(&b, "%12s %10.2f %10.2f %10.2f %10d\n", r.Label, r.Precision, r.Recall, r.F1, r.Support)
	}
	return b.String()
}
