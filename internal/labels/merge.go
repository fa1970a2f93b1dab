package labels

import "fmt"

// UnmappedLabelError reports a category that has no entry in a merge mapping.
type UnmappedLabelError struct {
	Label    string
	Position int
}

func (e *UnmappedLabelError) Error() string {
	return fmt.Sprintf("merge: label %q at position %d has no mapping", e.Label, e.Position)
}

// MergeLabels maps each label onto a coarser category.
func MergeLabels(channel []string, mapping map[string]string) ([]string, error) {
	merged := make([]string, len(channel))
	for i, label := range channel {
		to, ok := mapping[label]
		if !ok {
			return nil, &UnmappedLabelError{Label: label, Position: i}
		}
		merged[i] = to
	}

	return merged, nil
}
