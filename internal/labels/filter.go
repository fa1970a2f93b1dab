package labels

import (
	"fmt"

	"github.com/gonum/matrix/mat64"
)

// Mask selects timepoints; true keeps the row.
type Mask []bool

// Count returns the number of kept rows.
func (m Mask) Count() int {
	n := 0
	for _, keep := range m {
		if keep {
			n++
		}
	}
	return n
}

// Not returns the complement.
func (m Mask) Not() Mask {
	out := make(Mask, len(m))
	for i, keep := range m {
		out[i] = !keep
	}
	return out
}

// ConstructFilter marks channel[i] as kept when it is in allowed, or when it is
// not in allowed if keepIfMember is false.
func ConstructFilter[T comparable](channel []T, allowed []T, keepIfMember bool) Mask {
	set := make(map[T]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}

	mask := make(Mask, len(channel))
	for i, v := range channel {
		_, member := set[v]
		mask[i] = member == keepIfMember
	}

	return mask
}

// FilterTargets applies the mask to every channel of the record.
func FilterTargets(mask Mask, t Targets) (Targets, error) {
	if len(mask) != t.n {
		return Targets{}, fmt.Errorf("%w: mask has %d entries, record has %d", ErrLengthMismatch, len(mask), t.n)
	}

	out := Targets{
		Resps:         filterSlice(mask, t.Resps),
		ReactionTimes: filterSlice(mask, t.ReactionTimes),
		TrialIndex:    filterSlice(mask, t.TrialIndex),
		TRs:           filterSlice(mask, t.TRs),
		Derived:       make(map[string][]string, len(t.Derived)),
		n:             mask.Count(),
	}
	for name, ch := range t.Derived {
		out.Derived[name] = filterSlice(mask, ch)
	}

	return out, nil
}

// Filter applies one mask to the record and to the feature matrix whose rows it describes.
// Either both are filtered or neither is.
func Filter(mask Mask, t Targets, X *mat64.Dense) (Targets, *mat64.Dense, error) {
	rows, cols := X.Dims()
	if rows != len(mask) {
		return Targets{}, nil, fmt.Errorf("%w: mask has %d entries, matrix has %d rows", ErrLengthMismatch, len(mask), rows)
	}

	filtered, err := FilterTargets(mask, t)
	if err != nil {
		return Targets{}, nil, err
	}

	kept := mat64.NewDense(filtered.n, cols, nil)
	row := 0
	for i, keep := range mask {
		if keep {
			kept.SetRow(row, X.RawRowView(i))
			row++
		}
	}

	return filtered, kept, nil
}

func filterSlice[T any](mask Mask, s []T) []T {
	if s == nil {
		return nil
	}

	out := make([]T, 0, mask.Count())
	for i, keep := range mask {
		if keep {
			out = append(out, s[i])
		}
	}
	return out
}
