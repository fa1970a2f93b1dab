package labels

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gonum/matrix/mat64"
	"go.uber.org/zap"
)

// ErrLengthMismatch is returned when parallel label channels (or a mask) disagree in length.
var ErrLengthMismatch = errors.New("label channel length mismatch")

// Channel names used in logs and errors.
const (
	ChanResps         = "resps"
	ChanReactionTimes = "reaction_times"
	ChanTrialIndex    = "trial_index"
	ChanTRs           = "trs"
)

// Channels is the raw per-TR metadata handed to Construct. Nil channels are absent.
type Channels struct {
	Resps         []string
	ReactionTimes []string
	TrialIndex    []int
	TRs           []int
}

// Targets is a label record: parallel channels, one entry per retained timepoint.
// Every present channel has the same length.
type Targets struct {
	Resps         []string
	ReactionTimes []string
	TrialIndex    []int
	TRs           []int

	// Derived holds channels built later, e.g. merged labels ("fast_slow").
	Derived map[string][]string

	n int
}

// Construct packages the channels unmodified and checks their lengths agree.
func Construct(c Channels) (Targets, error) {
	t := Targets{
		Resps:         c.Resps,
		ReactionTimes: c.ReactionTimes,
		TrialIndex:    c.TrialIndex,
		TRs:           c.TRs,
		Derived:       map[string][]string{},
		n:             -1,
	}

	for _, ch := range t.lengths() {
		if t.n < 0 {
			t.n = ch.n
			continue
		}
		if ch.n != t.n {
			return Targets{}, fmt.Errorf("%w: %s", ErrLengthMismatch, t.describeLengths())
		}
	}
	if t.n < 0 {
		t.n = 0
	}

	return t, nil
}

// Len returns the shared channel length.
func (t Targets) Len() int {
	return t.n
}

// Set adds or replaces a derived channel.
func (t *Targets) Set(name string, channel []string) error {
	if len(channel) != t.n {
		return fmt.Errorf("%w: %s has %d entries, record has %d", ErrLengthMismatch, name, len(channel), t.n)
	}
	if t.Derived == nil {
		t.Derived = map[string][]string{}
	}
	t.Derived[name] = channel
	return nil
}

// Get returns a string channel by name, derived channels included.
func (t Targets) Get(name string) ([]string, bool) {
	switch name {
	case ChanResps:
		return t.Resps, t.Resps != nil
	case ChanReactionTimes:
		return t.ReactionTimes, t.ReactionTimes != nil
	}
	ch, ok := t.Derived[name]
	return ch, ok
}

type channelLen struct {
	name string
	n    int
}

func (t Targets) lengths() []channelLen {
	var out []channelLen
	if t.Resps != nil {
		out = append(out, channelLen{ChanResps, len(t.Resps)})
	}
	if t.ReactionTimes != nil {
		out = append(out, channelLen{ChanReactionTimes, len(t.ReactionTimes)})
	}
	if t.TrialIndex != nil {
		out = append(out, channelLen{ChanTrialIndex, len(t.TrialIndex)})
	}
	if t.TRs != nil {
		out = append(out, channelLen{ChanTRs, len(t.TRs)})
	}

	names := make([]string, 0, len(t.Derived))
	for name := range t.Derived {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, channelLen{name, len(t.Derived[name])})
	}

	return out
}

func (t Targets) describeLengths() string {
	var parts []string
	for _, ch := range t.lengths() {
		parts = append(parts, fmt.Sprintf("%s=%d", ch.name, ch.n))
	}
	return strings.Join(parts, ", ")
}

// AlignTRs selects the rows of X named by the TRs channel, in channel order.
func AlignTRs(t Targets, X *mat64.Dense) (*mat64.Dense, error) {
	if t.TRs == nil {
		return nil, fmt.Errorf("AlignTRs: record has no %s channel", ChanTRs)
	}

	rows, cols := X.Dims()
	aligned := mat64.NewDense(len(t.TRs), cols, nil)
	for i, tr := range t.TRs {
		if tr < 0 || tr >= rows {
			return nil, fmt.Errorf("AlignTRs: TR %d at position %d is outside the %d-row volume", tr, i, rows)
		}
		aligned.SetRow(i, X.RawRowView(tr))
	}

	return aligned, nil
}

// Describe summarises the record for structured logs.
func Describe(t Targets) []zap.Field {
	fields := []zap.Field{zap.Int("n", t.n)}
	if t.Resps != nil {
		fields = append(fields, zap.Any(ChanResps, Counts(t.Resps)))
	}
	if t.ReactionTimes != nil {
		fields = append(fields, zap.Any(ChanReactionTimes, Counts(t.ReactionTimes)))
	}
	if t.TrialIndex != nil {
		fields = append(fields, zap.Int("trials", countDistinct(t.TrialIndex)))
	}
	names := make([]string, 0, len(t.Derived))
	for name := range t.Derived {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fields = append(fields, zap.Any(name, Counts(t.Derived[name])))
	}
	return fields
}

// LabelCount is one row of a label frequency table.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Counts tallies labels, sorted by label.
func Counts(channel []string) []LabelCount {
	seen := map[string]int{}
	for _, v := range channel {
		seen[v]++
	}

	counts := make([]LabelCount, 0, len(seen))
	for label, n := range seen {
		counts = append(counts, LabelCount{Label: label, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Label < counts[j].Label
	})

	return counts
}

func countDistinct(s []int) int {
	seen := map[int]struct{}{}
	for _, v := range s {
		seen[v] = struct{}{}
	}
	return len(seen)
}
