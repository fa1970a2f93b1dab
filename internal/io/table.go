package io

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/gonum/matrix/mat64"
)

// ResetAccuracyTable truncates (or creates) an accuracy table.
func ResetAccuracyTable(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ResetAccuracyTable: %w", err)
	}
	return f.Close()
}

// AppendAccuracy appends one tab-delimited row: roi, name, fold, accuracy.
func AppendAccuracy(path string, roi, name, fold string, accuracy float64) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("AppendAccuracy: %w", err)
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'
	w.Write([]string{roi, name, fold, formatFloat(accuracy)})
	w.Flush()

	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("AppendAccuracy: failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Timecourses is a pooled trial-average table. Every slice has one entry per
// row of X.
type Timecourses struct {
	X               *mat64.Dense
	ReactionTimes   []string
	RunNames        []string
	TimecourseIndex []int
	VoxMean         []float64
}

// WriteTimecourses saves a pooled table as comma-delimited text. The header is
// the column numbers of X followed by reaction_times, roinames,
// timecourse_index and vox_mean.
func WriteTimecourses(path string, tc *Timecourses) error {
	rows, cols := tc.X.Dims()
	for name, n := range map[string]int{
		"reaction_times":   len(tc.ReactionTimes),
		"roinames":         len(tc.RunNames),
		"timecourse_index": len(tc.TimecourseIndex),
		"vox_mean":         len(tc.VoxMean),
	} {
		if n != rows {
			return fmt.Errorf("WriteTimecourses: %s has %d entries for %d rows", name, n, rows)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("WriteTimecourses: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := make([]string, 0, cols+4)
	for j := 0; j < cols; j++ {
		header = append(header, strconv.Itoa(j))
	}
	header = append(header, "reaction_times", "roinames", "timecourse_index", "vox_mean")
	w.Write(header)

	record := make([]string, cols+4)
	for i := 0; i < rows; i++ {
		for j, v := range tc.X.RawRowView(i) {
			record[j] = formatFloat(v)
		}
		record[cols] = tc.ReactionTimes[i]
		record[cols+1] = tc.RunNames[i]
		record[cols+2] = strconv.Itoa(tc.TimecourseIndex[i])
		record[cols+3] = formatFloat(tc.VoxMean[i])
		w.Write(record)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("WriteTimecourses: failed to write %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
