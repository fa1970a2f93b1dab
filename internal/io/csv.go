package io

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/gonum/matrix/mat64"
)

// Mat64toCSV saves Mat64 as a csv file
func Mat64toCSV(path string, matrix *mat64.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("[Mat64toCSV] failed to open %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	rows, _ := matrix.Dims()

	stride := runtime.NumCPU()
	parsed := make([]string, stride)

	for row := 0; row < rows; row += stride {
		var wg sync.WaitGroup
		jobMark := stride

		if row+stride >= rows {
			jobMark = rows - row
		}

		wg.Add(jobMark)
		for offset := 0; offset < jobMark; offset++ {
			go parseLine0(matrix, parsed, offset, row, &wg)
		}
		wg.Wait()

		for i := 0; i < jobMark; i++ {
			if _, err := fmt.Fprintf(w, "%s\n", parsed[i]); err != nil {
				return fmt.Errorf("[Mat64toCSV] failed to write %s: %w", path, err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("[Mat64toCSV] failed to write %s: %w", path, err)
	}
	return nil
}

func parseLine0(matrix *mat64.Dense, parsed []string, offset int, row int, wg *sync.WaitGroup) {
	defer wg.Done()

	values := matrix.RawRowView(row + offset)
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	parsed[offset] = strings.Join(fields, ",")
}

// MissingColumnError reports a required metadata column that is absent.
type MissingColumnError struct {
	Path   string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", e.Path, e.Column)
}

// Meta is a per-subject metadata table, one row per labelled TR.
type Meta struct {
	Path    string
	columns map[string]int
	records [][]string
}

// ReadMeta reads a comma-delimited metadata table with a header row and checks
// that the required columns exist.
func ReadMeta(path string, required ...string) (*Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ReadMeta: %w", err)
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ReadMeta: failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ReadMeta: %s has no header", path)
	}

	m := &Meta{
		Path:    path,
		columns: map[string]int{},
		records: records[1:],
	}
	for i, name := range records[0] {
		m.columns[strings.TrimSpace(name)] = i
	}

	for _, name := range required {
		if _, ok := m.columns[name]; !ok {
			return nil, &MissingColumnError{Path: path, Column: name}
		}
	}

	return m, nil
}

// Len returns the number of data rows.
func (m *Meta) Len() int {
	return len(m.records)
}

// Strings returns a column as trimmed strings.
func (m *Meta) Strings(column string) ([]string, error) {
	idx, ok := m.columns[column]
	if !ok {
		return nil, &MissingColumnError{Path: m.Path, Column: column}
	}

	out := make([]string, len(m.records))
	for i, rec := range m.records {
		out[i] = strings.TrimSpace(rec[idx])
	}
	return out, nil
}

// Ints returns a column of whole numbers; "12" and "12.0" are both accepted.
func (m *Meta) Ints(column string) ([]int, error) {
	values, err := m.Strings(column)
	if err != nil {
		return nil, err
	}

	out := make([]int, len(values))
	for i, str := range values {
		value, err := strconv.ParseFloat(str, 64)
		if err != nil || value != math.Trunc(value) {
			return nil, fmt.Errorf("%s: line %d: column %q: %q is not a whole number", m.Path, i+2, column, str)
		}
		out[i] = int(value)
	}
	return out, nil
}
