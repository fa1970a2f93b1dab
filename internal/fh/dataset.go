// Package fh locates the face/house study files: one ROI image and one
// metadata table per subject.
package fh

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Placeholders substituted in file patterns.
const (
	SubjectKey = "{subject}"
	ROIKey     = "{roi}"
)

// Dataset describes where the study files live. Patterns are relative to
// their directory.
type Dataset struct {
	ROIDir       string   `yaml:"roi_dir" validate:"required"`
	MetaDir      string   `yaml:"meta_dir" validate:"required"`
	Subjects     []string `yaml:"subjects,omitempty"`
	ROIPattern   string   `yaml:"roi_pattern" validate:"required,contains={subject},contains={roi}"`
	MotorPattern string   `yaml:"motor_pattern" validate:"required,contains={subject}"`
	RTPattern    string   `yaml:"rt_pattern" validate:"required,contains={subject}"`
}

// DefaultDataset returns the layout under a data root.
func DefaultDataset(root string) Dataset {
	return Dataset{
		ROIDir:       filepath.Join(root, "fh", "roinii"),
		MetaDir:      filepath.Join(root, "fh", "meta"),
		ROIPattern:   "{roi}_{subject}.nii.gz",
		MotorPattern: "trialtime_motor_{subject}.csv",
		RTPattern:    "trialtime_rt_{subject}.csv",
	}
}

func expand(pattern, subject, roi string) string {
	return strings.NewReplacer(SubjectKey, subject, ROIKey, roi).Replace(pattern)
}

// SubjectList returns the configured subjects, or discovers them from the
// motor metadata files when none are configured. Discovered subjects are
// sorted.
func (d Dataset) SubjectList() ([]string, error) {
	if len(d.Subjects) > 0 {
		return d.Subjects, nil
	}

	prefix, suffix, ok := strings.Cut(d.MotorPattern, SubjectKey)
	if !ok {
		return nil, fmt.Errorf("fh: motor pattern %q has no %s", d.MotorPattern, SubjectKey)
	}

	matches, err := filepath.Glob(filepath.Join(d.MetaDir, prefix+"*"+suffix))
	if err != nil {
		return nil, fmt.Errorf("fh: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("fh: no subjects found in %s", d.MetaDir)
	}

	subjects := make([]string, 0, len(matches))
	for _, m := range matches {
		name := filepath.Base(m)
		subjects = append(subjects, name[len(prefix):len(name)-len(suffix)])
	}
	sort.Strings(subjects)
	return subjects, nil
}

func (d Dataset) paths(dir, pattern, roi string) ([]string, error) {
	subjects, err := d.SubjectList()
	if err != nil {
		return nil, err
	}

	out := make([]string, len(subjects))
	for i, s := range subjects {
		out[i] = filepath.Join(dir, expand(pattern, s, roi))
	}
	return out, nil
}

// ROIDataPaths returns one ROI image per subject.
func (d Dataset) ROIDataPaths(roi string) ([]string, error) {
	return d.paths(d.ROIDir, d.ROIPattern, roi)
}

// MotorMetadataPaths returns one motor metadata table per subject, in the same
// subject order as ROIDataPaths.
func (d Dataset) MotorMetadataPaths() ([]string, error) {
	return d.paths(d.MetaDir, d.MotorPattern, "")
}

// RTMetadataPaths returns one reaction time metadata table per subject.
func (d Dataset) RTMetadataPaths() ([]string, error) {
	return d.paths(d.MetaDir, d.RTPattern, "")
}

// RunName is the file name of path without its image extension.
func RunName(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".nii.gz", ".nii", ".npy"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}
