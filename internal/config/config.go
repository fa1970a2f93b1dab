// Package config holds the experiment parameters. Defaults reproduce the
// face/house analysis; a YAML file overrides any subset of them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KyungWonPark/fhlearn/internal/calc"
	"github.com/KyungWonPark/fhlearn/internal/classify"
	"github.com/KyungWonPark/fhlearn/internal/fh"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Timecourse modes.
const (
	ModeTrial = "trial"
	ModeClass = "class"
)

// Config is the full experiment configuration.
type Config struct {
	DataDir    string           `yaml:"data_dir" validate:"required"`
	ResultDir  string           `yaml:"result_dir" validate:"required"`
	Dataset    fh.Dataset       `yaml:"dataset"`
	ROIs       []string         `yaml:"rois" validate:"required,min=1,dive,required"`
	Run        RunConfig        `yaml:"run"`
	Preprocess PreprocessConfig `yaml:"preprocess"`
	Motor      MotorConfig      `yaml:"motor"`
	Timecourse TimecourseConfig `yaml:"timecourse"`
}

// RunConfig controls parallelism. Zero means one per CPU.
type RunConfig struct {
	Subjects int `yaml:"subjects" validate:"gte=0"`
	Workers  int `yaml:"workers" validate:"gte=0"`
}

// PreprocessConfig controls the per-subject preprocessing.
type PreprocessConfig struct {
	Smooth calc.SmoothParams `yaml:"smooth"`
	ZScore bool              `yaml:"zscore"`
}

// MotorConfig configures the motor classification experiment.
type MotorConfig struct {
	Table      string          `yaml:"table" validate:"required"`
	Keep       []string        `yaml:"keep" validate:"required,min=2"`
	Folds      int             `yaml:"folds" validate:"gte=2"`
	Smooth     bool            `yaml:"smooth"`
	Classifier classify.Params `yaml:"classifier"`
	Report     bool            `yaml:"report"`
}

// TimecourseConfig configures the reaction time timecourse experiment.
type TimecourseConfig struct {
	Table     string            `yaml:"table" validate:"required,contains={roi}"`
	Keep      []string          `yaml:"keep" validate:"required,min=1"`
	Merge     map[string]string `yaml:"merge" validate:"required,min=1"`
	Channel   string            `yaml:"channel" validate:"required"`
	MinWindow int               `yaml:"min_window" validate:"gte=1"`
	Mode      string            `yaml:"mode" validate:"oneof=trial class"`
	Npy       bool              `yaml:"npy"`
}

// UnmarshalYAML replaces the default merge table instead of adding to it.
func (t *TimecourseConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain TimecourseConfig
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "merge" {
			t.Merge = nil
		}
	}
	return value.Decode((*plain)(t))
}

// ROIs is the fixed list of regions analysed by both experiments.
var ROIs = []string{
	"respXtime_rfx_mask",
	"left_ventrical",
	"right_ventrical",
	"left_putamen",
	"right_putamen",
	"left_caudate",
	"right_caudate",
	"sma",
	"precentral",
	"postcentral",
	"parietal_superior",
	"loc_superior",
	"loc_iferior",
	"mfg",
	"sfg",
	"insula",
	"ifg_triangularis",
	"ifg_opercularis",
	"stempotal_anterior",
	"stempotal_posterior",
	"acc",
	"pcc",
	"precuneous",
	"ofc",
	"left_hippocampus",
	"right_hippocampus",
	"parahippo_anterior",
	"parahippo_posterior",
}

// DefaultConfig returns the parameters of the face/house analysis.
func DefaultConfig() *Config {
	return &Config{
		DataDir:   ".",
		ResultDir: ".",
		Dataset:   fh.DefaultDataset(""),
		ROIs:      append([]string(nil), ROIs...),
		Preprocess: PreprocessConfig{
			Smooth: calc.DefaultSmoothParams,
		},
		Motor: MotorConfig{
			Table:      "fh_motor_accuracy.txt",
			Keep:       []string{"left", "right"},
			Folds:      5,
			Smooth:     true,
			Classifier: classify.DefaultParams,
		},
		Timecourse: TimecourseConfig{
			Table: "fh_rt_eva_timecourse_{roi}.csv",
			Keep:  []string{"rt1", "rt2", "rt3", "rt4"},
			Merge: map[string]string{
				"rt1": "slow", "rt2": "slow",
				"rt3": "fast", "rt4": "fast",
			},
			Channel:   "fast_slow",
			MinWindow: 11,
			Mode:      ModeTrial,
		},
	}
}

// Load reads a YAML file over the defaults, applies the DATA and RESULT
// environment overrides and validates the result. An empty path yields the
// defaults; a named file must exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("DATA"); dir != "" {
		c.DataDir = dir
	}
	if dir := os.Getenv("RESULT"); dir != "" {
		c.ResultDir = dir
	}
}

var validate = validator.New()

// Validate checks field constraints and the cross-field rules tags cannot
// express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Preprocess.Smooth.High >= 0.5/c.Preprocess.Smooth.TR {
		return fmt.Errorf("invalid config: smooth high cutoff %g Hz is at or above Nyquist", c.Preprocess.Smooth.High)
	}
	if c.Preprocess.Smooth.Order%2 != 0 {
		return fmt.Errorf("invalid config: smooth order must be even, got %d", c.Preprocess.Smooth.Order)
	}

	for _, label := range c.Timecourse.Keep {
		if _, ok := c.Timecourse.Merge[label]; !ok {
			return fmt.Errorf("invalid config: kept label %q has no merge target", label)
		}
	}
	return nil
}

// DatasetPaths returns the dataset with relative directories resolved
// against DataDir.
func (c *Config) DatasetPaths() fh.Dataset {
	d := c.Dataset
	if !filepath.IsAbs(d.ROIDir) {
		d.ROIDir = filepath.Join(c.DataDir, d.ROIDir)
	}
	if !filepath.IsAbs(d.MetaDir) {
		d.MetaDir = filepath.Join(c.DataDir, d.MetaDir)
	}
	return d
}

// MotorTable is the accuracy table path.
func (c *Config) MotorTable() string {
	return c.result(c.Motor.Table)
}

// TimecourseTable is the timecourse table path for roi.
func (c *Config) TimecourseTable(roi string) string {
	return c.result(strings.ReplaceAll(c.Timecourse.Table, fh.ROIKey, roi))
}

func (c *Config) result(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.ResultDir, name)
}

// SelectROIs restricts the ROI list to names, which must all be configured.
func (c *Config) SelectROIs(names []string) error {
	if len(names) == 0 {
		return nil
	}

	known := map[string]bool{}
	for _, roi := range c.ROIs {
		known[roi] = true
	}
	for _, roi := range names {
		if !known[roi] {
			return fmt.Errorf("unknown roi %q", roi)
		}
	}

	c.ROIs = append([]string(nil), names...)
	return nil
}
