package exp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KyungWonPark/fhlearn/internal/anal"
	"github.com/KyungWonPark/fhlearn/internal/calc"
	"github.com/KyungWonPark/fhlearn/internal/classify"
	"github.com/KyungWonPark/fhlearn/internal/config"
	"github.com/KyungWonPark/fhlearn/internal/io"
	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig(t *testing.T, subjects ...string) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.DataDir = root
	cfg.ResultDir = filepath.Join(root, "out")
	cfg.Dataset.ROIPattern = "{roi}_{subject}.npy"
	cfg.Dataset.Subjects = subjects
	cfg.ROIs = []string{"sma"}
	cfg.Run.Subjects = 2
	cfg.Run.Workers = 2
	cfg.Motor.Smooth = false
	cfg.Motor.Classifier.Name = classify.NameNearestCentroid

	d := cfg.DatasetPaths()
	require.NoError(t, os.MkdirAll(d.ROIDir, 0755))
	require.NoError(t, os.MkdirAll(d.MetaDir, 0755))
	require.NoError(t, os.MkdirAll(cfg.ResultDir, 0755))
	require.NoError(t, cfg.Validate())
	return cfg
}

func writeMeta(t *testing.T, path string, header string, rows []string) {
	t.Helper()
	body := header + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

// writeMotorSubject writes 10 left, 10 right and 4 unlabelled TRs. Voxel 0
// separates the responses, voxel 2 is constant.
func writeMotorSubject(t *testing.T, cfg *config.Config, subject string) {
	t.Helper()
	d := cfg.DatasetPaths()

	X := mat64.NewDense(24, 3, nil)
	var rows []string
	for i := 0; i < 24; i++ {
		resp := "left"
		v := -5.0
		switch {
		case i >= 20:
			resp, v = "nan", 0
		case i >= 10:
			resp, v = "right", 5
		}
		X.Set(i, 0, v+float64(i%3)*0.1)
		X.Set(i, 1, float64(i%4))
		X.Set(i, 2, 7)
		rows = append(rows, fmt.Sprintf("%s,%d", resp, i))
	}

	require.NoError(t, io.Mat64toNpy(filepath.Join(d.ROIDir, "sma_"+subject+".npy"), X))
	writeMeta(t, filepath.Join(d.MetaDir, "trialtime_motor_"+subject+".csv"), "resp,TR", rows)
}

func TestMotor(t *testing.T) {
	cfg := testConfig(t, "s1", "s2")
	writeMotorSubject(t, cfg, "s1")
	writeMotorSubject(t, cfg, "s2")

	r := NewRunner(cfg, zap.NewNop())
	require.NoError(t, r.RunMotor(context.Background()))

	data, err := os.ReadFile(cfg.MotorTable())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 11)

	assert.Equal(t, "sma\tsma_s1.npy\tcv_0\t1", lines[0])
	assert.Equal(t, "sma\tsma_s1.npy\tcv_4\t1", lines[4])
	assert.Equal(t, "sma\tsma_s2.npy\tcv_0\t1", lines[5])
	assert.Equal(t, "sma\tsma\toverall\t1", lines[10])
}

func TestMotor_ResetsTable(t *testing.T) {
	cfg := testConfig(t, "s1")
	writeMotorSubject(t, cfg, "s1")
	require.NoError(t, os.WriteFile(cfg.MotorTable(), []byte("stale\n"), 0644))

	require.NoError(t, NewRunner(cfg, nil).RunMotor(context.Background()))

	data, err := os.ReadFile(cfg.MotorTable())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestMotor_MissingColumnAborts(t *testing.T) {
	cfg := testConfig(t, "s1")
	writeMotorSubject(t, cfg, "s1")
	d := cfg.DatasetPaths()
	writeMeta(t, filepath.Join(d.MetaDir, "trialtime_motor_s1.csv"), "resp,onset", []string{"left,0"})

	err := NewRunner(cfg, nil).RunMotor(context.Background())
	var missing *io.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "TR", missing.Column)
}

func TestMotor_MissingVolumeAborts(t *testing.T) {
	cfg := testConfig(t, "s1", "s2")
	writeMotorSubject(t, cfg, "s1")

	assert.Error(t, NewRunner(cfg, nil).Motor(context.Background(), "sma"))
}

// writeRTSubject writes four 12-TR trials (two rt1, two rt3), one 4-TR rt2
// trial and two unlabelled TRs. Every voxel of trial k holds 10k+j.
func writeRTSubject(t *testing.T, cfg *config.Config, subject string, voxels int) {
	t.Helper()
	d := cfg.DatasetPaths()

	type block struct {
		rt   string
		n    int
		tIdx int
	}
	blocks := []block{{"rt1", 12, 1}, {"rt3", 12, 2}, {"rt1", 12, 3}, {"rt3", 12, 4}, {"rt2", 4, 5}, {"nan", 2, 0}}

	var total int
	for _, b := range blocks {
		total += b.n
	}

	X := mat64.NewDense(total, voxels, nil)
	var rows []string
	tr := 0
	for _, b := range blocks {
		for i := 0; i < b.n; i++ {
			for j := 0; j < voxels; j++ {
				X.Set(tr, j, float64(10*b.tIdx+j))
			}
			rows = append(rows, fmt.Sprintf("%s,%d,%d", b.rt, b.tIdx, tr))
			tr++
		}
	}

	require.NoError(t, io.Mat64toNpy(filepath.Join(d.ROIDir, "sma_"+subject+".npy"), X))
	writeMeta(t, filepath.Join(d.MetaDir, "trialtime_rt_"+subject+".csv"), "rt,trialcount,TR", rows)
}

func TestTimecourses(t *testing.T) {
	cfg := testConfig(t, "s1", "s2", "s3")
	cfg.Timecourse.Npy = true
	writeRTSubject(t, cfg, "s1", 3)
	writeRTSubject(t, cfg, "s2", 4)
	writeRTSubject(t, cfg, "s3", 3)

	core, logs := observer.New(zap.WarnLevel)
	r := NewRunner(cfg, zap.New(core))
	require.NoError(t, r.RunTimecourses(context.Background()))

	skipped := logs.FilterMessage("wrong number of columns, skipping subject").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "sma_s2", skipped[0].ContextMap()["run"])

	data, err := os.ReadFile(cfg.TimecourseTable("sma"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 9)

	assert.Equal(t, "0,1,2,reaction_times,roinames,timecourse_index,vox_mean", lines[0])
	assert.Equal(t, "10,11,12,slow,sma_s1,1,11", lines[1])
	assert.Equal(t, "20,21,22,fast,sma_s1,2,21", lines[2])
	assert.Equal(t, "40,41,42,fast,sma_s1,4,41", lines[4])
	assert.Equal(t, "10,11,12,slow,sma_s3,1,11", lines[5])

	pooled, err := io.NpytoMat64(strings.TrimSuffix(cfg.TimecourseTable("sma"), ".csv") + ".npy")
	require.NoError(t, err)
	r8, c3 := pooled.Dims()
	assert.Equal(t, 8, r8)
	assert.Equal(t, 3, c3)
}

func TestTimecourses_ClassMode(t *testing.T) {
	cfg := testConfig(t, "s1")
	cfg.Timecourse.Mode = config.ModeClass
	writeRTSubject(t, cfg, "s1", 2)

	require.NoError(t, NewRunner(cfg, nil).Timecourses(context.Background(), "sma"))

	data, err := os.ReadFile(cfg.TimecourseTable("sma"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1+2*11)

	// fast averages trials 2 and 4, slow trials 1 and 3.
	assert.Equal(t, "30,31,fast,sma_s1,0,30.5", lines[1])
	assert.Equal(t, "30,31,fast,sma_s1,10,30.5", lines[11])
	assert.Equal(t, "20,21,slow,sma_s1,0,20.5", lines[12])
}

func TestPool_SkipsColumnMismatch(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	pool := NewPool(zap.New(core))

	trials := func(cols int, label string) *anal.Trials {
		return &anal.Trials{
			X:          mat64.NewDense(2, cols, nil),
			Labels:     []string{label, label},
			TrialIndex: []int{1, 2},
		}
	}

	assert.True(t, pool.Add("a", trials(3, "fast")))
	assert.False(t, pool.Add("b", trials(4, "slow")))
	assert.True(t, pool.Add("c", trials(3, "slow")))
	assert.Equal(t, 2, pool.Subjects())
	assert.Equal(t, 1, logs.Len())

	tc, err := pool.Timecourses(calc.Init(1, false))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a", "c", "c"}, tc.RunNames)
	assert.Equal(t, []string{"fast", "fast", "slow", "slow"}, tc.ReactionTimes)
	assert.Equal(t, []int{1, 2, 1, 2}, tc.TimecourseIndex)
	assert.Len(t, tc.VoxMean, 4)

	_, err = NewPool(nil).Timecourses(calc.Init(1, false))
	assert.True(t, errors.Is(err, ErrEmptyPool))
}

func TestForEachSubject_Cancelled(t *testing.T) {
	cfg := testConfig(t, "s1")
	r := NewRunner(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	subjects := []subject{{index: 0}, {index: 1}}
	err := r.forEachSubject(ctx, subjects, func(context.Context, subject) error { return nil })
	assert.True(t, errors.Is(err, context.Canceled))
}
