package io

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KyungWonPark/nifti"
	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNpyRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub1.npy")
	X := mat64.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6.5})

	require.NoError(t, Mat64toNpy(path, X))

	l, err := NewLoader(path)
	require.NoError(t, err)
	got, err := l.Load(path)
	require.NoError(t, err)
	assert.True(t, mat64.Equal(X, got))
}

func TestNewLoader(t *testing.T) {
	for path, want := range map[string]Loader{
		"a/respXtime_rfx_mask.nii":    NiftiLoader{},
		"a/respXtime_rfx_mask.nii.gz": NiftiLoader{},
		"a/sma.npy":                   NpyLoader{},
	} {
		l, err := NewLoader(path)
		require.NoError(t, err, path)
		assert.IsType(t, want, l, path)
	}

	_, err := NewLoader("a/sma.mat")
	assert.Error(t, err)
}

func TestReadMeta(t *testing.T) {
	path := writeFile(t, "meta.csv", "resp,TR,rt,trialcount\nleft,0,rt1,1.0\nright,2,rt3,1\nnan,3,rt2,2\n")

	m, err := ReadMeta(path, "resp", "TR")
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())

	resps, err := m.Strings("resp")
	require.NoError(t, err)
	assert.Equal(t, []string{"left", "right", "nan"}, resps)

	trials, err := m.Ints("trialcount")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, trials)

	_, err = m.Ints("rt")
	assert.Error(t, err)
}

func TestReadMeta_MissingColumn(t *testing.T) {
	path := writeFile(t, "meta.csv", "resp,rt\nleft,rt1\n")

	_, err := ReadMeta(path, "resp", "TR")
	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "TR", missing.Column)
}

func TestAccuracyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fh_motor_accuracy.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0644))

	require.NoError(t, ResetAccuracyTable(path))
	require.NoError(t, AppendAccuracy(path, "sma", "sma.nii.gz", "cv_0", 0.75))
	require.NoError(t, AppendAccuracy(path, "sma", "sma", "overall", 0.5))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sma\tsma.nii.gz\tcv_0\t0.75\nsma\tsma\toverall\t0.5\n", string(data))
}

func TestWriteTimecourses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fh_rt_eva_timecourse_sma.csv")
	tc := &Timecourses{
		X:               mat64.NewDense(2, 2, []float64{1, 2, 3.5, 4}),
		ReactionTimes:   []string{"fast", "slow"},
		RunNames:        []string{"s1", "s1"},
		TimecourseIndex: []int{1, 2},
		VoxMean:         []float64{1.5, 3.75},
	}
	require.NoError(t, WriteTimecourses(path, tc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{
		"0,1,reaction_times,roinames,timecourse_index,vox_mean",
		"1,2,fast,s1,1,1.5",
		"3.5,4,slow,s1,2,3.75",
	}, lines)

	tc.VoxMean = tc.VoxMean[:1]
	assert.Error(t, WriteTimecourses(path, tc))
}

func TestMat64toCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.csv")
	require.NoError(t, Mat64toCSV(path, mat64.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 0.25})))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1,2,3\n4,5,0.25\n", string(data))
}

// writeNifti saves a 2x2x1x3 image: voxels (1,0,0) and (1,1,0) hold t+1 and
// 10(t+1), the other two stay zero.
func writeNifti(t *testing.T, dir string) string {
	t.Helper()

	img := nifti.NewImg(2, 2, 1, 3)
	h := img.GetHeader()
	h.Dim[4] = 3
	img.SetNewHeader(h)

	for v := uint32(0); v < 3; v++ {
		img.SetAt(1, 0, 0, v, float32(v+1))
		img.SetAt(1, 1, 0, v, float32(10*(v+1)))
	}

	base := filepath.Join(dir, "sma_s1.nii")
	img.Save(base)
	return base + ".gz"
}

func TestNiftiLoader(t *testing.T) {
	path := writeNifti(t, t.TempDir())

	X, err := Load(path)
	require.NoError(t, err)

	want := mat64.NewDense(3, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
	})
	assert.True(t, mat64.Equal(want, X))
}

func TestNiftiLoader_BadInput(t *testing.T) {
	dir := t.TempDir()

	_, err := NiftiLoader{}.Load(filepath.Join(dir, "absent.nii.gz"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.nii")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = NiftiLoader{}.Load(empty)
	assert.Error(t, err)
}

func TestDropEmptyColumns(t *testing.T) {
	X := mat64.NewDense(2, 4, []float64{
		0, 1, 0, 0,
		0, 0, 2, 0,
	})
	got := dropEmptyColumns(X)
	assert.True(t, mat64.Equal(mat64.NewDense(2, 2, []float64{1, 0, 0, 2}), got))

	r, c := dropEmptyColumns(mat64.NewDense(2, 2, nil)).Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 0, c)
}
