package fh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths_ConfiguredSubjects(t *testing.T) {
	d := DefaultDataset("/data")
	d.Subjects = []string{"9", "11"}

	rois, err := d.ROIDataPaths("sma")
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/fh/roinii/sma_9.nii.gz", "/data/fh/roinii/sma_11.nii.gz"}, rois)

	motor, err := d.MotorMetadataPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/fh/meta/trialtime_motor_9.csv", "/data/fh/meta/trialtime_motor_11.csv"}, motor)

	rt, err := d.RTMetadataPaths()
	require.NoError(t, err)
	assert.Equal(t, "/data/fh/meta/trialtime_rt_11.csv", rt[1])
}

func TestSubjectList_Discover(t *testing.T) {
	root := t.TempDir()
	d := DefaultDataset(root)
	require.NoError(t, os.MkdirAll(d.MetaDir, 0755))

	_, err := d.SubjectList()
	assert.Error(t, err)

	for _, s := range []string{"14", "10", "9"} {
		path := filepath.Join(d.MetaDir, "trialtime_motor_"+s+".csv")
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	subjects, err := d.SubjectList()
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "14", "9"}, subjects)
}

func TestRunName(t *testing.T) {
	assert.Equal(t, "sma_9", RunName("/data/fh/roinii/sma_9.nii.gz"))
	assert.Equal(t, "sma_9", RunName("sma_9.nii"))
	assert.Equal(t, "sma_9", RunName("x/sma_9.npy"))
	assert.Equal(t, "sma_9.csv", RunName("sma_9.csv"))
}
