package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/KyungWonPark/fhlearn/internal/exp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestExperimentCommand(t *testing.T) {
	t.Setenv("DATA", t.TempDir())
	t.Setenv("RESULT", "")

	path := filepath.Join(t.TempDir(), "fh.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rois: [sma, acc, pcc]\n"), 0644))

	var called bool
	cmd := ExperimentCommand("motor", "test", func(ctx context.Context, r *exp.Runner) error {
		called = true
		assert.NotNil(t, r)
		return nil
	})
	cmd.SetArgs([]string{"--config", path, "--roi", "acc,pcc", "-v"})

	require.NoError(t, cmd.Execute())
	assert.True(t, called)
}

func TestExperimentCommand_UnknownROI(t *testing.T) {
	cmd := ExperimentCommand("motor", "test", func(context.Context, *exp.Runner) error {
		t.Fatal("run should not be called")
		return nil
	})
	cmd.SetArgs([]string{"--roi", "cerebellum"})

	assert.Error(t, cmd.Execute())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(true)
	require.NoError(t, err)
	assert.NotNil(t, logger.Check(zapcore.DebugLevel, "debug"))
}
