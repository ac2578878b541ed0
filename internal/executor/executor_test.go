package executor

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/relbuilder/internal/secrets"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use sh")
	}
}

func TestRunSuccess(t *testing.T) {
	skipWithoutShell(t)
	var r Runner
	res, err := r.Run(context.Background(), Command{
		Name:    "echo",
		Program: "sh",
		Args:    []string{"-c", "echo hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Output, "hello")
	assert.False(t, res.TimedOut)
}

func TestRunNonzeroExit(t *testing.T) {
	skipWithoutShell(t)
	var r Runner
	res, err := r.Run(context.Background(), Command{
		Name:    "fail",
		Program: "sh",
		Args:    []string{"-c", "echo boom >&2; exit 3"},
	})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Output, "boom")
}

func TestRunMissingProgram(t *testing.T) {
	var r Runner
	res, err := r.Run(context.Background(), Command{
		Name:    "ghost",
		Program: "relbuilder-test-no-such-binary",
	})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, -1, res.ExitCode)
}

func TestRunTimeout(t *testing.T) {
	skipWithoutShell(t)
	var r Runner
	res, err := r.Run(context.Background(), Command{
		Name:    "sleep",
		Program: "sh",
		Args:    []string{"-c", "sleep 5"},
		Timeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.True(t, res.TimedOut)
}

func TestRunRedactsSecrets(t *testing.T) {
	skipWithoutShell(t)
	var r Runner
	res, err := r.Run(context.Background(), Command{
		Name:    "leak",
		Program: "sh",
		Args:    []string{"-c", "echo token=$SIGNING_TOKEN"},
		Secrets: []secrets.Resolved{{Name: "SIGNING_TOKEN", Value: "hunter2"}},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "token="+secrets.Mask)
	assert.NotContains(t, res.Output, "hunter2")
}

func TestRunStepEnv(t *testing.T) {
	skipWithoutShell(t)
	var r Runner
	res, err := r.Run(context.Background(), Command{
		Name:    "env",
		Program: "sh",
		Args:    []string{"-c", "echo backend=$SCENEDETECT_BACKEND"},
		Env:     map[string]string{"SCENEDETECT_BACKEND": "opencv"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "backend=opencv")
}
