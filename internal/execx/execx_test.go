package execx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesStdout(t *testing.T) {
	iv := &Invoker{}

	res, err := iv.Run(context.Background(), "sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(res.Stdout))
}

func TestRunCapturesStderr(t *testing.T) {
	iv := &Invoker{}

	res, err := iv.Run(context.Background(), "sh", "-c", "echo oops >&2")
	require.NoError(t, err)
	assert.Empty(t, res.Stdout)
	assert.Equal(t, "oops\n", string(res.Stderr))
}

func TestRunNonZeroExit(t *testing.T) {
	iv := &Invoker{}

	_, err := iv.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	var ee *ExitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 3, ee.ExitCode)
	assert.Equal(t, "broken", ee.Output)
	assert.Contains(t, ee.Error(), "exit")
	assert.Contains(t, ee.Error(), "broken")
}

func TestRunExitErrorFallsBackToStdout(t *testing.T) {
	iv := &Invoker{}

	_, err := iv.Run(context.Background(), "sh", "-c", "echo details; exit 1")
	var ee *ExitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "details", ee.Output)
}

func TestRunMissingBinary(t *testing.T) {
	iv := &Invoker{}

	_, err := iv.Run(context.Background(), "gangway-no-such-binary-0000")
	require.Error(t, err)
	var ee *ExitError
	assert.False(t, errors.As(err, &ee), "a command that never started is not an exit error")
}

func TestRunInvokerEnv(t *testing.T) {
	iv := &Invoker{Env: []string{"GANGWAY_TEST_VALUE=from-invoker"}}

	res, err := iv.Run(context.Background(), "sh", "-c", "printf %s \"$GANGWAY_TEST_VALUE\"")
	require.NoError(t, err)
	assert.Equal(t, "from-invoker", string(res.Stdout))
}

func TestRunWithEnvOverlaysInvokerEnv(t *testing.T) {
	iv := &Invoker{Env: []string{"GANGWAY_TEST_VALUE=from-invoker"}}

	res, err := iv.RunWithEnv(context.Background(),
		[]string{"GANGWAY_TEST_VALUE=per-call"},
		"sh", "-c", "printf %s \"$GANGWAY_TEST_VALUE\"")
	require.NoError(t, err)
	assert.Equal(t, "per-call", string(res.Stdout))
}

func TestRunDir(t *testing.T) {
	dir := t.TempDir()
	iv := &Invoker{Dir: dir}

	res, err := iv.Run(context.Background(), "pwd")
	require.NoError(t, err)
	assert.Contains(t, res.Lines()[0], dir)
}

func TestResultLines(t *testing.T) {
	res := &Result{Stdout: []byte("zookeeper\n\n  kafka  \n\n")}
	assert.Equal(t, []string{"zookeeper", "kafka"}, res.Lines())

	assert.Empty(t, (&Result{}).Lines())
	assert.Empty(t, (&Result{Stdout: []byte("\n  \n")}).Lines())
}
