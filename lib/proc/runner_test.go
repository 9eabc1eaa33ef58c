package proc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_Run(t *testing.T) {
	r := ExecRunner{}

	res, err := r.Run(context.Background(), "sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "hello", res.String())

	res, err = r.Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	require.NoError(t, err, "non-zero exit is not an error")
	assert.False(t, res.Success())
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.String(), "oops")
}

func TestExecRunner_RunMissingExecutable(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), "walland-no-such-program")
	assert.Error(t, err)
}

func TestExecRunner_LookPath(t *testing.T) {
	r := ExecRunner{}

	path, err := r.LookPath("sh")
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	_, err = r.LookPath("walland-no-such-program")
	assert.Error(t, err)
}

func TestExecRunner_Start(t *testing.T) {
	assert.NoError(t, ExecRunner{}.Start("sh", "-c", "exit 0"))
	assert.Error(t, ExecRunner{}.Start("walland-no-such-program"))
}
