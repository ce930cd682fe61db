package process

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Run(t *testing.T) {
	r := NewRunner(nil)
	ctx := context.Background()

	t.Run("captures stdout and stderr", func(t *testing.T) {
		res, err := r.Run(ctx, Command{Name: "sh", Args: []string{"-c", "echo out; echo err 1>&2"}})
		require.NoError(t, err)
		assert.Equal(t, "out\n", res.StandardOutput)
		assert.Equal(t, "err\n", res.StandardError)
		assert.Zero(t, res.ExitCode)
	})

	t.Run("non-zero exit is an error", func(t *testing.T) {
		res, err := r.Run(ctx, Command{Name: "sh", Args: []string{"-c", "echo boom 1>&2; exit 3"}})
		require.Error(t, err)

		var exitErr *ExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, 3, exitErr.Result.ExitCode)
		assert.Equal(t, 3, res.ExitCode)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("ignore exit code", func(t *testing.T) {
		res, err := r.Run(ctx, Command{Name: "sh", Args: []string{"-c", "echo partial; exit 1"}, IgnoreExitCode: true})
		require.NoError(t, err)
		assert.Equal(t, 1, res.ExitCode)
		assert.Equal(t, "partial\n", res.StandardOutput)
	})

	t.Run("missing executable", func(t *testing.T) {
		_, err := r.Run(ctx, Command{Name: "definitely-not-a-real-binary-xyz", IgnoreExitCode: true})
		require.Error(t, err)
		var exitErr *ExitError
		assert.False(t, errors.As(err, &exitErr))
	})

	t.Run("environment and directory", func(t *testing.T) {
		dir := t.TempDir()
		res, err := r.Run(ctx, Command{
			Name: "sh",
			Args: []string{"-c", "echo $PERF_TEST_VALUE; pwd"},
			Dir:  dir,
			Env:  map[string]string{"PERF_TEST_VALUE": "42"},
		})
		require.NoError(t, err)
		assert.Contains(t, res.StandardOutput, "42\n")
		assert.Contains(t, res.StandardOutput, dir)
	})
}

func TestSplitArguments(t *testing.T) {
	args, err := SplitArguments(`--size 1024 --name "two words" --sync`)
	require.NoError(t, err)
	assert.Equal(t, []string{"--size", "1024", "--name", "two words", "--sync"}, args)

	args, err = SplitArguments("")
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestCommandString(t *testing.T) {
	c := Command{Name: "dotnet", Args: []string{"publish", "-c", "release"}}
	assert.Equal(t, "dotnet publish -c release", c.String())
}
