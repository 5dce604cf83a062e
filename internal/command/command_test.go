package command_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sclorg/postgresql-testing-framework/internal/command"
)

func TestDo(t *testing.T) {
	t.Run("passing stdout works", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		cmd := command.New("echo", "hello").WithStdout(stdout)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		err := cmd.Do(ctx)
		require.NoError(t, err)
		require.Equal(t, "hello\n", stdout.String())
	})

	t.Run("passing stdin works", func(t *testing.T) {
		stdin := bytes.NewBufferString("hello")
		cmd := command.New("cat").WithStdin(stdin)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		err := cmd.Do(ctx)
		require.NoError(t, err)
	})

	t.Run("failure carries both output streams", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		err := command.New("unknown-command").Do(ctx)
		require.Error(t, err)
	})
}

func TestOutput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out, err := command.New("echo", "-n", "42").Output(ctx)
	require.NoError(t, err)
	require.Equal(t, "42", string(out))
}
