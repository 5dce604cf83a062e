package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// Doer runs a single external command with structured arguments. Commands are
// never assembled from interpolated shell strings: the argv list is passed to
// the binary verbatim. Failures are not retried here, retrying belongs to the
// polling layer so that a flat platform error aborts the run immediately.
type Doer struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cmd    string
	args   []string
}

func New(cmd string, args ...string) Doer {
	return Doer{
		cmd:  cmd,
		args: args,
	}
}

func (c Doer) WithStdin(r io.Reader) Doer {
	c.stdin = r
	return c
}

func (c Doer) WithStdout(w io.Writer) Doer {
	c.stdout = w
	return c
}

func (c Doer) WithStderr(w io.Writer) Doer {
	c.stderr = w
	return c
}

// Do executes the command, failing with a message carrying both output
// streams so the caller never has to re-run a failed command to see why.
func (c Doer) Do(ctx context.Context) error {
	cmd, stdout, stderr := c.createCmd(ctx)
	logrus.WithField("args", c.args).Debugf("running %s", c.cmd)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %q with args %v failed STDOUT=(%s) STDERR=(%s): %w",
			c.cmd, c.args, stdout.String(), stderr.String(), err,
		)
	}
	return nil
}

// Output executes the command and returns its standard output.
func (c Doer) Output(ctx context.Context) ([]byte, error) {
	stdout := new(bytes.Buffer)
	if err := c.WithStdout(stdout).Do(ctx); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

func (c Doer) createCmd(ctx context.Context) (*exec.Cmd, *bytes.Buffer, *bytes.Buffer) {
	stdout := new(bytes.Buffer)
	if c.stdout == nil {
		c.stdout = stdout
	} else {
		c.stdout = io.MultiWriter(c.stdout, stdout)
	}

	stderr := new(bytes.Buffer)
	if c.stderr == nil {
		c.stderr = stderr
	} else {
		c.stderr = io.MultiWriter(c.stderr, stderr)
	}

	cmd := exec.CommandContext(ctx, c.cmd, c.args...) //nolint:gosec
	cmd.Stdin = c.stdin
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	return cmd, stdout, stderr
}
