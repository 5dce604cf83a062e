package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sclorg/postgresql-testing-framework/pkg/utils/polling"
)

// -----------------------------------------------------------------------------
// Public Types - Database Probe
// -----------------------------------------------------------------------------

const (
	// expectedValue is the scalar every round-trip check revolves around.
	expectedValue = "42"

	sqlCreateAndInsert = "CREATE TABLE testing (a integer); INSERT INTO testing VALUES (42);"
	sqlSelectAll       = "SELECT * FROM testing;"
	sqlVersion         = "SELECT version();"
)

// Probe runs connectivity and data checks against one database target.
type Probe struct {
	executor Executor
	target   Target
}

// NewProbe binds an executor to a concrete target.
func NewProbe(executor Executor, target Target) *Probe {
	return &Probe{
		executor: executor,
		target:   target.WithDefaults(),
	}
}

// Target exposes the probe's endpoint, mostly for logging.
func (p *Probe) Target() Target {
	return p.target
}

// WithCredentials derives a probe for the same endpoint under different
// credentials, used after a password rotation.
func (p *Probe) WithCredentials(user, password string) *Probe {
	target := p.target
	target.User = user
	target.Password = password
	return NewProbe(p.executor, target)
}

// Insert creates the test table and writes the known row. It is a setup step,
// not a condition under test: there is no retry and failure is fatal to the
// calling scenario.
func (p *Probe) Insert(ctx context.Context) error {
	if _, err := p.executor.ExecSQL(ctx, p.target, sqlCreateAndInsert); err != nil {
		return fmt.Errorf("failed inserting test data into %s: %w", p.target.Host, err)
	}
	return nil
}

// Verify polls until a full read of the test table returns exactly the known
// scalar. A zero timeout option checks once with no retry.
func (p *Probe) Verify(ctx context.Context, opts ...polling.Option) error {
	return polling.Poll(ctx, func(ctx context.Context) (bool, error) {
		out, err := p.executor.ExecSQL(ctx, p.target, sqlSelectAll)
		if err != nil {
			var cmdErr *commandError
			if errors.As(err, &cmdErr) {
				// table missing or connection refused count as "not yet"
				return false, nil
			}
			return false, err
		}
		return scalarEquals(out, expectedValue), nil
	}, opts...)
}

// VerifyAbsent asserts the inverse: a single read must NOT return the known
// row. It passes exactly when the equivalent Verify would have timed out,
// which is the expected outcome for ephemeral storage after a redeploy.
func (p *Probe) VerifyAbsent(ctx context.Context) error {
	err := p.Verify(ctx, polling.WithTimeout(0))
	if err == nil {
		return fmt.Errorf("data on %s unexpectedly survived", p.target.Host)
	}
	if errors.Is(err, polling.ErrTimeout) {
		logrus.WithField("host", p.target.Host).Info("data is gone as expected")
		return nil
	}
	return err
}

// WaitForReady polls pg_isready against the service endpoint until the
// server reports it accepts connections.
func (p *Probe) WaitForReady(ctx context.Context, opts ...polling.Option) error {
	err := polling.Poll(ctx, func(ctx context.Context) (bool, error) {
		return p.executor.IsReady(ctx, p.target)
	}, opts...)
	if err != nil {
		return fmt.Errorf("%s never started accepting connections: %w", p.target.Host, err)
	}
	return nil
}

// Version reads the server version string, e.g. "12.7".
func (p *Probe) Version(ctx context.Context) (string, error) {
	out, err := p.executor.ExecSQL(ctx, p.target, sqlVersion)
	if err != nil {
		return "", err
	}
	fields := strings.Fields(out)
	if len(fields) < 2 {
		return "", fmt.Errorf("unparseable version response %q", strings.TrimSpace(out))
	}
	return fields[1], nil
}

// scalarEquals compares command output against a single expected scalar,
// ignoring surrounding whitespace. Multiple or differing rows do not match.
func scalarEquals(out, expected string) bool {
	return strings.TrimSpace(out) == expected
}
