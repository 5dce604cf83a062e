package postgres

import (
	"context"
	"fmt"
)

// Executor abstracts how probe commands actually reach a database. The
// default implementation schedules throwaway client pods inside the test
// project, the direct implementation dials the endpoint from the harness
// process for runs with flat network access.
type Executor interface {
	// ExecSQL runs a piece of SQL against the target and returns its raw
	// scalar output (psql tuples-only style, one value per line).
	ExecSQL(ctx context.Context, target Target, sql string) (string, error)

	// IsReady reports whether the target accepts connections. A database
	// that is reachable but still starting up yields (false, nil).
	IsReady(ctx context.Context, target Target) (bool, error)
}

// commandError reports a client command that ran to completion but exited
// non-zero, as opposed to a platform failure scheduling it at all.
type commandError struct {
	argv   []string
	output string
}

func (e *commandError) Error() string {
	return fmt.Sprintf("client command %v failed: %s", e.argv, e.output)
}
