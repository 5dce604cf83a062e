package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // postgres driver for the direct executor
)

// DirectExecutor dials the database endpoint straight from the harness
// process. It only works when the service network is routable from wherever
// the harness runs (in-cluster CI runners, or a developer with a flat
// network), the pod-based executor is the default for everything else.
type DirectExecutor struct{}

// NewDirectExecutor provides an Executor backed by database/sql connections.
func NewDirectExecutor() *DirectExecutor {
	return &DirectExecutor{}
}

func (e *DirectExecutor) ExecSQL(ctx context.Context, target Target, query string) (string, error) {
	target = target.WithDefaults()
	if err := target.Validate(); err != nil {
		return "", err
	}

	db, err := sql.Open("postgres", connectionString(target))
	if err != nil {
		return "", err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return "", &commandError{argv: []string{"psql", "-c", query}, output: err.Error()}
	}
	defer rows.Close()

	// flatten single-column results to one value per line, matching the
	// tuples-only output shape of the pod executor
	var out strings.Builder
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return "", err
		}
		out.WriteString(value)
		out.WriteString("\n")
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return out.String(), nil
}

func (e *DirectExecutor) IsReady(ctx context.Context, target Target) (bool, error) {
	target = target.WithDefaults()
	if target.Host == "" {
		return false, fmt.Errorf("target host must not be empty")
	}

	db, err := sql.Open("postgres", connectionString(target))
	if err != nil {
		return false, err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return false, nil
	}
	return true, nil
}

func connectionString(t Target) string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=disable",
		t.Host, t.Port, t.User, t.Database, t.Password)
}
