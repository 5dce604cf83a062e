package postgres

import (
	"fmt"
	"strconv"
)

// DefaultPort is the conventional PostgreSQL listen port.
const DefaultPort = 5432

// Target identifies one reachable database endpoint together with the
// credentials a probe should use against it.
type Target struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// WithDefaults fills in the port when the caller left it zero.
func (t Target) WithDefaults() Target {
	if t.Port == 0 {
		t.Port = DefaultPort
	}
	return t
}

// Validate rejects targets with missing connection coordinates before any
// pod gets scheduled for them.
func (t Target) Validate() error {
	if t.Host == "" {
		return fmt.Errorf("target host must not be empty")
	}
	if t.User == "" {
		return fmt.Errorf("target user must not be empty")
	}
	if t.Password == "" {
		return fmt.Errorf("target password must not be empty")
	}
	if t.Database == "" {
		return fmt.Errorf("target database must not be empty")
	}
	return nil
}

// psqlArgs renders the argv list for a psql invocation of the given SQL.
// Tuples-only unaligned output keeps scalar results trivially comparable.
func psqlArgs(t Target, sql string) []string {
	return []string{
		"psql",
		"-h", t.Host,
		"-p", strconv.Itoa(t.Port),
		"-U", t.User,
		"-d", t.Database,
		"-tA",
		"-c", sql,
	}
}

// isReadyArgs renders the argv list for a pg_isready connectivity probe.
func isReadyArgs(t Target) []string {
	return []string{
		"pg_isready",
		"-h", t.Host,
		"-p", strconv.Itoa(t.Port),
	}
}
