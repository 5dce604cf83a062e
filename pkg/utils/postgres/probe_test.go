package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sclorg/postgresql-testing-framework/pkg/utils/polling"
)

var testTarget = Target{
	Host:     "postgresql.pg-test.svc",
	User:     "testu",
	Password: "testp",
	Database: "testdb",
}

// fakeExecutor scripts ExecSQL responses in order and records what ran.
type fakeExecutor struct {
	responses []fakeResponse
	calls     int
	ready     bool
}

type fakeResponse struct {
	out string
	err error
}

func (f *fakeExecutor) ExecSQL(_ context.Context, _ Target, _ string) (string, error) {
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	f.calls++
	return resp.out, resp.err
}

func (f *fakeExecutor) IsReady(_ context.Context, _ Target) (bool, error) {
	f.calls++
	return f.ready, nil
}

func TestPsqlArgs(t *testing.T) {
	args := psqlArgs(testTarget.WithDefaults(), "SELECT * FROM testing;")
	require.Equal(t, []string{
		"psql",
		"-h", "postgresql.pg-test.svc",
		"-p", "5432",
		"-U", "testu",
		"-d", "testdb",
		"-tA",
		"-c", "SELECT * FROM testing;",
	}, args)
}

func TestIsReadyArgs(t *testing.T) {
	args := isReadyArgs(testTarget.WithDefaults())
	require.Equal(t, []string{"pg_isready", "-h", "postgresql.pg-test.svc", "-p", "5432"}, args)
}

func TestTargetValidate(t *testing.T) {
	require.NoError(t, testTarget.Validate())

	for _, mutate := range []func(*Target){
		func(target *Target) { target.Host = "" },
		func(target *Target) { target.User = "" },
		func(target *Target) { target.Password = "" },
		func(target *Target) { target.Database = "" },
	} {
		broken := testTarget
		mutate(&broken)
		require.Error(t, broken.Validate())
	}
}

func TestScalarEquals(t *testing.T) {
	require.True(t, scalarEquals("42\n", "42"))
	require.True(t, scalarEquals("  42  ", "42"))
	require.False(t, scalarEquals("", "42"))
	require.False(t, scalarEquals("42\n42\n", "42"))
	require.False(t, scalarEquals("41", "42"))
}

func TestVerifyMatchesExactScalar(t *testing.T) {
	exec := &fakeExecutor{responses: []fakeResponse{{out: "42\n"}}}
	probe := NewProbe(exec, testTarget)
	require.NoError(t, probe.Verify(context.Background(), polling.WithTimeout(0)))
}

func TestVerifyRetriesThroughCommandErrors(t *testing.T) {
	exec := &fakeExecutor{responses: []fakeResponse{
		{err: &commandError{output: `ERROR:  relation "testing" does not exist`}},
		{out: "42\n"},
	}}
	probe := NewProbe(exec, testTarget)
	err := probe.Verify(context.Background(),
		polling.WithInterval(time.Millisecond), polling.WithTimeout(time.Second))
	require.NoError(t, err)
	require.Equal(t, 2, exec.calls)
}

func TestVerifyPropagatesPlatformErrors(t *testing.T) {
	boom := errors.New("failed creating client pod")
	exec := &fakeExecutor{responses: []fakeResponse{{err: boom}}}
	probe := NewProbe(exec, testTarget)
	err := probe.Verify(context.Background(), polling.WithTimeout(0))
	require.ErrorIs(t, err, boom)
}

func TestVerifyAbsent(t *testing.T) {
	t.Run("missing data passes", func(t *testing.T) {
		exec := &fakeExecutor{responses: []fakeResponse{
			{err: &commandError{output: `ERROR:  relation "testing" does not exist`}},
		}}
		probe := NewProbe(exec, testTarget)
		require.NoError(t, probe.VerifyAbsent(context.Background()))
		require.Equal(t, 1, exec.calls, "the negative check must not retry")
	})

	t.Run("surviving data fails", func(t *testing.T) {
		exec := &fakeExecutor{responses: []fakeResponse{{out: "42\n"}}}
		probe := NewProbe(exec, testTarget)
		require.Error(t, probe.VerifyAbsent(context.Background()))
	})
}

func TestWaitForReady(t *testing.T) {
	exec := &fakeExecutor{ready: true}
	probe := NewProbe(exec, testTarget)
	require.NoError(t, probe.WaitForReady(context.Background(), polling.WithTimeout(0)))

	notReady := &fakeExecutor{ready: false}
	probe = NewProbe(notReady, testTarget)
	err := probe.WaitForReady(context.Background(), polling.WithTimeout(0))
	require.ErrorIs(t, err, polling.ErrTimeout)
}

func TestVersion(t *testing.T) {
	exec := &fakeExecutor{responses: []fakeResponse{
		{out: "PostgreSQL 12.7 on x86_64-redhat-linux-gnu, compiled by gcc\n"},
	}}
	probe := NewProbe(exec, testTarget)
	version, err := probe.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "12.7", version)

	garbage := &fakeExecutor{responses: []fakeResponse{{out: "nope\n"}}}
	probe = NewProbe(garbage, testTarget)
	_, err = probe.Version(context.Background())
	require.Error(t, err)
}

func TestWithCredentials(t *testing.T) {
	probe := NewProbe(&fakeExecutor{}, testTarget)
	rotated := probe.WithCredentials("testu", "new-secret")
	require.Equal(t, "new-secret", rotated.Target().Password)
	require.Equal(t, testTarget.Host, rotated.Target().Host)
	require.Equal(t, "testp", probe.Target().Password, "original probe unchanged")
}
