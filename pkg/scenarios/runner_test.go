package scenarios

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sclorg/postgresql-testing-framework/pkg/clusters"
)

func TestAllScenarioOrder(t *testing.T) {
	require.Equal(t, []string{
		"image-direct",
		"template-ephemeral",
		"template-ephemeral-redeploy",
		"template-persistent-redeploy",
		"version-upgrade",
		"replication",
		"template-persistent-data-survival",
	}, Names())
}

func TestNewRunnerValidatesConfig(t *testing.T) {
	_, err := NewRunner(&Config{}, nil)
	require.Error(t, err)

	runner, err := NewRunner(validConfig(), nil)
	require.NoError(t, err)
	require.NotNil(t, runner)
}

func TestRunnerIsSequentialAndFailFast(t *testing.T) {
	runner, err := NewRunner(validConfig(), nil)
	require.NoError(t, err)

	boom := errors.New("deploy blew up")
	var order []string
	record := func(name string, result error) Scenario {
		return Scenario{Name: name, Run: func(context.Context, *Config, clusters.Cluster) error {
			order = append(order, name)
			return result
		}}
	}

	err = runner.Run(context.Background(),
		record("first", nil),
		record("second", boom),
		record("third", nil),
	)
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "second")
	require.Equal(t, []string{"first", "second"}, order, "third scenario must not run after a failure")
}

func TestRunnerRunsEverythingOnSuccess(t *testing.T) {
	runner, err := NewRunner(validConfig(), nil)
	require.NoError(t, err)

	ran := 0
	count := Scenario{Name: "count", Run: func(context.Context, *Config, clusters.Cluster) error {
		ran++
		return nil
	}}

	require.NoError(t, runner.Run(context.Background(), count, count, count))
	require.Equal(t, 3, ran)
}
