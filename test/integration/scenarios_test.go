//go:build integration_tests
// +build integration_tests

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sclorg/postgresql-testing-framework/pkg/scenarios"
)

// Each scenario runs as its own test so failures are attributable, but the
// sequence mirrors `pgtf scenarios run`: every scenario creates and owns its
// own project, so they are independent of each other.

func TestDirectImageDeploy(t *testing.T) {
	t.Log("deploying the candidate image directly, no template")
	scenarioCtx, cancel := context.WithTimeout(ctx, cfg.ScenarioTimeout)
	defer cancel()
	require.NoError(t, scenarios.DirectImageDeploy(scenarioCtx, cfg, cluster))
}

func TestEphemeralTemplateDeploy(t *testing.T) {
	t.Log("deploying via the ephemeral template")
	scenarioCtx, cancel := context.WithTimeout(ctx, cfg.ScenarioTimeout)
	defer cancel()
	require.NoError(t, scenarios.EphemeralTemplateDeploy(scenarioCtx, cfg, cluster))
}

func TestEphemeralRedeployLosesData(t *testing.T) {
	t.Log("verifying ephemeral storage does not survive a redeploy")
	scenarioCtx, cancel := context.WithTimeout(ctx, cfg.ScenarioTimeout)
	defer cancel()
	require.NoError(t, scenarios.EphemeralRedeployLosesData(scenarioCtx, cfg, cluster))
}

func TestPersistentRedeploy(t *testing.T) {
	t.Log("verifying a persistent deployment survives a redeploy")
	scenarioCtx, cancel := context.WithTimeout(ctx, cfg.ScenarioTimeout)
	defer cancel()
	require.NoError(t, scenarios.PersistentRedeploy(scenarioCtx, cfg, cluster))
}

func TestVersionUpgrade(t *testing.T) {
	t.Log("verifying data survives an in-place version upgrade")
	scenarioCtx, cancel := context.WithTimeout(ctx, cfg.ScenarioTimeout)
	defer cancel()
	require.NoError(t, scenarios.VersionUpgrade(scenarioCtx, cfg, cluster))
}

func TestReplication(t *testing.T) {
	t.Log("verifying master/slave replication end to end")
	scenarioCtx, cancel := context.WithTimeout(ctx, cfg.ScenarioTimeout)
	defer cancel()
	require.NoError(t, scenarios.Replication(scenarioCtx, cfg, cluster))
}

func TestPersistentDataSurvival(t *testing.T) {
	t.Log("verifying the exact row survives a persistent redeploy")
	scenarioCtx, cancel := context.WithTimeout(ctx, cfg.ScenarioTimeout)
	defer cancel()
	require.NoError(t, scenarios.PersistentDataSurvival(scenarioCtx, cfg, cluster))
}
