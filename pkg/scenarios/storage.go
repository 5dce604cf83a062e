package scenarios

import (
	"context"

	"github.com/sclorg/postgresql-testing-framework/pkg/clusters"
	pgdeploy "github.com/sclorg/postgresql-testing-framework/pkg/deployments/postgres"
)

// EphemeralRedeployLosesData deploys the ephemeral template, writes the test
// row, forces a redeploy and then asserts the row did NOT survive: without a
// durable volume a recreated pod must start empty. The data check is a single
// shot with no retry, a surviving row fails the scenario.
func EphemeralRedeployLosesData(ctx context.Context, cfg *Config, cluster clusters.Cluster) (err error) {
	project, finish, err := scenarioProject(ctx, cluster, "template-ephemeral-redeploy")
	if err != nil {
		return err
	}
	defer func() { err = finish(err) }()

	deployment, err := pgdeploy.NewBuilder(cfg.Image).
		WithVersion(cfg.Version).
		WithTemplate(cfg.EphemeralTemplate()).
		Build()
	if err != nil {
		return err
	}
	if err = deployment.Deploy(ctx, cluster, project.Name); err != nil {
		return err
	}
	if err = deployment.WaitForReady(ctx, cluster); err != nil {
		return err
	}

	probe, err := probeFor(ctx, cfg, cluster, project.Name, deployment)
	if err != nil {
		return err
	}
	if err = probe.WaitForReady(ctx); err != nil {
		return err
	}
	if err = probe.Insert(ctx); err != nil {
		return err
	}
	if err = probe.Verify(ctx); err != nil {
		return err
	}

	if err = deployment.Redeploy(ctx, cluster, deployment.ServiceName()); err != nil {
		return err
	}
	if err = deployment.WaitForReady(ctx, cluster); err != nil {
		return err
	}
	if err = probe.WaitForReady(ctx); err != nil {
		return err
	}

	return probe.VerifyAbsent(ctx)
}

// PersistentRedeploy deploys the persistent template, writes the test row and
// forces a redeploy: the replacement pod must come up with the volume
// reattached and the row still readable.
func PersistentRedeploy(ctx context.Context, cfg *Config, cluster clusters.Cluster) (err error) {
	return persistentRedeploy(ctx, cfg, cluster, "template-persistent-redeploy", false)
}

// PersistentDataSurvival is the hardest durability check: on top of the
// redeploy it stops the database completely (scale to zero) and starts it
// again, the row has to survive both.
func PersistentDataSurvival(ctx context.Context, cfg *Config, cluster clusters.Cluster) (err error) {
	return persistentRedeploy(ctx, cfg, cluster, "template-persistent-data-survival", true)
}

func persistentRedeploy(ctx context.Context, cfg *Config, cluster clusters.Cluster, scenario string, restartCycle bool) (err error) {
	project, finish, err := scenarioProject(ctx, cluster, scenario)
	if err != nil {
		return err
	}
	defer func() { err = finish(err) }()

	deployment, err := pgdeploy.NewBuilder(cfg.Image).
		WithVersion(cfg.Version).
		WithTemplate(cfg.PersistentTemplate()).
		WithPersistentStorage("").
		Build()
	if err != nil {
		return err
	}
	if err = deployment.Deploy(ctx, cluster, project.Name); err != nil {
		return err
	}
	if err = deployment.WaitForReady(ctx, cluster); err != nil {
		return err
	}

	probe, err := probeFor(ctx, cfg, cluster, project.Name, deployment)
	if err != nil {
		return err
	}
	if err = probe.WaitForReady(ctx); err != nil {
		return err
	}
	if err = probe.Insert(ctx); err != nil {
		return err
	}
	if err = probe.Verify(ctx); err != nil {
		return err
	}

	if err = deployment.Redeploy(ctx, cluster, deployment.ServiceName()); err != nil {
		return err
	}
	if err = deployment.WaitForReady(ctx, cluster); err != nil {
		return err
	}
	if err = probe.WaitForReady(ctx); err != nil {
		return err
	}
	if err = probe.Verify(ctx); err != nil {
		return err
	}

	if !restartCycle {
		return nil
	}

	// full stop/start: every pod gone, then back up from the same volume
	if err = deployment.Scale(ctx, cluster, deployment.ServiceName(), 0); err != nil {
		return err
	}
	if err = deployment.WaitForPodCount(ctx, cluster, deployment.ServiceName(), 0); err != nil {
		return err
	}
	if err = deployment.Scale(ctx, cluster, deployment.ServiceName(), 1); err != nil {
		return err
	}
	if err = deployment.WaitForReady(ctx, cluster); err != nil {
		return err
	}
	if err = probe.WaitForReady(ctx); err != nil {
		return err
	}
	return probe.Verify(ctx)
}
