package scenarios

import (
	"context"

	"github.com/sclorg/postgresql-testing-framework/pkg/clusters"
	pgdeploy "github.com/sclorg/postgresql-testing-framework/pkg/deployments/postgres"
)

// DirectImageDeploy deploys the candidate image straight from its reference,
// no template involved, and verifies the database starts accepting
// connections. The most basic sanity check of the image on the platform.
func DirectImageDeploy(ctx context.Context, cfg *Config, cluster clusters.Cluster) (err error) {
	project, finish, err := scenarioProject(ctx, cluster, "image-direct")
	if err != nil {
		return err
	}
	defer func() { err = finish(err) }()

	deployment, err := pgdeploy.NewBuilder(cfg.Image).Build()
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
	return probe.WaitForReady(ctx)
}

// EphemeralTemplateDeploy instantiates the ephemeral template and verifies
// readiness through the database service.
func EphemeralTemplateDeploy(ctx context.Context, cfg *Config, cluster clusters.Cluster) (err error) {
	project, finish, err := scenarioProject(ctx, cluster, "template-ephemeral")
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
	return probe.WaitForReady(ctx)
}
