package scenarios

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sclorg/postgresql-testing-framework/pkg/clusters"
	pgdeploy "github.com/sclorg/postgresql-testing-framework/pkg/deployments/postgres"
)

// VersionUpgrade deploys the previously published image version on
// persistent storage, writes the test row, then swaps the deployment to the
// candidate image in place. The row must stay readable across the version
// boundary and the server must actually report a different version.
func VersionUpgrade(ctx context.Context, cfg *Config, cluster clusters.Cluster) (err error) {
	prior, err := cfg.PriorImage()
	if err != nil {
		return err
	}

	project, finish, err := scenarioProject(ctx, cluster, "version-upgrade")
	if err != nil {
		return err
	}
	defer func() { err = finish(err) }()

	deployment, err := pgdeploy.NewBuilder(prior.Ref).
		WithVersion(prior.Version).
		WithTemplate(cfg.PersistentTemplate()).
		WithPersistentStorage("").
		WithTemplateParameters(map[string]string{
			"POSTGRESQL_IMAGE": prior.Ref,
		}).
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

	priorVersion, err := probe.Version(ctx)
	if err != nil {
		return err
	}
	logrus.WithField("version", priorVersion).Info("prior image is up")

	if err = probe.Insert(ctx); err != nil {
		return err
	}
	if err = probe.Verify(ctx); err != nil {
		return err
	}

	if err = deployment.UpgradeImage(ctx, cluster, deployment.ServiceName(), cfg.Image); err != nil {
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

	upgradedVersion, err := probe.Version(ctx)
	if err != nil {
		return err
	}
	if upgradedVersion == priorVersion {
		return fmt.Errorf("server still reports version %s after the upgrade", priorVersion)
	}
	logrus.WithFields(logrus.Fields{
		"from": priorVersion,
		"to":   upgradedVersion,
	}).Info("data survived the version upgrade")

	return nil
}
