package scenarios

import (
	"context"

	"github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"

	"github.com/sclorg/postgresql-testing-framework/pkg/clusters"
	pgdeploy "github.com/sclorg/postgresql-testing-framework/pkg/deployments/postgres"
	"github.com/sclorg/postgresql-testing-framework/pkg/utils/postgres"
)

// scenarioProject creates the isolated project a scenario runs in and a
// Cleaner holding it. The returned finish function implements the teardown
// policy: on success the project is deleted, on failure it is kept for
// inspection and a diagnostics snapshot is written.
func scenarioProject(ctx context.Context, cluster clusters.Cluster, scenario string) (*corev1.Namespace, func(error) error, error) {
	project, err := clusters.CreateProject(ctx, cluster, clusters.UniqueProjectName())
	if err != nil {
		return nil, nil, err
	}

	cleaner := clusters.NewCleaner(cluster)
	cleaner.AddProject(project)

	finish := func(runErr error) error {
		if runErr != nil {
			// teardown is skipped so the resources can be inspected; the
			// project label lets a later cluster Cleanup reap it
			if dir, dumpErr := cleaner.DumpDiagnostics(ctx, scenario); dumpErr == nil {
				logrus.WithField("dir", dir).Info("diagnostics written")
			} else {
				logrus.WithError(dumpErr).Warn("failed dumping diagnostics")
			}
			return runErr
		}
		return cleaner.Cleanup(ctx)
	}

	return project, finish, nil
}

// executorFor selects how probes reach the database for this run.
func executorFor(cfg *Config, cluster clusters.Cluster, namespace string) postgres.Executor {
	if cfg.DirectAccess {
		return postgres.NewDirectExecutor()
	}
	return postgres.NewPodExecutor(cluster, namespace, cfg.ClientImage)
}

// probeFor builds the probe aimed at a deployment's primary service.
func probeFor(ctx context.Context, cfg *Config, cluster clusters.Cluster, namespace string, deployment *pgdeploy.Deployment) (*postgres.Probe, error) {
	return probeForService(ctx, cfg, cluster, namespace, deployment, deployment.ServiceName())
}

// probeForService builds a probe aimed at a named service of a deployment,
// for templates that expose more than one role. Client pods resolve the
// service by its cluster DNS name; direct access runs psql outside the
// cluster where that name means nothing, so the ClusterIP is used instead.
func probeForService(ctx context.Context, cfg *Config, cluster clusters.Cluster, namespace string, deployment *pgdeploy.Deployment, service string) (*postgres.Probe, error) {
	host := deployment.HostFor(service)
	if cfg.DirectAccess {
		ip, err := clusters.ServiceClusterIP(ctx, cluster, namespace, service)
		if err != nil {
			return nil, err
		}
		host = ip
	}
	credentials := deployment.Credentials()
	return postgres.NewProbe(executorFor(cfg, cluster, namespace), postgres.Target{
		Host:     host,
		User:     credentials.User,
		Password: credentials.Password,
		Database: credentials.Database,
	}), nil
}
