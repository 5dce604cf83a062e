package scenarios

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"

	"github.com/sclorg/postgresql-testing-framework/pkg/clusters"
	pgdeploy "github.com/sclorg/postgresql-testing-framework/pkg/deployments/postgres"
	"github.com/sclorg/postgresql-testing-framework/pkg/utils/postgres"
)

const (
	// MasterServiceName exposes the replication master role.
	MasterServiceName = "postgresql-master"

	// SlaveServiceName exposes the replication slave role.
	SlaveServiceName = "postgresql-slave"
)

// Replication instantiates the master/slave template and walks the full
// replication checklist: data written on the master becomes visible on the
// slave, both roles survive a credential rotation, a redeployed slave
// re-syncs, and after scaling out every slave replica independently serves
// the replicated row. Replicas are checked in sequence, never concurrently.
func Replication(ctx context.Context, cfg *Config, cluster clusters.Cluster) (err error) {
	project, finish, err := scenarioProject(ctx, cluster, "replication")
	if err != nil {
		return err
	}
	defer func() { err = finish(err) }()

	deployment, err := pgdeploy.NewBuilder(cfg.Image).
		WithVersion(cfg.Version).
		WithName(MasterServiceName).
		WithTemplate(cfg.ReplicaTemplate()).
		WithTemplateParameters(map[string]string{
			"POSTGRESQL_MASTER_SERVICE_NAME": MasterServiceName,
			"POSTGRESQL_SLAVE_SERVICE_NAME":  SlaveServiceName,
		}).
		Build()
	if err != nil {
		return err
	}
	if err = deployment.Deploy(ctx, cluster, project.Name); err != nil {
		return err
	}
	if err = deployment.WaitForPodCount(ctx, cluster, MasterServiceName, 1); err != nil {
		return err
	}
	if err = deployment.WaitForPodCount(ctx, cluster, SlaveServiceName, 1); err != nil {
		return err
	}

	master, err := probeForService(ctx, cfg, cluster, project.Name, deployment, MasterServiceName)
	if err != nil {
		return err
	}
	slave, err := probeForService(ctx, cfg, cluster, project.Name, deployment, SlaveServiceName)
	if err != nil {
		return err
	}

	if err = master.WaitForReady(ctx); err != nil {
		return err
	}
	if err = master.Insert(ctx); err != nil {
		return err
	}
	if err = master.Verify(ctx); err != nil {
		return err
	}

	logrus.Info("waiting for the row to propagate to the slave")
	if err = slave.Verify(ctx); err != nil {
		return err
	}

	// rotate the password on both roles and insist every later check works
	// with the new credentials only
	rotated, err := pgdeploy.GeneratePassword()
	if err != nil {
		return err
	}
	env := map[string]string{"POSTGRESQL_PASSWORD": rotated}
	if err = deployment.SetEnv(ctx, cluster, MasterServiceName, env); err != nil {
		return err
	}
	if err = deployment.SetEnv(ctx, cluster, SlaveServiceName, env); err != nil {
		return err
	}

	user := deployment.Credentials().User
	master = master.WithCredentials(user, rotated)
	slave = slave.WithCredentials(user, rotated)

	if err = master.WaitForReady(ctx); err != nil {
		return err
	}
	if err = master.Verify(ctx); err != nil {
		return err
	}
	if err = slave.Verify(ctx); err != nil {
		return err
	}

	// a recreated slave must catch back up from the master
	if err = deployment.Redeploy(ctx, cluster, SlaveServiceName); err != nil {
		return err
	}
	if err = deployment.WaitForPodCount(ctx, cluster, SlaveServiceName, 1); err != nil {
		return err
	}
	if err = slave.Verify(ctx); err != nil {
		return err
	}

	// scale out and check each replica pod on its own address
	if err = deployment.Scale(ctx, cluster, SlaveServiceName, 2); err != nil {
		return err
	}
	if err = deployment.WaitForPodCount(ctx, cluster, SlaveServiceName, 2); err != nil {
		return err
	}

	pods, err := deployment.Pods(ctx, cluster, SlaveServiceName)
	if err != nil {
		return err
	}
	addresses := lo.Map(pods, func(pod corev1.Pod, _ int) string {
		return pod.Status.PodIP
	})
	credentials := deployment.Credentials()
	for _, address := range addresses {
		if address == "" {
			return fmt.Errorf("slave pod has no address yet")
		}
		replica := postgres.NewProbe(executorFor(cfg, cluster, project.Name), postgres.Target{
			Host:     address,
			User:     credentials.User,
			Password: rotated,
			Database: credentials.Database,
		})
		if err = replica.Verify(ctx); err != nil {
			return fmt.Errorf("slave replica %s does not serve the replicated row: %w", address, err)
		}
		logrus.WithField("address", address).Info("slave replica verified")
	}

	return nil
}
