package scenarios

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sclorg/postgresql-testing-framework/pkg/clusters"
	"github.com/sclorg/postgresql-testing-framework/pkg/clusters/types/openshift"
	"github.com/sclorg/postgresql-testing-framework/pkg/utils/docker"
)

// -----------------------------------------------------------------------------
// Public Types - Scenario Runner
// -----------------------------------------------------------------------------

// Scenario is one end-to-end validation of the candidate image. Every
// scenario owns a freshly created project for its whole duration and walks a
// fixed sequence, there is no branching beyond the platform-family selection
// in the upgrade scenario.
type Scenario struct {
	Name string
	Run  func(ctx context.Context, cfg *Config, cluster clusters.Cluster) error
}

// All lists the scenarios in their fixed execution order.
func All() []Scenario {
	return []Scenario{
		{Name: "image-direct", Run: DirectImageDeploy},
		{Name: "template-ephemeral", Run: EphemeralTemplateDeploy},
		{Name: "template-ephemeral-redeploy", Run: EphemeralRedeployLosesData},
		{Name: "template-persistent-redeploy", Run: PersistentRedeploy},
		{Name: "version-upgrade", Run: VersionUpgrade},
		{Name: "replication", Run: Replication},
		{Name: "template-persistent-data-survival", Run: PersistentDataSurvival},
	}
}

// Names lists the registered scenario names in execution order.
func Names() []string {
	all := All()
	names := make([]string, 0, len(all))
	for _, scenario := range all {
		names = append(names, scenario.Name)
	}
	return names
}

// Runner executes scenarios strictly one after another against one cluster.
type Runner struct {
	cfg     *Config
	cluster clusters.Cluster
}

// NewRunner validates the configuration and provides a Runner.
func NewRunner(cfg *Config, cluster clusters.Cluster) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, cluster: cluster}, nil
}

// PushCandidate uploads a locally built candidate image into the cluster's
// exposed registry and rewrites the configuration to deploy the pushed
// reference. Only meaningful when the candidate is not already pullable.
func (r *Runner) PushCandidate(ctx context.Context, namespace string) error {
	ocCluster, ok := r.cluster.(*openshift.Cluster)
	if !ok {
		return fmt.Errorf("pushing the candidate requires an openshift cluster, got type %s", r.cluster.Type())
	}

	registryHost, err := ocCluster.RegistryInfo(ctx)
	if err != nil {
		return err
	}

	pushed, err := docker.PushToRegistry(ctx, r.cfg.Image, registryHost, namespace, "postgresql-candidate", r.cfg.Version, ocCluster.Token())
	if err != nil {
		return err
	}

	r.cfg.Image = pushed
	if r.cfg.ClientImage == "" {
		r.cfg.ClientImage = pushed
	}
	return nil
}

// Run executes the given scenarios in order, aborting on the first failure.
// A failed scenario leaves its project behind for inspection and dumps
// diagnostics, successful scenarios tear their project down.
func (r *Runner) Run(ctx context.Context, scenarios ...Scenario) error {
	if len(scenarios) == 0 {
		scenarios = All()
	}

	for _, scenario := range scenarios {
		log := logrus.WithField("scenario", scenario.Name)
		log.Info("starting scenario")

		scenarioCtx, cancel := context.WithTimeout(ctx, r.cfg.ScenarioTimeout)
		err := scenario.Run(scenarioCtx, r.cfg, r.cluster)
		cancel()

		if err != nil {
			log.WithError(err).Error("scenario failed, aborting run")
			return fmt.Errorf("scenario %s failed: %w", scenario.Name, err)
		}
		log.Info("scenario passed")
	}

	return nil
}
