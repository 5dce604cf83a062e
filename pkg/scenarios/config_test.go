package scenarios

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Image:           "quay.io/example/postgresql-13-centos7:candidate",
		Version:         "13",
		OS:              OSCentOS7,
		ClientImage:     "quay.io/example/postgresql-13-centos7:candidate",
		TemplatesDir:    "templates",
		ScenarioTimeout: time.Minute,
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("IMAGE_NAME", "quay.io/example/postgresql-13-rhel7:candidate")
	t.Setenv("VERSION", "13")
	t.Setenv("OS", "rhel7")

	cfg := Load()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "quay.io/example/postgresql-13-rhel7:candidate", cfg.Image)
	require.Equal(t, cfg.Image, cfg.ClientImage, "client image defaults to the candidate")
	require.Equal(t, "templates", cfg.TemplatesDir)
	require.Equal(t, 15*time.Minute, cfg.ScenarioTimeout)
}

func TestValidateRequiredVariables(t *testing.T) {
	for _, mutate := range []func(*Config){
		func(cfg *Config) { cfg.Image = "" },
		func(cfg *Config) { cfg.Version = "" },
		func(cfg *Config) { cfg.OS = "" },
	} {
		cfg := validConfig()
		mutate(cfg)
		require.Error(t, cfg.Validate())
	}
}

func TestValidateRejectsZeroTimeout(t *testing.T) {
	// a zero timeout would hand every scenario an already-expired context
	cfg := validConfig()
	cfg.ScenarioTimeout = 0
	require.ErrorContains(t, cfg.Validate(), "SCENARIO_TIMEOUT")

	cfg = validConfig()
	cfg.ScenarioTimeout = -time.Second
	require.ErrorContains(t, cfg.Validate(), "SCENARIO_TIMEOUT")
}

func TestValidateRejectsUnknownOS(t *testing.T) {
	cfg := validConfig()
	cfg.OS = "fedora"
	require.ErrorContains(t, cfg.Validate(), "unsupported OS")
}

func TestTemplatePaths(t *testing.T) {
	cfg := validConfig()
	require.Equal(t, "templates/postgresql-ephemeral-template.json", cfg.EphemeralTemplate())
	require.Equal(t, "templates/postgresql-persistent-template.json", cfg.PersistentTemplate())
	require.Equal(t, "templates/postgresql-replica-template.json", cfg.ReplicaTemplate())
}

func TestPriorImage(t *testing.T) {
	t.Run("centos7 pulls from docker hub", func(t *testing.T) {
		cfg := validConfig()
		prior, err := cfg.PriorImage()
		require.NoError(t, err)
		require.Equal(t, "12", prior.Version)
		require.Equal(t, "docker.io/centos/postgresql-12-centos7", prior.Ref)
	})

	t.Run("rhel7 pulls from the legacy redhat registry", func(t *testing.T) {
		cfg := validConfig()
		cfg.OS = OSRHEL7
		cfg.Version = "10"
		prior, err := cfg.PriorImage()
		require.NoError(t, err)
		require.Equal(t, "9.6", prior.Version)
		require.Equal(t, "registry.access.redhat.com/rhscl/postgresql-96-rhel7", prior.Ref)
	})

	t.Run("oldest release has nothing to upgrade from", func(t *testing.T) {
		cfg := validConfig()
		cfg.Version = "9.6"
		_, err := cfg.PriorImage()
		require.Error(t, err)
	})

	t.Run("garbage version is a precondition error", func(t *testing.T) {
		cfg := validConfig()
		cfg.Version = "latest"
		_, err := cfg.PriorImage()
		require.Error(t, err)
		require.Error(t, cfg.Validate())
	})
}

func TestFlattenVersion(t *testing.T) {
	require.Equal(t, "96", flattenVersion("9.6"))
	require.Equal(t, "10", flattenVersion("10"))
}
