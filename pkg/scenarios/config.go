package scenarios

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/blang/semver/v4"
	"github.com/spf13/viper"
)

// -----------------------------------------------------------------------------
// Public Types - Harness Configuration
// -----------------------------------------------------------------------------

// Supported platform families for the candidate image. The family selects
// where the previously published image for the upgrade scenario is pulled from.
const (
	OSRHEL7   = "rhel7"
	OSCentOS7 = "centos7"
)

// releasedVersions are the image versions published before any candidate,
// ordered oldest first. The upgrade scenario starts from the next-lower one.
var releasedVersions = []string{"9.6", "10", "12", "13"}

// Config carries everything the scenario runner needs. Required values come
// from the environment, the rest has defaults.
type Config struct {
	// Image is the candidate image reference under test (IMAGE_NAME).
	Image string

	// Version is the image version tag, e.g. "13" (VERSION).
	Version string

	// OS is the platform family of the image, rhel7 or centos7 (OS).
	OS string

	// ClientImage runs the throwaway psql client pods, defaults to Image.
	ClientImage string

	// TemplatesDir holds the opaque template files the scenarios instantiate.
	TemplatesDir string

	// DirectAccess switches probes from client pods to direct database/sql
	// connections, for runners with flat network access to services.
	DirectAccess bool

	// ScenarioTimeout bounds one scenario end to end.
	ScenarioTimeout time.Duration
}

// Load reads the configuration from the environment.
func Load() *Config {
	v := viper.New()
	v.SetDefault("templates_dir", "templates")
	v.SetDefault("scenario_timeout", "15m")

	for key, env := range map[string]string{
		"image":            "IMAGE_NAME",
		"version":          "VERSION",
		"os":               "OS",
		"client_image":     "CLIENT_IMAGE",
		"templates_dir":    "TEMPLATES_DIR",
		"direct_access":    "DIRECT_ACCESS",
		"scenario_timeout": "SCENARIO_TIMEOUT",
	} {
		v.BindEnv(key, env) //nolint:errcheck
	}

	cfg := &Config{
		Image:           v.GetString("image"),
		Version:         v.GetString("version"),
		OS:              v.GetString("os"),
		ClientImage:     v.GetString("client_image"),
		TemplatesDir:    v.GetString("templates_dir"),
		DirectAccess:    v.GetBool("direct_access"),
		ScenarioTimeout: v.GetDuration("scenario_timeout"),
	}
	if cfg.ClientImage == "" {
		cfg.ClientImage = cfg.Image
	}
	return cfg
}

// Validate checks the required environment-provided values before any
// scenario runs, so a misconfigured run fails up front.
func (c *Config) Validate() error {
	for env, value := range map[string]string{
		"IMAGE_NAME": c.Image,
		"VERSION":    c.Version,
		"OS":         c.OS,
	} {
		if value == "" {
			return fmt.Errorf("required environment variable %s is not set", env)
		}
	}
	if c.OS != OSRHEL7 && c.OS != OSCentOS7 {
		return fmt.Errorf("unsupported OS %q (supported: %s, %s)", c.OS, OSRHEL7, OSCentOS7)
	}
	if c.ScenarioTimeout <= 0 {
		return fmt.Errorf("SCENARIO_TIMEOUT must be positive, got %s", c.ScenarioTimeout)
	}
	if _, err := c.PriorImage(); err != nil {
		return err
	}
	return nil
}

// EphemeralTemplate is the template deploying without a durable volume.
func (c *Config) EphemeralTemplate() string {
	return filepath.Join(c.TemplatesDir, "postgresql-ephemeral-template.json")
}

// PersistentTemplate is the template backing the data directory with a volume.
func (c *Config) PersistentTemplate() string {
	return filepath.Join(c.TemplatesDir, "postgresql-persistent-template.json")
}

// ReplicaTemplate is the master/slave replication template.
func (c *Config) ReplicaTemplate() string {
	return filepath.Join(c.TemplatesDir, "postgresql-replica-template.json")
}

// PriorImage identifies the previously published image the upgrade scenario
// starts from.
type PriorImage struct {
	Version string
	Ref     string
}

// PriorImage resolves the next-lower released version, pulled from the
// registry path of the configured platform family.
func (c *Config) PriorImage() (PriorImage, error) {
	candidate, err := semver.ParseTolerant(c.Version)
	if err != nil {
		return PriorImage{}, fmt.Errorf("unparseable VERSION %q: %w", c.Version, err)
	}

	prior := ""
	for _, released := range releasedVersions {
		version, err := semver.ParseTolerant(released)
		if err != nil {
			return PriorImage{}, err
		}
		if version.LT(candidate) {
			prior = released
		}
	}
	if prior == "" {
		return PriorImage{}, fmt.Errorf("no released version older than %s to upgrade from", c.Version)
	}

	flat := flattenVersion(prior)
	switch c.OS {
	case OSRHEL7:
		return PriorImage{Version: prior, Ref: fmt.Sprintf("registry.access.redhat.com/rhscl/postgresql-%s-rhel7", flat)}, nil
	case OSCentOS7:
		return PriorImage{Version: prior, Ref: fmt.Sprintf("docker.io/centos/postgresql-%s-centos7", flat)}, nil
	default:
		return PriorImage{}, fmt.Errorf("unsupported OS %q", c.OS)
	}
}

// flattenVersion turns "9.6" into the "96" form image names use.
func flattenVersion(version string) string {
	out := make([]rune, 0, len(version))
	for _, r := range version {
		if r != '.' {
			out = append(out, r)
		}
	}
	return string(out)
}
