package openshift

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/blang/semver/v4"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/sclorg/postgresql-testing-framework/internal/command"
	"github.com/sclorg/postgresql-testing-framework/pkg/clusters"
)

const (
	// OpenShiftClusterType indicates that the cluster is an OpenShift cluster.
	OpenShiftClusterType clusters.Type = "openshift"

	// EnvKeepProjects is the environment variable that can be set to "true" in order
	// to circumvent teardown of test projects so a user can inspect them instead.
	EnvKeepProjects = "PGTF_KEEP_PROJECTS"
)

// Cluster is a clusters.Cluster implementation bound to an existing OpenShift
// cluster through a kubeconfig. OpenShift-only resources (templates and
// deploymentconfigs) are driven through the oc binary, everything Kubernetes
// level goes through client-go.
type Cluster struct {
	l *sync.RWMutex

	name           string
	client         *kubernetes.Clientset
	cfg            *rest.Config
	kubeconfigPath string
}

func (c *Cluster) Name() string {
	return c.name
}

func (c *Cluster) Type() clusters.Type {
	return OpenShiftClusterType
}

func (c *Cluster) Version() (semver.Version, error) {
	versionInfo, err := c.Client().ServerVersion()
	if err != nil {
		return semver.Version{}, err
	}
	return semver.Parse(strings.TrimPrefix(versionInfo.String(), "v"))
}

func (c *Cluster) Client() *kubernetes.Clientset {
	return c.client
}

func (c *Cluster) Config() *rest.Config {
	return c.cfg
}

// Cleanup removes every project carrying the harness label. The cluster
// itself is never touched.
func (c *Cluster) Cleanup(ctx context.Context) error {
	c.l.Lock()
	defer c.l.Unlock()

	if os.Getenv(EnvKeepProjects) != "" {
		return nil
	}

	namespaces, err := c.client.CoreV1().Namespaces().List(ctx, metav1.ListOptions{
		LabelSelector: clusters.TestLabel,
	})
	if err != nil {
		return fmt.Errorf("failed listing test projects: %w", err)
	}

	for _, namespace := range namespaces.Items {
		if err := clusters.DeleteProject(ctx, c, namespace.Name); err != nil {
			return err
		}
	}

	return nil
}

// OC builds an oc invocation bound to this cluster's kubeconfig. Arguments
// are passed through as an argv list, never as interpolated shell text.
func (c *Cluster) OC(args ...string) command.Doer {
	bound := append([]string{"--kubeconfig", c.kubeconfigPath}, args...)
	return command.New("oc", bound...)
}

// RegistryInfo resolves the public hostname of the cluster's exposed image
// registry, used as the push target for the candidate image.
func (c *Cluster) RegistryInfo(ctx context.Context) (string, error) {
	out, err := c.OC("registry", "info", "--public").Output(ctx)
	if err != nil {
		return "", fmt.Errorf("failed resolving registry info: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Token provides the bearer token oc and the registry authenticate with.
func (c *Cluster) Token() string {
	return c.cfg.BearerToken
}
