package clusters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/dynamic"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/sclorg/postgresql-testing-framework/internal/command"
)

// -----------------------------------------------------------------------------
// Cleaner - Public
// -----------------------------------------------------------------------------

// Cleaner holds projects and objects a scenario created for later teardown.
// Scenarios register everything they make and defer a single Cleanup call.
type Cleaner struct {
	cluster  Cluster
	objects  []client.Object
	projects []*corev1.Namespace
}

// NewCleaner provides a new initialized *Cleaner object.
func NewCleaner(cluster Cluster) *Cleaner {
	return &Cleaner{cluster: cluster}
}

// Add registers an object for deletion. Objects are removed in reverse
// registration order, before any projects.
func (c *Cleaner) Add(obj client.Object) {
	c.objects = append([]client.Object{obj}, c.objects...)
}

// AddProject registers a scenario's namespace for deletion.
func (c *Cleaner) AddProject(project *corev1.Namespace) {
	c.projects = append(c.projects, project)
}

// Cleanup deletes every registered object and project.
func (c *Cleaner) Cleanup(ctx context.Context) error {
	dyn, err := dynamic.NewForConfig(c.cluster.Config())
	if err != nil {
		return err
	}

	for _, obj := range c.objects {
		namespace := obj.GetNamespace()
		name := obj.GetName()
		res := strings.ToLower(obj.GetObjectKind().GroupVersionKind().Kind) + "s"
		gvr := obj.GetObjectKind().GroupVersionKind().GroupVersion().WithResource(res)
		resource := dyn.Resource(gvr).Namespace(namespace)
		if err := resource.Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
			if !errors.IsNotFound(err) {
				return err
			}
		}
	}

	for _, project := range c.projects {
		if err := DeleteProject(ctx, c.cluster, project.Name); err != nil {
			return err
		}
	}

	return nil
}

// DumpDiagnostics gathers a snapshot of the registered projects for offline
// debugging of a failed scenario: object listings via oc plus the logs of
// every pod. It returns the directory the snapshot was written to.
func (c *Cleaner) DumpDiagnostics(ctx context.Context, meta string) (string, error) {
	kubeconfig, err := TempKubeconfig(c.cluster)
	if err != nil {
		return "", err
	}
	defer os.Remove(kubeconfig.Name())

	output, err := os.MkdirTemp(os.TempDir(), "pgtf-diag-")
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(filepath.Join(output, "meta.txt"), []byte(meta), 0o600); err != nil {
		return output, err
	}

	for _, project := range c.projects {
		getAllOut, err := os.Create(filepath.Join(output, fmt.Sprintf("oc_get_all_%s.yaml", project.Name)))
		if err != nil {
			return output, err
		}
		err = command.New("oc", "--kubeconfig", kubeconfig.Name(), "get", "all", "-n", project.Name, "-o", "yaml").
			WithStdout(getAllOut).Do(ctx)
		getAllOut.Close()
		if err != nil {
			return output, err
		}

		pods, err := c.cluster.Client().CoreV1().Pods(project.Name).List(ctx, metav1.ListOptions{})
		if err != nil {
			return output, err
		}
		for _, pod := range pods.Items {
			logOut, err := os.Create(filepath.Join(output, fmt.Sprintf("pod_logs_%s_%s.txt", pod.Namespace, pod.Name)))
			if err != nil {
				return output, err
			}
			err = command.New("oc", "--kubeconfig", kubeconfig.Name(), "logs", "--all-containers", "-n", pod.Namespace, pod.Name).
				WithStdout(logOut).Do(ctx)
			logOut.Close()
			if err != nil {
				return output, err
			}
		}
	}

	return output, nil
}
