package openshift

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	homedir "github.com/mitchellh/go-homedir"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/sclorg/postgresql-testing-framework/pkg/clusters"
)

// NewFromKubeconfig provides a Cluster object for an already running OpenShift
// cluster reachable through the given kubeconfig file.
func NewFromKubeconfig(name, kubeconfigPath string) (*Cluster, error) {
	cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed loading kubeconfig %s: %w", kubeconfigPath, err)
	}

	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed building client for cluster %s: %w", name, err)
	}

	return &Cluster{
		l:              &sync.RWMutex{},
		name:           name,
		client:         client,
		cfg:            cfg,
		kubeconfigPath: kubeconfigPath,
	}, nil
}

// NewFromEnv binds to the cluster selected by $KUBECONFIG, falling back to the
// conventional ~/.kube/config location.
func NewFromEnv(name string) (*Cluster, error) {
	kubeconfigPath := os.Getenv(clientcmd.RecommendedConfigPathEnvVar)
	if kubeconfigPath == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("failed resolving home directory for default kubeconfig: %w", err)
		}
		kubeconfigPath = filepath.Join(home, ".kube", "config")
	}
	return NewFromKubeconfig(name, kubeconfigPath)
}

var _ clusters.Cluster = &Cluster{}
