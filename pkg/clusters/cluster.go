package clusters

import (
	"context"

	"github.com/blang/semver/v4"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// -----------------------------------------------------------------------------
// Public Types - Cluster Interface
// -----------------------------------------------------------------------------

// Type indicates the flavor of orchestration platform backing a Cluster
// (e.g. OpenShift).
type Type string

// Cluster objects represent a running Kubernetes-compatible cluster that
// scenarios deploy the candidate database image onto. The harness never
// provisions the cluster itself, it only binds to one that already exists.
type Cluster interface {
	// Name indicates the unique name of the running cluster.
	Name() string

	// Type indicates the flavor of orchestration platform backing the cluster.
	Type() Type

	// Version indicates the Kubernetes server version of the cluster.
	Version() (semver.Version, error)

	// Client is the configured *kubernetes.Clientset which can be used to access the cluster's API.
	Client() *kubernetes.Clientset

	// Config provides the *rest.Config for the cluster which is convenient for initiating custom clients.
	Config() *rest.Config

	// Cleanup releases anything the harness holds for the cluster. The cluster
	// itself is left running, only harness-owned resources are removed.
	Cleanup(ctx context.Context) error
}
