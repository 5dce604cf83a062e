package clusters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/sclorg/postgresql-testing-framework/pkg/utils/polling"
)

// -----------------------------------------------------------------------------
// Public Functions - Project Lifecycle
// -----------------------------------------------------------------------------

// TestLabel is applied to every namespace the harness creates so that leftover
// projects from aborted runs can be found and reaped.
const TestLabel = "postgresql-testing-framework"

// UniqueProjectName generates a namespace name that cannot collide with the
// leftovers of a previous scenario. Each scenario exclusively owns one.
func UniqueProjectName() string {
	return "pg-test-" + strings.Split(uuid.NewString(), "-")[0]
}

// CreateProject creates an isolated namespace for a single scenario and waits
// for it to reach the Active phase.
func CreateProject(ctx context.Context, cluster Cluster, name string) (*corev1.Namespace, error) {
	logrus.WithField("project", name).Info("creating project")

	namespace := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
			Labels: map[string]string{
				TestLabel: "true",
			},
		},
	}

	created, err := cluster.Client().CoreV1().Namespaces().Create(ctx, namespace, metav1.CreateOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed creating project %s: %w", name, err)
	}

	err = polling.Poll(ctx, func(ctx context.Context) (bool, error) {
		ns, err := cluster.Client().CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, err
		}
		return ns.Status.Phase == corev1.NamespaceActive, nil
	}, polling.WithInterval(time.Second))
	if err != nil {
		return nil, fmt.Errorf("project %s never became active: %w", name, err)
	}

	return created, nil
}

// DeleteProject removes a scenario's namespace and everything in it. Missing
// namespaces are not an error so teardown stays idempotent.
func DeleteProject(ctx context.Context, cluster Cluster, name string) error {
	logrus.WithField("project", name).Info("deleting project")

	err := cluster.Client().CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !errors.IsNotFound(err) {
		return fmt.Errorf("failed deleting project %s: %w", name, err)
	}
	return nil
}
