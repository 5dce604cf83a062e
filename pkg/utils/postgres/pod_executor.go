package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/sclorg/postgresql-testing-framework/pkg/clusters"
	"github.com/sclorg/postgresql-testing-framework/pkg/utils/kubernetes/generators"
	"github.com/sclorg/postgresql-testing-framework/pkg/utils/polling"
)

// readyMarker is what pg_isready prints for a server that accepts connections.
const readyMarker = "accepting connections"

// clientPodBudget bounds how long a single throwaway client pod may take from
// scheduling to completion, image pull included.
const clientPodBudget = time.Minute * 2

// PodExecutor runs probe commands from short-lived client pods scheduled in
// the scenario's own project. The pod image is expected to carry the psql
// client tooling, normally the candidate image itself is used.
type PodExecutor struct {
	cluster   clusters.Cluster
	namespace string
	image     string
}

// NewPodExecutor provides a PodExecutor scheduling client pods from the given
// image into the given namespace.
func NewPodExecutor(cluster clusters.Cluster, namespace, image string) *PodExecutor {
	return &PodExecutor{
		cluster:   cluster,
		namespace: namespace,
		image:     image,
	}
}

func (e *PodExecutor) ExecSQL(ctx context.Context, target Target, sql string) (string, error) {
	target = target.WithDefaults()
	if err := target.Validate(); err != nil {
		return "", err
	}
	env := []corev1.EnvVar{{Name: "PGPASSWORD", Value: target.Password}}
	return e.run(ctx, psqlArgs(target, sql), env)
}

func (e *PodExecutor) IsReady(ctx context.Context, target Target) (bool, error) {
	target = target.WithDefaults()
	if target.Host == "" {
		return false, fmt.Errorf("target host must not be empty")
	}

	out, err := e.run(ctx, isReadyArgs(target), nil)
	if strings.Contains(out, readyMarker) {
		return true, nil
	}
	var cmdErr *commandError
	if errors.As(err, &cmdErr) {
		// pg_isready exits non-zero for a server that is not (yet) up,
		// which is a poll-again outcome rather than a failure
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// run schedules a single client pod, waits for it to finish, collects its
// logs and deletes it again.
func (e *PodExecutor) run(ctx context.Context, argv []string, env []corev1.EnvVar) (string, error) {
	pods := e.cluster.Client().CoreV1().Pods(e.namespace)

	pod, err := pods.Create(ctx, generators.NewPodForCommand("psql-client", e.image, argv, env), metav1.CreateOptions{})
	if err != nil {
		return "", fmt.Errorf("failed creating client pod in %s: %w", e.namespace, err)
	}
	defer func() {
		// the pod served its one command, outcome of the delete is irrelevant
		pods.Delete(context.Background(), pod.Name, metav1.DeleteOptions{}) //nolint:errcheck
	}()

	var phase corev1.PodPhase
	err = polling.Poll(ctx, func(ctx context.Context) (bool, error) {
		fresh, err := pods.Get(ctx, pod.Name, metav1.GetOptions{})
		if err != nil {
			return false, err
		}
		phase = fresh.Status.Phase
		return phase == corev1.PodSucceeded || phase == corev1.PodFailed, nil
	}, polling.WithInterval(time.Second), polling.WithTimeout(clientPodBudget))
	if err != nil {
		return "", fmt.Errorf("client pod %s never completed: %w", pod.Name, err)
	}

	logs, err := e.podLogs(ctx, pod.Name)
	if err != nil {
		return "", err
	}

	if phase == corev1.PodFailed {
		return logs, &commandError{argv: argv, output: logs}
	}
	return logs, nil
}

func (e *PodExecutor) podLogs(ctx context.Context, name string) (string, error) {
	stream, err := e.cluster.Client().CoreV1().Pods(e.namespace).GetLogs(name, &corev1.PodLogOptions{}).Stream(ctx)
	if err != nil {
		return "", fmt.Errorf("failed streaming logs of client pod %s: %w", name, err)
	}
	defer stream.Close()

	out, err := io.ReadAll(stream)
	if err != nil {
		return "", fmt.Errorf("failed reading logs of client pod %s: %w", name, err)
	}
	return string(out), nil
}
