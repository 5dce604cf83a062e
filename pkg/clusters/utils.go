package clusters

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// -----------------------------------------------------------------------------
// Public Functions - Pod & Service Helpers
// -----------------------------------------------------------------------------

// PodIsReady reports whether a pod is running with its Ready condition true.
func PodIsReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

// ListPods retrieves the pods in a namespace matching a label selector.
func ListPods(ctx context.Context, cluster Cluster, namespace, selector string) ([]corev1.Pod, error) {
	pods, err := cluster.Client().CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed listing pods in %s with selector %q: %w", namespace, selector, err)
	}
	return pods.Items, nil
}

// ServiceClusterIP resolves the cluster network address of a named service.
func ServiceClusterIP(ctx context.Context, cluster Cluster, namespace, name string) (string, error) {
	service, err := cluster.Client().CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("failed retrieving service %s/%s: %w", namespace, name, err)
	}
	if service.Spec.ClusterIP == "" || service.Spec.ClusterIP == corev1.ClusterIPNone {
		return "", fmt.Errorf("service %s/%s has no cluster IP", namespace, name)
	}
	return service.Spec.ClusterIP, nil
}
