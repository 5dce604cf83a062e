package generators

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

// -----------------------------------------------------------------------------
// Public Functions - appsv1.Deployment Helpers
// -----------------------------------------------------------------------------

// NewDeploymentForContainer wraps a container in a single-replica Deployment
// named after it and labeled app=<name>, the label pods are later selected by.
func NewDeploymentForContainer(c corev1.Container) *appsv1.Deployment {
	labels := map[string]string{"app": c.Name}
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:   c.Name,
			Labels: labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(int32(1)),
			Selector: &metav1.LabelSelector{
				MatchLabels: labels,
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: labels,
				},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{c},
				},
			},
		},
	}
}
