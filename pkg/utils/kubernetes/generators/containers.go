package generators

import (
	corev1 "k8s.io/api/core/v1"
)

// -----------------------------------------------------------------------------
// Public Functions - corev1.Container Helpers
// -----------------------------------------------------------------------------

// NewContainer builds the database container of a deployment: one named port
// and the env vars the image is configured through.
func NewContainer(name, image string, port int32, env ...corev1.EnvVar) corev1.Container {
	return corev1.Container{
		Name:  name,
		Image: image,
		Env:   env,
		Ports: []corev1.ContainerPort{{
			Name:          "postgresql",
			ContainerPort: port,
		}},
	}
}
