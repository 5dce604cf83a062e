package generators

import (
	"testing"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
)

func TestNewContainer(t *testing.T) {
	container := NewContainer("postgresql", "quay.io/example/postgresql:latest", 5432,
		corev1.EnvVar{Name: "POSTGRESQL_USER", Value: "testu"},
	)

	require.Equal(t, "postgresql", container.Ports[0].Name)
	require.Equal(t, int32(5432), container.Ports[0].ContainerPort)
	require.Equal(t, []corev1.EnvVar{{Name: "POSTGRESQL_USER", Value: "testu"}}, container.Env)
}

func TestNewDeploymentForContainer(t *testing.T) {
	container := NewContainer("postgresql", "quay.io/example/postgresql:latest", 5432)
	deployment := NewDeploymentForContainer(container)

	require.Equal(t, "postgresql", deployment.Name)
	require.Equal(t, deployment.Spec.Selector.MatchLabels, deployment.Spec.Template.Labels)
	require.NotNil(t, deployment.Spec.Replicas)
	require.Equal(t, int32(1), *deployment.Spec.Replicas)
	require.Len(t, deployment.Spec.Template.Spec.Containers, 1)
	require.Equal(t, int32(5432), deployment.Spec.Template.Spec.Containers[0].Ports[0].ContainerPort)
}

func TestNewServiceForDeployment(t *testing.T) {
	container := NewContainer("postgresql", "quay.io/example/postgresql:latest", 5432)
	deployment := NewDeploymentForContainer(container)
	service := NewServiceForDeployment(deployment, corev1.ServiceTypeClusterIP)

	require.Equal(t, deployment.Name, service.Name)
	require.Equal(t, deployment.Spec.Selector.MatchLabels, service.Spec.Selector)
	require.Len(t, service.Spec.Ports, 1)
	require.Equal(t, int32(5432), service.Spec.Ports[0].Port)
}

func TestNewPodForCommand(t *testing.T) {
	env := []corev1.EnvVar{{Name: "PGPASSWORD", Value: "hunter2"}}
	pod := NewPodForCommand("psql-client", "quay.io/example/postgresql:latest", []string{"psql", "-h", "db"}, env)

	require.Contains(t, pod.Name, "psql-client-")
	require.Equal(t, corev1.RestartPolicyNever, pod.Spec.RestartPolicy)
	require.Equal(t, []string{"psql", "-h", "db"}, pod.Spec.Containers[0].Command)
	require.Equal(t, env, pod.Spec.Containers[0].Env)
	require.NotEmpty(t, pod.Labels["task"])

	other := NewPodForCommand("psql-client", "quay.io/example/postgresql:latest", nil, nil)
	require.NotEqual(t, pod.Name, other.Name)
}
