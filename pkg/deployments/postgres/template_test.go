package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
)

func TestProcessArgs(t *testing.T) {
	deployment, err := NewBuilder("img").
		WithVersion("13").
		WithCredentials(Credentials{User: "testu", Password: "testp", Database: "testdb"}).
		WithTemplate("/templates/postgresql-ephemeral.json").
		Build()
	require.NoError(t, err)
	deployment.namespace = "pg-test-abc123"

	require.Equal(t, []string{
		"-n", "pg-test-abc123",
		"process", "-f", "/templates/postgresql-ephemeral.json", "-o", "yaml",
		"-p", "DATABASE_SERVICE_NAME=postgresql",
		"-p", "NAMESPACE=pg-test-abc123",
		"-p", "POSTGRESQL_DATABASE=testdb",
		"-p", "POSTGRESQL_PASSWORD=testp",
		"-p", "POSTGRESQL_USER=testu",
		"-p", "POSTGRESQL_VERSION=13",
	}, deployment.processArgs())
}

func TestProcessArgsPersistentAndExtras(t *testing.T) {
	deployment, err := NewBuilder("img").
		WithCredentials(Credentials{User: "u", Password: "p", Database: "d"}).
		WithTemplate("/templates/postgresql-replica.json").
		WithPersistentStorage("").
		WithTemplateParameters(map[string]string{
			"POSTGRESQL_MASTER_SERVICE_NAME": "postgresql-master",
			"DATABASE_SERVICE_NAME":          "postgresql-slave",
		}).
		Build()
	require.NoError(t, err)
	deployment.namespace = "ns"

	args := deployment.processArgs()
	require.Contains(t, args, "VOLUME_CAPACITY="+DefaultVolumeSize)
	require.Contains(t, args, "POSTGRESQL_MASTER_SERVICE_NAME=postgresql-master")
	// extra parameters override the standard set
	require.Contains(t, args, "DATABASE_SERVICE_NAME=postgresql-slave")
	require.NotContains(t, args, "DATABASE_SERVICE_NAME=postgresql")
}

func TestSortedEnvArgs(t *testing.T) {
	args := sortedEnvArgs(map[string]string{
		"POSTGRESQL_PASSWORD":        "new",
		"POSTGRESQL_ADMIN_PASSWORD":  "admin",
		"POSTGRESQL_MASTER_PASSWORD": "master",
	})
	require.Equal(t, []string{
		"POSTGRESQL_ADMIN_PASSWORD=admin",
		"POSTGRESQL_MASTER_PASSWORD=master",
		"POSTGRESQL_PASSWORD=new",
	}, args)
}

func TestMergeEnv(t *testing.T) {
	existing := []corev1.EnvVar{
		{Name: "POSTGRESQL_USER", Value: "testu"},
		{Name: "POSTGRESQL_PASSWORD", Value: "old"},
	}
	updates := map[string]string{
		"POSTGRESQL_PASSWORD":       "new",
		"POSTGRESQL_ADMIN_PASSWORD": "admin",
	}
	merged := mergeEnv(existing, updates)
	require.Equal(t, []corev1.EnvVar{
		{Name: "POSTGRESQL_USER", Value: "testu"},
		{Name: "POSTGRESQL_PASSWORD", Value: "new"},
		{Name: "POSTGRESQL_ADMIN_PASSWORD", Value: "admin"},
	}, merged)
	require.Equal(t, "old", existing[1].Value, "input slice untouched")
	require.Equal(t, map[string]string{
		"POSTGRESQL_PASSWORD":       "new",
		"POSTGRESQL_ADMIN_PASSWORD": "admin",
	}, updates, "input map untouched")
}

func TestMergeEnvReusedMap(t *testing.T) {
	// the rotation scenario applies one map to the master and then the slave;
	// the second merge has to see the same updates as the first
	updates := map[string]string{"POSTGRESQL_PASSWORD": "rotated"}
	master := []corev1.EnvVar{{Name: "POSTGRESQL_PASSWORD", Value: "old"}}
	slave := []corev1.EnvVar{{Name: "POSTGRESQL_PASSWORD", Value: "old"}}

	require.Equal(t, "rotated", mergeEnv(master, updates)[0].Value)
	require.Equal(t, "rotated", mergeEnv(slave, updates)[0].Value)
}
