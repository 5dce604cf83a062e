package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/utils/ptr"

	"github.com/sclorg/postgresql-testing-framework/pkg/clusters"
	"github.com/sclorg/postgresql-testing-framework/pkg/utils/kubernetes/generators"
	"github.com/sclorg/postgresql-testing-framework/pkg/utils/polling"
)

// -----------------------------------------------------------------------------
// PostgreSQL Deployment
// -----------------------------------------------------------------------------

const (
	// DefaultServiceName is the service the database is exposed under unless
	// overridden by the builder or a template parameter.
	DefaultServiceName = "postgresql"

	// DefaultVolumeSize is the persistent volume capacity requested when
	// persistent storage is enabled without an explicit size.
	DefaultVolumeSize = "1Gi"

	// dataDirectory is where the image keeps its data, the mount point of the
	// persistent volume.
	dataDirectory = "/var/lib/pgsql/data"

	postgresPort = 5432
)

// Deployment is one rollout of the candidate image (or a template around it)
// into a scenario's project, together with the operations scenarios mutate it
// with. Created via Builder.
type Deployment struct {
	image             string
	version           string
	serviceName       string
	credentials       Credentials
	templateFile      string
	templateParams    map[string]string
	persistentStorage bool
	volumeSize        string

	namespace string
}

// Credentials exposes the account the database was deployed with.
func (d *Deployment) Credentials() Credentials {
	return d.credentials
}

// ServiceName is the name of the primary database service.
func (d *Deployment) ServiceName() string {
	return d.serviceName
}

// Host is the in-cluster DNS name client pods reach the database under.
// For templated deployments with several services (replication) use
// HostFor with the role's service name instead.
func (d *Deployment) Host() string {
	return d.HostFor(d.serviceName)
}

// HostFor resolves the in-cluster DNS name of a named service in the
// deployment's project.
func (d *Deployment) HostFor(service string) string {
	return fmt.Sprintf("%s.%s.svc", service, d.namespace)
}

// Deploy rolls the database out into the given project, either directly from
// the image or by instantiating the configured template.
func (d *Deployment) Deploy(ctx context.Context, cluster clusters.Cluster, namespace string) error {
	d.namespace = namespace

	logrus.WithFields(logrus.Fields{
		"project": namespace,
		"service": d.serviceName,
		"image":   d.image,
	}).Info("deploying postgresql")

	if d.templateFile != "" {
		return d.deployTemplate(ctx, cluster)
	}
	return d.deployImage(ctx, cluster)
}

func (d *Deployment) deployImage(ctx context.Context, cluster clusters.Cluster) error {
	container := generators.NewContainer(d.serviceName, d.image, postgresPort,
		corev1.EnvVar{Name: "POSTGRESQL_USER", Value: d.credentials.User},
		corev1.EnvVar{Name: "POSTGRESQL_PASSWORD", Value: d.credentials.Password},
		corev1.EnvVar{Name: "POSTGRESQL_DATABASE", Value: d.credentials.Database},
	)

	deployment := generators.NewDeploymentForContainer(container)

	if d.persistentStorage {
		pvc := &corev1.PersistentVolumeClaim{
			ObjectMeta: metav1.ObjectMeta{Name: d.serviceName + "-data"},
			Spec: corev1.PersistentVolumeClaimSpec{
				AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
				Resources: corev1.VolumeResourceRequirements{
					Requests: corev1.ResourceList{
						corev1.ResourceStorage: resource.MustParse(d.volumeSize),
					},
				},
			},
		}
		if _, err := cluster.Client().CoreV1().PersistentVolumeClaims(d.namespace).Create(ctx, pvc, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("failed creating volume claim for %s: %w", d.serviceName, err)
		}

		podSpec := &deployment.Spec.Template.Spec
		podSpec.Volumes = []corev1.Volume{{
			Name: "data",
			VolumeSource: corev1.VolumeSource{
				PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: pvc.Name},
			},
		}}
		podSpec.Containers[0].VolumeMounts = []corev1.VolumeMount{{
			Name:      "data",
			MountPath: dataDirectory,
		}}
	}

	if _, err := cluster.Client().AppsV1().Deployments(d.namespace).Create(ctx, deployment, metav1.CreateOptions{}); err != nil {
		return fmt.Errorf("failed creating deployment %s: %w", d.serviceName, err)
	}

	service := generators.NewServiceForDeployment(deployment, corev1.ServiceTypeClusterIP)
	if _, err := cluster.Client().CoreV1().Services(d.namespace).Create(ctx, service, metav1.CreateOptions{}); err != nil {
		return fmt.Errorf("failed creating service %s: %w", d.serviceName, err)
	}

	return nil
}

// Ready is a non-blocking check of whether the database pods are up, in the
// familiar (waitingForObjects, ready, err) shape.
func (d *Deployment) Ready(ctx context.Context, cluster clusters.Cluster) (waitingForObjects []runtime.Object, ready bool, err error) {
	if d.templateFile != "" {
		return d.templateReady(ctx, cluster, d.serviceName, 1)
	}

	deployment, err := cluster.Client().AppsV1().Deployments(d.namespace).Get(ctx, d.serviceName, metav1.GetOptions{})
	if err != nil {
		return nil, false, err
	}
	if deployment.Status.AvailableReplicas != *deployment.Spec.Replicas {
		waitingForObjects = append(waitingForObjects, deployment)
	}

	ready = len(waitingForObjects) == 0
	return waitingForObjects, ready, nil
}

func (d *Deployment) templateReady(ctx context.Context, cluster clusters.Cluster, name string, minimum int) (waitingForObjects []runtime.Object, ready bool, err error) {
	pods, err := d.Pods(ctx, cluster, name)
	if err != nil {
		return nil, false, err
	}

	readyCount := 0
	for i := range pods {
		pod := &pods[i]
		if clusters.PodIsReady(pod) {
			readyCount++
		} else {
			waitingForObjects = append(waitingForObjects, pod)
		}
	}

	if readyCount < minimum {
		if len(waitingForObjects) == 0 {
			// nothing scheduled yet, report the absent pods via a stub
			waitingForObjects = append(waitingForObjects, &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: name}})
		}
		return waitingForObjects, false, nil
	}
	return nil, true, nil
}

// WaitForReady blocks until Ready reports true or the polling budget runs out.
func (d *Deployment) WaitForReady(ctx context.Context, cluster clusters.Cluster, opts ...polling.Option) error {
	err := polling.Poll(ctx, func(ctx context.Context) (bool, error) {
		_, ready, err := d.Ready(ctx, cluster)
		if err != nil {
			return false, err
		}
		return ready, nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("deployment %s in %s never became ready: %w", d.serviceName, d.namespace, err)
	}
	return nil
}

// WaitForPodCount blocks until exactly count pods of the named role are ready,
// used after scaling out replicas.
func (d *Deployment) WaitForPodCount(ctx context.Context, cluster clusters.Cluster, name string, count int, opts ...polling.Option) error {
	err := polling.Poll(ctx, func(ctx context.Context) (bool, error) {
		pods, err := d.Pods(ctx, cluster, name)
		if err != nil {
			return false, err
		}
		if len(pods) != count {
			return false, nil
		}
		for i := range pods {
			if !clusters.PodIsReady(&pods[i]) {
				return false, nil
			}
		}
		return true, nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("never reached %d ready %s pods in %s: %w", count, name, d.namespace, err)
	}
	return nil
}

// Pods lists the database pods for a named role (service name).
func (d *Deployment) Pods(ctx context.Context, cluster clusters.Cluster, name string) ([]corev1.Pod, error) {
	return clusters.ListPods(ctx, cluster, d.namespace, d.podSelector(name))
}

func (d *Deployment) podSelector(name string) string {
	// templates label their pods with name=<service>, the direct deployment
	// uses the generator's app label
	if d.templateFile != "" {
		return "name=" + name
	}
	return "app=" + name
}

// Redeploy forces the database pods to be recreated: the template's
// deploymentconfig is rolled, direct deployments get their pods deleted out
// from under the replicaset.
func (d *Deployment) Redeploy(ctx context.Context, cluster clusters.Cluster, name string) error {
	logrus.WithFields(logrus.Fields{"project": d.namespace, "name": name}).Info("forcing redeploy")

	if d.templateFile != "" {
		oc, err := ocFor(cluster)
		if err != nil {
			return err
		}
		if err := oc("-n", d.namespace, "rollout", "latest", "dc/"+name).Do(ctx); err != nil {
			return fmt.Errorf("failed rolling out dc/%s: %w", name, err)
		}
		return nil
	}

	pods, err := d.Pods(ctx, cluster, name)
	if err != nil {
		return err
	}
	for _, pod := range pods {
		if err := cluster.Client().CoreV1().Pods(d.namespace).Delete(ctx, pod.Name, metav1.DeleteOptions{}); err != nil {
			return fmt.Errorf("failed deleting pod %s for redeploy: %w", pod.Name, err)
		}
	}
	return nil
}

// Scale changes the replica count of a role.
func (d *Deployment) Scale(ctx context.Context, cluster clusters.Cluster, name string, replicas int) error {
	logrus.WithFields(logrus.Fields{"project": d.namespace, "name": name, "replicas": replicas}).Info("scaling")

	if d.templateFile != "" {
		oc, err := ocFor(cluster)
		if err != nil {
			return err
		}
		if err := oc("-n", d.namespace, "scale", "dc/"+name, fmt.Sprintf("--replicas=%d", replicas)).Do(ctx); err != nil {
			return fmt.Errorf("failed scaling dc/%s to %d: %w", name, replicas, err)
		}
		return nil
	}

	deployments := cluster.Client().AppsV1().Deployments(d.namespace)
	deployment, err := deployments.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return err
	}
	deployment.Spec.Replicas = ptr.To(int32(replicas)) //nolint:gosec
	if _, err := deployments.Update(ctx, deployment, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed scaling deployment %s to %d: %w", name, replicas, err)
	}
	return nil
}

// SetEnv updates environment variables on a role's deployment, triggering a
// rollout. Used by the credential rotation scenario.
func (d *Deployment) SetEnv(ctx context.Context, cluster clusters.Cluster, name string, env map[string]string) error {
	logrus.WithFields(logrus.Fields{"project": d.namespace, "name": name}).Info("updating deployment environment")

	if d.templateFile != "" {
		oc, err := ocFor(cluster)
		if err != nil {
			return err
		}
		args := []string{"-n", d.namespace, "set", "env", "dc/" + name}
		args = append(args, sortedEnvArgs(env)...)
		if err := oc(args...).Do(ctx); err != nil {
			return fmt.Errorf("failed setting env on dc/%s: %w", name, err)
		}
		return nil
	}

	deployments := cluster.Client().AppsV1().Deployments(d.namespace)
	deployment, err := deployments.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return err
	}
	container := &deployment.Spec.Template.Spec.Containers[0]
	container.Env = mergeEnv(container.Env, env)
	if _, err := deployments.Update(ctx, deployment, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed setting env on deployment %s: %w", name, err)
	}
	return nil
}

// UpgradeImage swaps a role's container image in place, the vehicle for the
// version update scenario.
func (d *Deployment) UpgradeImage(ctx context.Context, cluster clusters.Cluster, name, image string) error {
	logrus.WithFields(logrus.Fields{"project": d.namespace, "name": name, "image": image}).Info("upgrading image in place")

	if d.templateFile != "" {
		return d.patchTemplateImage(ctx, cluster, name, image)
	}

	deployments := cluster.Client().AppsV1().Deployments(d.namespace)
	deployment, err := deployments.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return err
	}
	deployment.Spec.Template.Spec.Containers[0].Image = image
	if _, err := deployments.Update(ctx, deployment, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed upgrading deployment %s to %s: %w", name, image, err)
	}
	d.image = image
	return nil
}

// Delete removes the deployed resources. Scenario projects are deleted
// wholesale anyway, so this only handles the direct-deploy path explicitly.
func (d *Deployment) Delete(ctx context.Context, cluster clusters.Cluster) error {
	if d.templateFile != "" {
		oc, err := ocFor(cluster)
		if err != nil {
			return err
		}
		return oc("-n", d.namespace, "delete", "all", "-l", "name="+d.serviceName).Do(ctx)
	}

	if err := cluster.Client().CoreV1().Services(d.namespace).Delete(ctx, d.serviceName, metav1.DeleteOptions{}); err != nil {
		return err
	}
	return cluster.Client().AppsV1().Deployments(d.namespace).Delete(ctx, d.serviceName, metav1.DeleteOptions{})
}

// -----------------------------------------------------------------------------
// Private Functions
// -----------------------------------------------------------------------------

func sortedEnvArgs(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(env))
	for _, k := range keys {
		args = append(args, k+"="+env[k])
	}
	return args
}

// mergeEnv overlays updates onto an existing env list without touching the
// caller's map, so the same map can be applied to several roles in turn.
func mergeEnv(existing []corev1.EnvVar, updates map[string]string) []corev1.EnvVar {
	merged := make([]corev1.EnvVar, len(existing))
	copy(merged, existing)

	overridden := make(map[string]bool, len(updates))
	for i := range merged {
		if value, ok := updates[merged[i].Name]; ok {
			merged[i].Value = value
			overridden[merged[i].Name] = true
		}
	}
	for _, k := range sortedKeys(updates) {
		if overridden[k] {
			continue
		}
		merged = append(merged, corev1.EnvVar{Name: k, Value: updates[k]})
	}
	return merged
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
