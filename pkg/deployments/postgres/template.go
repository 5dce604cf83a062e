package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/sclorg/postgresql-testing-framework/internal/command"
	"github.com/sclorg/postgresql-testing-framework/pkg/clusters"
	"github.com/sclorg/postgresql-testing-framework/pkg/clusters/types/openshift"
)

// -----------------------------------------------------------------------------
// PostgreSQL Deployment - Template Instantiation
// -----------------------------------------------------------------------------

// ocFor fetches the oc runner of an OpenShift-backed cluster. Template and
// deploymentconfig operations have no Kubernetes-level equivalent, so they
// are only available there.
func ocFor(cluster clusters.Cluster) (func(args ...string) command.Doer, error) {
	ocCluster, ok := cluster.(*openshift.Cluster)
	if !ok {
		return nil, fmt.Errorf("template operations require an openshift cluster, got type %s", cluster.Type())
	}
	return ocCluster.OC, nil
}

// deployTemplate instantiates the configured template file with the
// deployment's parameters: oc process renders it, the rendered objects are
// applied from stdin. Template files themselves stay opaque external
// resources.
func (d *Deployment) deployTemplate(ctx context.Context, cluster clusters.Cluster) error {
	oc, err := ocFor(cluster)
	if err != nil {
		return err
	}

	rendered, err := oc(d.processArgs()...).Output(ctx)
	if err != nil {
		return fmt.Errorf("failed processing template %s: %w", d.templateFile, err)
	}

	// catch a template that rendered garbage before handing it to the cluster
	var probe map[string]interface{}
	if err := yaml.Unmarshal(rendered, &probe); err != nil {
		return fmt.Errorf("template %s rendered unparseable output: %w", d.templateFile, err)
	}

	err = oc("-n", d.namespace, "apply", "-f", "-").WithStdin(bytes.NewReader(rendered)).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed applying processed template %s: %w", d.templateFile, err)
	}
	return nil
}

// processArgs renders the argv list for oc process, parameters sorted for
// stable invocations.
func (d *Deployment) processArgs() []string {
	params := map[string]string{
		"NAMESPACE":             d.namespace,
		"POSTGRESQL_VERSION":    d.version,
		"DATABASE_SERVICE_NAME": d.serviceName,
		"POSTGRESQL_USER":       d.credentials.User,
		"POSTGRESQL_PASSWORD":   d.credentials.Password,
		"POSTGRESQL_DATABASE":   d.credentials.Database,
	}
	if d.persistentStorage {
		params["VOLUME_CAPACITY"] = d.volumeSize
	}
	for k, v := range d.templateParams {
		params[k] = v
	}

	args := []string{"-n", d.namespace, "process", "-f", d.templateFile, "-o", "yaml"}
	for _, k := range sortedKeys(params) {
		args = append(args, "-p", k+"="+params[k])
	}
	return args
}

// patchTemplateImage swaps the container image of a deploymentconfig through
// a structured strategic merge patch.
func (d *Deployment) patchTemplateImage(ctx context.Context, cluster clusters.Cluster, name, image string) error {
	oc, err := ocFor(cluster)
	if err != nil {
		return err
	}

	patch, err := json.Marshal(map[string]interface{}{
		"spec": map[string]interface{}{
			"template": map[string]interface{}{
				"spec": map[string]interface{}{
					"containers": []map[string]interface{}{{
						"name":  name,
						"image": image,
					}},
				},
			},
		},
	})
	if err != nil {
		return err
	}

	err = oc("-n", d.namespace, "patch", "dc/"+name, "--type=strategic", "-p", string(patch)).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed patching dc/%s to image %s: %w", name, image, err)
	}
	d.image = image
	return nil
}
