package docker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/sirupsen/logrus"
)

// -----------------------------------------------------------------------------
// Public Functions - Registry Push
// -----------------------------------------------------------------------------

// PushToRegistry tags a locally built candidate image and pushes it into a
// cluster's exposed image registry under <registry>/<namespace>/<name>:<tag>.
// The provided token is the bearer token of the cluster session, which the
// integrated registry accepts as a password.
func PushToRegistry(ctx context.Context, localImage, registryHost, namespace, name, tag, token string) (string, error) {
	dockerc, err := NewNegotiatedClient(ctx, client.FromEnv)
	if err != nil {
		return "", fmt.Errorf("failed creating docker client: %w", err)
	}
	defer dockerc.Close()

	target := fmt.Sprintf("%s/%s/%s:%s", registryHost, namespace, name, tag)
	if err := dockerc.ImageTag(ctx, localImage, target); err != nil {
		return "", fmt.Errorf("failed tagging %s as %s: %w", localImage, target, err)
	}

	authJSON, err := json.Marshal(registry.AuthConfig{
		Username:      "unused",
		Password:      token,
		ServerAddress: registryHost,
	})
	if err != nil {
		return "", err
	}

	logrus.WithField("image", target).Info("pushing candidate image to cluster registry")
	resp, err := dockerc.ImagePush(ctx, target, image.PushOptions{
		RegistryAuth: base64.URLEncoding.EncodeToString(authJSON),
	})
	if err != nil {
		return "", fmt.Errorf("failed pushing %s: %w", target, err)
	}
	defer resp.Close()

	// the push endpoint reports errors mid-stream, not via the HTTP status
	decoder := json.NewDecoder(resp)
	for decoder.More() {
		var msg jsonmessage.JSONMessage
		if err := decoder.Decode(&msg); err != nil {
			return "", fmt.Errorf("failed reading push progress for %s: %w", target, err)
		}
		if msg.Error != nil {
			return "", fmt.Errorf("failed pushing %s: %s", target, msg.Error.Message)
		}
	}

	return target, nil
}
