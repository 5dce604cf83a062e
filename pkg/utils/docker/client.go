package docker

import (
	"context"

	"github.com/docker/docker/client"
)

// NewNegotiatedClient creates a docker client whose API version has been
// negotiated with the local daemon. Image tag and push operations need this
// on hosts where the daemon is older than the SDK default.
func NewNegotiatedClient(ctx context.Context, opts ...client.Opt) (*client.Client, error) {
	c, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, err
	}
	c.NegotiateAPIVersion(ctx)
	return c, nil
}
