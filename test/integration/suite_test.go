//go:build integration_tests
// +build integration_tests

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/sclorg/postgresql-testing-framework/pkg/clusters"
	"github.com/sclorg/postgresql-testing-framework/pkg/clusters/types/openshift"
	"github.com/sclorg/postgresql-testing-framework/pkg/scenarios"
)

// -----------------------------------------------------------------------------
// Testing Vars & Consts
// -----------------------------------------------------------------------------

var (
	// ctx is a common context that can be used between tests
	ctx = context.Background()

	// cfg is the shared harness configuration loaded from the environment
	cfg *scenarios.Config

	// cluster is the OpenShift cluster every test deploys onto
	cluster clusters.Cluster
)

func TestMain(m *testing.M) {
	cfg = scenarios.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid test configuration:", err)
		os.Exit(1)
	}

	var err error
	cluster, err = openshift.NewFromEnv("openshift")
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not bind to the cluster:", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}
