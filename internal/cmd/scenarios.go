package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sclorg/postgresql-testing-framework/pkg/clusters/types/openshift"
	"github.com/sclorg/postgresql-testing-framework/pkg/scenarios"
)

// -----------------------------------------------------------------------------
// Scenarios - Base Command
// -----------------------------------------------------------------------------

func init() {
	rootCmd.AddCommand(scenariosCmd)
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "list and run the image validation scenarios",
}

// -----------------------------------------------------------------------------
// Scenarios - List Subcommand
// -----------------------------------------------------------------------------

func init() {
	scenariosCmd.AddCommand(scenariosListCmd)
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "list the scenarios in execution order",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range scenarios.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

// -----------------------------------------------------------------------------
// Scenarios - Run Subcommand
// -----------------------------------------------------------------------------

func init() {
	scenariosCmd.AddCommand(scenariosRunCmd)
	scenariosRunCmd.PersistentFlags().String("cluster-name", "openshift", "name for the target cluster")
	scenariosRunCmd.PersistentFlags().StringArray("only", nil, "run only the named scenarios (in their registered order)")
	scenariosRunCmd.PersistentFlags().Bool("push-candidate", false, "push the local candidate image into the cluster registry first")
}

var scenariosRunCmd = &cobra.Command{
	Use:   "run",
	Short: "run the scenario sequence against the current cluster",
	Run: func(cmd *cobra.Command, _ []string) {
		clusterName, err := cmd.PersistentFlags().GetString("cluster-name")
		cobra.CheckErr(err)

		only, err := cmd.PersistentFlags().GetStringArray("only")
		cobra.CheckErr(err)

		pushCandidate, err := cmd.PersistentFlags().GetBool("push-candidate")
		cobra.CheckErr(err)

		cfg := scenarios.Load()
		ctx := context.Background()

		cluster, err := openshift.NewFromEnv(clusterName)
		cobra.CheckErr(err)

		runner, err := scenarios.NewRunner(cfg, cluster)
		cobra.CheckErr(err)

		if pushCandidate {
			cobra.CheckErr(runner.PushCandidate(ctx, "openshift"))
		}

		selected, err := selectScenarios(only)
		cobra.CheckErr(err)

		cobra.CheckErr(runner.Run(ctx, selected...))
		fmt.Println("all scenarios passed")
	},
}

func selectScenarios(only []string) ([]scenarios.Scenario, error) {
	if len(only) == 0 {
		return scenarios.All(), nil
	}

	wanted := make(map[string]bool, len(only))
	for _, name := range only {
		wanted[name] = true
	}

	selected := make([]scenarios.Scenario, 0, len(only))
	for _, scenario := range scenarios.All() {
		if wanted[scenario.Name] {
			selected = append(selected, scenario)
			delete(wanted, scenario.Name)
		}
	}
	if len(wanted) > 0 {
		for name := range wanted {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
	}
	return selected, nil
}
