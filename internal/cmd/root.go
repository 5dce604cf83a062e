package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgtf",
	Short: "PostgreSQL image testing framework for OpenShift",
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
