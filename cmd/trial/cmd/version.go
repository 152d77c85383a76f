package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "trial version %s\n", version)
		fmt.Fprintln(cmd.OutOrStdout(), "Synthetic clinical trial simulation with Bayesian analysis")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
