package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-sysup/internal/sysup"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the recorded image version",
	Long: `Print the image version recorded at startup, as the version attribute
reports it. The value comes from the version config key, the
SYSUP_VERSION environment variable or --image-version.`,

	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), sysup.FormatVersion(sysup.Version()))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
