package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-sysup/internal/param"
	"github.com/deploymenttheory/go-sysup/internal/types"
	"github.com/deploymenttheory/go-sysup/pkg/app/report"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Decode what the parameter store currently holds",
	Long: `Decode the extent map and update flag recorded in the parameter store.

Examples:
  # Show as a table
  sysup show

  # Show as JSON
  sysup show -o json`,

	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShow(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(w io.Writer) error {
	store, err := param.Open(cfg.Param.Path, cfg.Param.Layout())
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := store.Get(types.ParamIndexFiemapResult)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", store.Path(), err)
	}
	flag, err := store.Get(types.ParamIndexFiemapUpdate)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", store.Path(), err)
	}

	r, err := report.FromPayload(store.Path(), result, flag)
	if err != nil {
		return err
	}
	return report.Format(w, r, outputFormat)
}
