package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-sysup/internal/device"
	"github.com/deploymenttheory/go-sysup/internal/param"
	"github.com/deploymenttheory/go-sysup/internal/services"
	"github.com/deploymenttheory/go-sysup/internal/types"
)

var updateCmd = &cobra.Command{
	Use:   "update [value]",
	Short: "Map the image extents and record them",
	Long: fmt.Sprintf(`Map the physical extents of %s and record them in the
parameter store, followed by the update flag.

The value is parsed as a decimal integer and must be 1. It defaults to 1.

Examples:
  # Record the current extent map
  sysup update

  # Use a different parameter store
  sysup update --param /tmp/param.bin`, types.TargetPath),

	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := "1"
		if len(args) == 1 {
			value = args[0]
		}
		return runUpdate(cmd.OutOrStdout(), value)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

// newUpdateService builds the update service over the configured param store
func newUpdateService() (*services.UpdateService, *param.FileStore, error) {
	store, err := param.Open(cfg.Param.Path, cfg.Param.Layout())
	if err != nil {
		return nil, nil, err
	}
	return services.NewUpdateService(device.Opener{}, store, logrus.StandardLogger()), store, nil
}

func runUpdate(w io.Writer, value string) error {
	svc, store, err := newUpdateService()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := svc.Store([]byte(value))
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(w, "Extent map of %s recorded in %s (%d bytes accepted)\n", svc.Path(), store.Path(), n)
	}
	return nil
}
