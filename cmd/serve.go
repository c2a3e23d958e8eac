package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-sysup/internal/attr"
	"github.com/deploymenttheory/go-sysup/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Mount the sec_sysup attribute directory",
	Long: fmt.Sprintf(`Mount a FUSE attribute directory with two files:

  %-18s  write 1 to map the image extents and record them
  %-18s  read the recorded image version

Runs until interrupted, then unmounts.

Examples:
  sysup serve --mountpoint /run/sysup/sec_sysup
  echo 1 > /run/sysup/sec_sysup/%s`, attr.UpdateAttr, attr.VersionAttr, attr.UpdateAttr),

	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("mountpoint", "", "attribute directory mountpoint")
	serveCmd.Flags().Bool("allow-other", false, "allow other users to access the mount")

	bindTo(serveCmd.Flags(), "mountpoint", "attr.mountpoint")
	bindTo(serveCmd.Flags(), "allow-other", "attr.allow_other")
}

func runServe(ctx context.Context) error {
	svc, store, err := newUpdateService()
	if err != nil {
		return err
	}
	defer store.Close()

	server, err := attr.Mount(attr.Options{
		Mountpoint: cfg.Attr.Mountpoint,
		Updater:    svc,
		AllowOther: cfg.Attr.AllowOther,
		Logger:     logrus.StandardLogger(),
	})
	if err != nil {
		return err
	}

	<-ctx.Done()

	if err := server.Unmount(); err != nil {
		return fmt.Errorf("failed to unmount %s: %w", cfg.Attr.Mountpoint, err)
	}
	logrus.WithFields(logrus.Fields{
		logging.FieldEvent:      logging.EventUmount,
		logging.FieldMountpoint: cfg.Attr.Mountpoint,
	}).Info("attribute directory unmounted")
	return nil
}
