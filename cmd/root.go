package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-sysup/internal/config"
	"github.com/deploymenttheory/go-sysup/internal/logging"
	"github.com/deploymenttheory/go-sysup/internal/sysup"
)

var (
	// Global flags
	configFile   string
	verbose      bool
	quiet        bool
	outputFormat string

	// Loaded once per invocation by the root pre-run
	settings *viper.Viper
	cfg      *config.Config
)

// configKeyAnnotation marks a flag as an override for a config key
const configKeyAnnotation = "sysup_config_key"

var rootCmd = &cobra.Command{
	Use:   "sysup",
	Short: "Record the boot image extent map for the bootloader",
	Long: `sysup maps the physical extents of the boot overlay image and records
them, together with an update flag, in the parameter store read by the
bootloader on the next boot.

Commands:
  update      Map the image extents and record them
  show        Decode what the parameter store currently holds
  serve       Mount the sec_sysup attribute directory
  version     Print the recorded image version
  config      Print the effective configuration`,
	Version:           "0.1.0-dev",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// A failed update exits with its errno so scripts can tell the kinds apart.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if sysup.KindOf(err) == sysup.KindUnknown {
		return 1
	}
	return int(sysup.Errno(err))
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default: sysup-config.yaml in ., ./config, $HOME/.sysup, /etc/sysup)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	flags.StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
	flags.String("param", "", "parameter store file")
	flags.Uint64("image-version", 0, "image version reported by the version attribute")

	bindTo(flags, "param", "param.path")
	bindTo(flags, "image-version", "version")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// bindTo records that flag name overrides config key
func bindTo(flags *pflag.FlagSet, name, key string) {
	cobra.CheckErr(flags.SetAnnotation(name, configKeyAnnotation, []string{key}))
}

// bindFlags binds every annotated flag in flags to its config key
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(flag *pflag.Flag) {
		keys, ok := flag.Annotations[configKeyAnnotation]
		if !ok || err != nil {
			return
		}
		err = v.BindPFlag(keys[0], flag)
	})
	return err
}

func loadConfig(cmd *cobra.Command, args []string) error {
	settings = config.New(configFile)
	if err := bindFlags(settings, cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	loaded, err := config.Load(settings)
	if err != nil {
		return err
	}
	cfg = loaded

	level := cfg.LogLevel
	switch {
	case verbose:
		level = logrus.DebugLevel.String()
	case quiet:
		level = logrus.ErrorLevel.String()
	}
	if err := logging.Setup(os.Stderr, level, cfg.LogFormat); err != nil {
		return err
	}

	sysup.SetVersion(cfg.Version)

	logrus.WithFields(logrus.Fields{
		logging.FieldEvent:   logging.EventConfig,
		logging.FieldConfig:  settings.ConfigFileUsed(),
		logging.FieldVersion: cfg.Version,
	}).Debug("configuration loaded")
	return nil
}
