package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, config file, environment and
flags have been applied. Table output is rendered as YAML.`,

	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printConfig(cmd.OutOrStdout(), outputFormat)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func printConfig(w io.Writer, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	case "yaml", "table", "":
		if used := settings.ConfigFileUsed(); used != "" && !quiet {
			fmt.Fprintf(w, "# config file: %s\n", used)
		}
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(cfg)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
