package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/exercise"
)

// NewConfigSampleCommand creates the config-sample command
func NewConfigSampleCommand() *cobra.Command {
	var (
		format string
		output string
		docs   bool
	)
	cmd := &cobra.Command{
		Use:   "config-sample",
		Short: "Print a runtime config file with every default filled in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := exercise.GenerateSampleConfig(&exercise.Config{}, format)
			if err != nil {
				return err
			}
			if docs {
				for _, d := range exercise.ConfigFieldDocs(exercise.Config{}) {
					cmd.PrintErrf("# %s: %s\n", d[0], d[1])
				}
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o600)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml, json, toml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&docs, "docs", false, "Describe each field on stderr")
	return cmd
}
