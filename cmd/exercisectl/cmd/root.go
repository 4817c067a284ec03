package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/exercise"
	"github.com/GoCodeAlone/exercise/feeders"
)

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// PrintVersion prints version information
func PrintVersion() string {
	return fmt.Sprintf("exercisectl v%s (commit: %s, built on: %s)", Version, Commit, Date)
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	locale     string
	verbose    bool
}

// NewRootCommand creates the root command for the exercisectl application
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:     "exercisectl",
		Short:   "exercisectl - Tools for authoring and playing interactive exercises",
		Version: Version,
		Long: `exercisectl validates exercise definitions, watches them while you edit,
and plays them in the terminal using the exercise runtime.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Runtime config file (yaml, json or toml)")
	flags.StringVarP(&opts.locale, "locale", "l", "", "Locale for messages, overrides the config file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewConfigSampleCommand())

	return cmd
}

// runtimeConfig loads the runtime config from --config and EXERCISE_*
// variables. --locale wins over both.
func (o *globalOptions) runtimeConfig() (exercise.Config, error) {
	var cfg exercise.Config
	chain, err := feeders.ConfigFeeders(o.configPath)
	if err != nil {
		return cfg, err
	}
	if err := feeders.LoadConfig(&cfg, chain...); err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if o.locale != "" {
		cfg.Locale = o.locale
	}
	return cfg, nil
}

// logger writes to w at debug level with --verbose and warn level otherwise.
func (o *globalOptions) logger(w io.Writer) exercise.Logger {
	base := exercise.NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
	if o.verbose {
		return exercise.NewLevelFilterLogger(base, "debug")
	}
	return exercise.NewLevelFilterLogger(base, "warn")
}
