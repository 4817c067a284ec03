package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/exercise"
	"github.com/GoCodeAlone/exercise/feeders"
	"github.com/GoCodeAlone/exercise/schema"
)

// ErrInvalidDefinitions is returned when at least one file fails validation.
var ErrInvalidDefinitions = errors.New("invalid exercise definitions")

// NewValidateCommand creates the validate command
func NewValidateCommand(opts *globalOptions) *cobra.Command {
	var legacy bool
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate exercise definition files",
		Long: `Load each definition (YAML, TOML or JSON), apply defaults and check it
against the exercise schema. Warnings are printed but do not fail.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := schema.New()
			if err != nil {
				return err
			}
			checker := &definitionChecker{validator: v, legacy: legacy}
			failed := 0
			for _, path := range args {
				if !checker.check(cmd.Context(), cmd.OutOrStdout(), path) {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d failed", ErrInvalidDefinitions, failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&legacy, "legacy", true, "Accept the flat legacy definition layout")
	return cmd
}

// definitionChecker loads and validates definitions, reporting to a writer.
type definitionChecker struct {
	validator exercise.SchemaValidator
	legacy    bool
}

func (c *definitionChecker) load(path string) (*exercise.Definition, error) {
	var opts []feeders.DefinitionOption
	if c.legacy {
		opts = append(opts, feeders.WithMigrator(feeders.LegacyMigrator{}))
	}
	return feeders.LoadDefinition(path, opts...)
}

// check reports on path and returns whether it is valid.
func (c *definitionChecker) check(ctx context.Context, out io.Writer, path string) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	def, err := c.load(path)
	if err != nil {
		fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
		return false
	}
	res := c.validator.Validate(ctx, def)
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "WARN %s: %s\n", path, w)
	}
	if !res.Success {
		for _, e := range res.Errors {
			fmt.Fprintf(out, "FAIL %s: %s\n", path, e)
		}
		return false
	}
	fmt.Fprintf(out, "OK   %s (%s, %d options)\n", path, def.ID, len(def.Content.Options))
	return true
}
