package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/contractor/internal/contract"
	"github.com/harrison/contractor/internal/sample"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <contracts-file>",
		Short: "Validate a contracts file without executing tests",
		Long: `Load and lint a contracts file: required fields, recognized HTTP
verbs, schema parseability, and a sample-synthesis preflight for every
request schema. No requests are issued.

Examples:
  contractor validate contracts.yaml
  contractor validate --verbose contracts.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: validateCommand,
	}

	cmd.Flags().Bool("verbose", false, "List every operation while validating")

	return cmd
}

// validateCommand implements the validate command logic
func validateCommand(cmd *cobra.Command, args []string) error {
	suite, err := contract.LoadFile(args[0])
	if err != nil {
		return err
	}
	if err := suite.Config.Validate(); err != nil {
		return fmt.Errorf("invalid test_configuration: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	generator := sample.NewGenerator()

	// Sample-synthesis preflight: a schema the generator cannot satisfy
	// would fail at run time; surface it here instead.
	problems := 0
	for _, def := range suite.Definitions() {
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s (%s) expects %d\n", def.Method, def.Endpoint, def.ID(), def.ExpectedStatus)
		}
		if _, err := generator.Build(def.Endpoint, def.RequestSchema); err != nil {
			problems++
			fmt.Fprintf(cmd.OutOrStdout(), "  WARN %s: %v\n", def.ID(), err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Contracts file is valid: %d categories, %d operations.\n",
		len(suite.Categories), suite.Len())
	if problems > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d operation(s) have schemas the sample generator cannot satisfy.\n", problems)
	}
	return nil
}
