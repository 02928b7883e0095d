package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for contractor
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contractor",
		Short: "Schema-driven API contract testing harness",
		Long: `Contractor proves that declared API contracts are observably satisfied.

It loads contract definitions (endpoint, method, request/response JSON
Schemas, expected status), synthesizes valid sample requests, executes
them against a running server with bounded retries, validates responses
structurally and by status code, and writes a durable aggregated report.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
