package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/contractor/internal/contract"
	"github.com/harrison/contractor/internal/executor"
	"github.com/harrison/contractor/internal/logger"
	"github.com/harrison/contractor/internal/report"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <contracts-file>",
		Short: "Execute a contract test run",
		Long: `Execute every operation declared in a contracts file against the
configured target server and write the aggregated report.

The test_configuration section of the contracts file supplies run
parameters; CLI flags override it.

Examples:
  contractor run contracts.yaml
  contractor run --base-url http://localhost:3000 contracts.yaml
  contractor run --parallel --max-workers 8 contracts.yaml
  contractor run --timeout 5s --fail-under 0.9 contracts.yaml
  contractor run --report-dir ./reports contracts.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runCommand,
	}

	cmd.Flags().String("base-url", "", "Target server base URL (overrides test_configuration)")
	cmd.Flags().String("timeout", "", "Per-request timeout (e.g. 5s, 1m)")
	cmd.Flags().Bool("parallel", false, "Execute operations on a bounded worker pool")
	cmd.Flags().Bool("no-parallel", false, "Force sequential execution (overrides test_configuration)")
	cmd.Flags().Int("max-workers", 0, "Worker pool size when parallel (0 = use config)")
	cmd.Flags().String("report-dir", "", "Directory for report output")
	cmd.Flags().Float64("fail-under", -1, "Pass-rate threshold for a zero exit code")
	cmd.Flags().Bool("verbose", false, "Show per-operation progress")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	suite, err := contract.LoadFile(args[0])
	if err != nil {
		return err
	}
	cfg := suite.Config

	// Build flag pointers for merge (only flags the user set)
	var baseURLPtr *string
	if cmd.Flags().Changed("base-url") {
		v, _ := cmd.Flags().GetString("base-url")
		baseURLPtr = &v
	}
	var timeoutPtr *time.Duration
	if cmd.Flags().Changed("timeout") {
		s, _ := cmd.Flags().GetString("timeout")
		timeout, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid timeout format %q: %w", s, err)
		}
		timeoutPtr = &timeout
	}
	if cmd.Flags().Changed("parallel") && cmd.Flags().Changed("no-parallel") {
		return fmt.Errorf("cannot use both --parallel and --no-parallel")
	}
	var parallelPtr *bool
	if cmd.Flags().Changed("parallel") {
		v, _ := cmd.Flags().GetBool("parallel")
		parallelPtr = &v
	} else if cmd.Flags().Changed("no-parallel") {
		v := false
		parallelPtr = &v
	}
	var maxWorkersPtr *int
	if cmd.Flags().Changed("max-workers") {
		v, _ := cmd.Flags().GetInt("max-workers")
		maxWorkersPtr = &v
	}
	var reportDirPtr *string
	if cmd.Flags().Changed("report-dir") {
		v, _ := cmd.Flags().GetString("report-dir")
		reportDirPtr = &v
	}
	var failUnderPtr *float64
	if cmd.Flags().Changed("fail-under") {
		v, _ := cmd.Flags().GetFloat64("fail-under")
		failUnderPtr = &v
	}

	cfg.MergeWithFlags(baseURLPtr, timeoutPtr, parallelPtr, maxWorkersPtr, reportDirPtr, failUnderPtr)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if suite.Len() == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Contracts file is valid but declares no operations.\n")
		return nil
	}

	logLevel := "info"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logLevel = "debug"
	}
	consoleLog := logger.NewConsoleLogger(os.Stdout, logLevel)

	// Bound the whole run: worst case per operation is the per-attempt
	// timeout plus the retry budget and backoff.
	deadline := runDeadline(cfg.Timeout, cfg.RetryAttempts, suite.Len())
	ctx, cancel := context.WithTimeout(cmd.Context(), deadline)
	defer cancel()

	orch := executor.NewOrchestrator(cfg, consoleLog)
	rep, err := orch.Run(ctx, suite)
	if err != nil {
		return fmt.Errorf("run aborted: %w", err)
	}

	if cfg.SaveReports {
		if path, saveErr := saveReport(cfg.ReportDir, rep); saveErr != nil {
			// A failed write never changes the run's verdict.
			fmt.Fprintf(cmd.OutOrStderr(), "Warning: %v\n", saveErr)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
		}
	}

	if rep.PassRate < cfg.FailUnder {
		return fmt.Errorf("pass rate %.1f%% below threshold %.1f%%", rep.PassRate*100, cfg.FailUnder*100)
	}
	return nil
}

// runDeadline computes the external deadline for a whole run from the
// per-operation worst case.
func runDeadline(timeout time.Duration, retryAttempts, operations int) time.Duration {
	perOperation := timeout*time.Duration(retryAttempts+1) + 2*time.Second
	deadline := perOperation * time.Duration(operations)
	if deadline < time.Minute {
		deadline = time.Minute
	}
	return deadline
}

// saveReport persists all report renderings and appends the run to the
// history database.
func saveReport(dir string, rep *report.Report) (string, error) {
	writer := report.NewWriter(dir)
	path, err := writer.Save(rep)
	if err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	history, err := report.OpenHistory(filepath.Join(dir, "history.db"))
	if err != nil {
		return path, fmt.Errorf("failed to open run history: %w", err)
	}
	defer history.Close()
	if err := history.Record(rep, path); err != nil {
		return path, fmt.Errorf("failed to record run history: %w", err)
	}
	return path, nil
}
