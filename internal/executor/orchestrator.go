package executor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/harrison/contractor/internal/config"
	"github.com/harrison/contractor/internal/contract"
	"github.com/harrison/contractor/internal/report"
	"github.com/harrison/contractor/internal/sample"
	"github.com/harrison/contractor/internal/validator"
)

// State is the orchestrator's position in a run.
type State int

// Orchestrator states. Aborted is terminal and only reachable from
// ServerStarting/HealthChecking; a failing operation never aborts a run.
const (
	StateIdle State = iota
	StateServerStarting
	StateHealthChecking
	StateRunning
	StateAggregating
	StateDone
	StateAborted
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateServerStarting:
		return "server_starting"
	case StateHealthChecking:
		return "health_checking"
	case StateRunning:
		return "running"
	case StateAggregating:
		return "aggregating"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Logger defines the interface for logging run progress and results.
type Logger interface {
	LogRunStart(total int, parallel bool)
	LogOperationStart(def contract.Definition)
	LogResult(result report.Result)
	LogSummary(rep *report.Report)
}

// Orchestrator drives a full contract run: optional server start and
// health check, operation execution (sequential or pooled), and
// aggregation. All components read from the configuration handed to
// NewOrchestrator, never from process globals.
type Orchestrator struct {
	cfg       *config.Config
	generator *sample.Generator
	executor  *HTTPExecutor
	validator *validator.Validator
	server    *Server
	logger    Logger
	state     State
}

// NewOrchestrator wires an Orchestrator from configuration. The logger is
// optional and can be nil. One HTTP client (and its connection pool) is
// shared by the executor, the health check, and every worker.
func NewOrchestrator(cfg *config.Config, logger Logger) *Orchestrator {
	client := &http.Client{}
	return &Orchestrator{
		cfg:       cfg,
		generator: sample.NewGenerator(),
		executor:  NewHTTPExecutor(client, cfg.BaseURL, cfg.Timeout, cfg.RetryAttempts, nil),
		validator: validator.New(cfg.ValidateResponses),
		server:    NewServer(client),
		logger:    logger,
		state:     StateIdle,
	}
}

// State returns the orchestrator's current state.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes every operation in the suite and returns the aggregated
// report. The returned error is non-nil only for infrastructure failure
// (the server never became healthy); per-operation failures are captured
// in the report and the run proceeds to completion.
func (o *Orchestrator) Run(ctx context.Context, suite *contract.Suite) (*report.Report, error) {
	if suite == nil {
		return nil, fmt.Errorf("suite cannot be nil")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Graceful shutdown: SIGINT/SIGTERM cancels in-flight operations;
	// completed results are still aggregated and reported.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if o.cfg.ServerCommand != "" {
		o.state = StateServerStarting
		if err := o.server.Start(ctx, o.cfg.ServerCommand); err != nil {
			o.state = StateAborted
			return nil, err
		}
		defer o.server.Stop()

		o.state = StateHealthChecking
		healthURL := o.cfg.BaseURL + o.cfg.HealthEndpoint
		if err := o.server.WaitHealthy(ctx, healthURL, o.cfg.HealthAttempts); err != nil {
			o.state = StateAborted
			return nil, err
		}
	}

	o.state = StateRunning
	startedAt := time.Now()

	defs := suite.Definitions()
	if o.logger != nil {
		o.logger.LogRunStart(len(defs), o.cfg.Parallel)
	}

	var results []report.Result
	if o.cfg.Parallel {
		results = o.runParallel(ctx, defs)
	} else {
		results = o.runSequential(ctx, defs)
	}

	// Aggregating is always reached once Running completes, whatever the
	// individual verdicts were.
	o.state = StateAggregating
	rep := report.Aggregate(results, startedAt, time.Since(startedAt))
	if o.logger != nil {
		o.logger.LogSummary(rep)
	}

	o.state = StateDone
	return rep, nil
}

// runSequential executes operations strictly in category-then-declaration
// order, so two runs against an unchanged server diff cleanly.
func (o *Orchestrator) runSequential(ctx context.Context, defs []contract.Definition) []report.Result {
	results := make([]report.Result, len(defs))
	for i, def := range defs {
		results[i] = o.runOne(ctx, def)
		if o.logger != nil {
			o.logger.LogResult(results[i])
		}
	}
	return results
}

type indexedResult struct {
	index  int
	result report.Result
}

// runParallel executes operations on a bounded worker pool. Workers share
// the executor's HTTP client; the results slice is written only by the
// single collector loop, indexed by definition order, so the final report
// order is independent of completion order.
func (o *Orchestrator) runParallel(ctx context.Context, defs []contract.Definition) []report.Result {
	results := make([]report.Result, len(defs))

	semaphore := make(chan struct{}, o.cfg.MaxWorkers)
	resultsCh := make(chan indexedResult, len(defs))

	var wg sync.WaitGroup
	for i, def := range defs {
		select {
		case <-ctx.Done():
			// Global deadline hit before this operation launched: record
			// it as timed out rather than dropping it.
			resultsCh <- indexedResult{i, o.deadlineResult(def)}
			continue
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, def contract.Definition) {
			defer wg.Done()
			defer func() { <-semaphore }()
			resultsCh <- indexedResult{i, o.runOne(ctx, def)}
		}(i, def)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	for r := range resultsCh {
		results[r.index] = r.result
		if o.logger != nil {
			o.logger.LogResult(r.result)
		}
	}
	return results
}

// runOne performs generate -> execute -> validate for a single operation.
// Every outcome, including generator and transport failures, lands in a
// Result; nothing escalates past this function.
func (o *Orchestrator) runOne(ctx context.Context, def contract.Definition) report.Result {
	if o.logger != nil {
		o.logger.LogOperationStart(def)
	}
	if ctx.Err() != nil {
		return o.deadlineResult(def)
	}

	start := time.Now()

	if !o.cfg.GenerateSamples && def.HasRequestSchema() {
		// Without sample generation there is no valid body to send, so the
		// operation is skipped outright: not a pass, not a failure.
		res := o.baseResult(def)
		res.Skipped = true
		res.Kind = report.KindSkipped
		return res
	}

	var smp *sample.Sample
	var err error
	if o.cfg.GenerateSamples {
		smp, err = o.generator.Build(def.Endpoint, def.RequestSchema)
	} else {
		smp = &sample.Sample{PathParams: sample.PathParams(def.Endpoint)}
	}
	if err != nil {
		res := o.baseResult(def)
		res.Kind = report.KindUnsatisfiableSchema
		res.Errors = []string{err.Error()}
		res.Elapsed = time.Since(start)
		return res
	}

	obs, retries, err := o.executor.Execute(ctx, def, smp)
	if err != nil {
		res := o.baseResult(def)
		res.Kind = report.KindNetworkError
		if terr, ok := err.(*TransportError); ok && terr.Timeout() {
			res.Kind = report.KindTimeout
		} else if errTimeout(err) || ctx.Err() != nil {
			res.Kind = report.KindTimeout
		}
		if obs != nil {
			res.StatusCode = obs.StatusCode
		}
		res.Errors = []string{err.Error()}
		res.Retries = retries
		res.Elapsed = time.Since(start)
		return res
	}

	res := o.validator.Validate(def, obs.StatusCode, obs.Body)
	res.Retries = retries
	res.Elapsed = time.Since(start)
	return res
}

// baseResult seeds a failed Result with the operation's identity.
func (o *Orchestrator) baseResult(def contract.Definition) report.Result {
	return report.Result{
		Category:       def.Category,
		Operation:      def.Name,
		Method:         def.Method,
		Endpoint:       def.Endpoint,
		ExpectedStatus: def.ExpectedStatus,
	}
}

// deadlineResult records an operation cut off by the global deadline.
func (o *Orchestrator) deadlineResult(def contract.Definition) report.Result {
	res := o.baseResult(def)
	res.Kind = report.KindTimeout
	res.Errors = []string{"run deadline exceeded before operation completed"}
	return res
}
