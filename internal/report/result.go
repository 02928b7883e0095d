// Package report collects per-operation verdicts and aggregates them into
// a durable run report.
package report

import "time"

// Kind classifies why an operation did not pass.
type Kind string

// Result kinds. An empty kind means the operation passed.
const (
	KindSchemaViolation     Kind = "SchemaViolation"
	KindStatusMismatch      Kind = "StatusMismatch"
	KindNetworkError        Kind = "NetworkError"
	KindTimeout             Kind = "Timeout"
	KindUnparsableResponse  Kind = "UnparsableResponse"
	KindUnsatisfiableSchema Kind = "UnsatisfiableSchema"
	KindSkipped             Kind = "Skipped"
)

// Result is the outcome of one operation's execution. It is immutable once
// produced and owned by the aggregator.
type Result struct {
	Category       string        `json:"category"`
	Operation      string        `json:"operation"`
	Method         string        `json:"method"`
	Endpoint       string        `json:"endpoint"`
	ExpectedStatus int           `json:"expected_status"`
	StatusCode     int           `json:"status_code,omitempty"`
	Passed         bool          `json:"passed"`
	Skipped        bool          `json:"skipped,omitempty"`
	Kind           Kind          `json:"kind,omitempty"`
	Errors         []string      `json:"errors,omitempty"`
	Elapsed        time.Duration `json:"elapsed_ns"`
	Retries        int           `json:"retries"`
}

// ID returns the operation identifier used in diagnostics.
func (r Result) ID() string {
	return r.Category + "/" + r.Operation
}

// Failed reports whether the operation executed and did not pass.
// Skipped operations are neither passed nor failed.
func (r Result) Failed() bool {
	return !r.Passed && !r.Skipped
}

// CategorySummary is the per-category breakdown in a report.
type CategorySummary struct {
	Name    string `json:"name"`
	Total   int    `json:"total"`
	Passed  int    `json:"passed"`
	Failed  int    `json:"failed"`
	Skipped int    `json:"skipped,omitempty"`
}

// Report is the aggregate outcome of one full run. It is created once by
// Aggregate and never mutated after serialization.
type Report struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	Elapsed    time.Duration     `json:"elapsed_ns"`
	Total      int               `json:"total"`
	Passed     int               `json:"passed"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	PassRate   float64           `json:"pass_rate"`
	Categories []CategorySummary `json:"categories"`
	Results    []Result          `json:"results"`
}
