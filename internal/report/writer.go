package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/contractor/internal/filelock"
)

// Writer persists reports to a directory. Each run writes three renderings
// of the same report: report-<runid>.json (machine-readable),
// report-<runid>.md (human-readable), and report-<runid>.html rendered
// from the Markdown. Writes are lock-guarded and atomic so concurrent
// harness invocations sharing a report directory do not interleave.
type Writer struct {
	dir      string
	markdown goldmark.Markdown
}

// NewWriter creates a Writer targeting dir.
func NewWriter(dir string) *Writer {
	return &Writer{
		dir: dir,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Save writes all renderings of the report and returns the JSON path.
// A write failure does not invalidate the in-memory report; the caller
// reports it and carries on, since the run's verdict is independent of
// whether the report could be persisted.
func (w *Writer) Save(rep *Report) (string, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize report: %w", err)
	}

	base := "report-" + rep.RunID
	jsonPath := filepath.Join(w.dir, base+".json")
	if err := filelock.LockAndWrite(jsonPath, data); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	md := RenderMarkdown(rep)
	if err := filelock.LockAndWrite(filepath.Join(w.dir, base+".md"), []byte(md)); err != nil {
		return jsonPath, fmt.Errorf("failed to write markdown report: %w", err)
	}

	var html bytes.Buffer
	if err := w.markdown.Convert([]byte(md), &html); err != nil {
		return jsonPath, fmt.Errorf("failed to render html report: %w", err)
	}
	if err := filelock.LockAndWrite(filepath.Join(w.dir, base+".html"), html.Bytes()); err != nil {
		return jsonPath, fmt.Errorf("failed to write html report: %w", err)
	}

	return jsonPath, nil
}

// RenderMarkdown renders the human-readable report.
func RenderMarkdown(rep *Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Contract Test Report\n\n")
	fmt.Fprintf(&sb, "- Run: `%s`\n", rep.RunID)
	fmt.Fprintf(&sb, "- Started: %s\n", rep.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "- Duration: %s\n", rep.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&sb, "- Total: %d, Passed: %d, Failed: %d, Skipped: %d\n", rep.Total, rep.Passed, rep.Failed, rep.Skipped)
	fmt.Fprintf(&sb, "- Pass rate: %.1f%%\n\n", rep.PassRate*100)

	if len(rep.Categories) > 0 {
		fmt.Fprintf(&sb, "## Categories\n\n")
		fmt.Fprintf(&sb, "| Category | Total | Passed | Failed | Skipped |\n")
		fmt.Fprintf(&sb, "|---|---|---|---|---|\n")
		for _, cat := range rep.Categories {
			fmt.Fprintf(&sb, "| %s | %d | %d | %d | %d |\n", cat.Name, cat.Total, cat.Passed, cat.Failed, cat.Skipped)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "## Operations\n\n")
	for _, r := range rep.Results {
		status := "PASS"
		if r.Skipped {
			status = "SKIP"
		} else if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&sb, "- **%s** `%s %s` %s", status, r.Method, r.Endpoint, r.ID())
		if r.StatusCode != 0 {
			fmt.Fprintf(&sb, " (status %d, expected %d)", r.StatusCode, r.ExpectedStatus)
		}
		if r.Kind != "" {
			fmt.Fprintf(&sb, " [%s]", r.Kind)
		}
		sb.WriteString("\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "  - %s\n", e)
		}
	}

	return sb.String()
}
