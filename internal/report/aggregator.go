package report

import (
	"time"

	"github.com/google/uuid"
)

// Aggregate reduces ordered per-operation results into a Report.
//
// Results must already be in canonical order (category then declaration
// order); aggregation preserves it so two sequential runs against an
// unchanged server are byte-for-byte comparable modulo timestamps.
// The pass rate is passed over executed operations (skipped operations are
// counted in the total but take no side in pass/fail), and 0 when nothing
// executed, so an empty suite never divides by zero.
func Aggregate(results []Result, startedAt time.Time, elapsed time.Duration) *Report {
	rep := &Report{
		RunID:     uuid.NewString(),
		StartedAt: startedAt,
		Elapsed:   elapsed,
		Total:     len(results),
		Results:   results,
	}

	byCategory := make(map[string]*CategorySummary)
	var order []string

	for _, r := range results {
		summary, ok := byCategory[r.Category]
		if !ok {
			summary = &CategorySummary{Name: r.Category}
			byCategory[r.Category] = summary
			order = append(order, r.Category)
		}
		summary.Total++

		switch {
		case r.Skipped:
			rep.Skipped++
			summary.Skipped++
		case r.Passed:
			rep.Passed++
			summary.Passed++
		default:
			rep.Failed++
			summary.Failed++
		}
	}

	for _, name := range order {
		rep.Categories = append(rep.Categories, *byCategory[name])
	}

	if executed := rep.Passed + rep.Failed; executed > 0 {
		rep.PassRate = float64(rep.Passed) / float64(executed)
	}
	return rep
}
