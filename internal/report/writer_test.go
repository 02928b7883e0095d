package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	results := []Result{
		{Category: "lesson_plans", Operation: "create", Method: "POST", Endpoint: "/api/lesson-plans", ExpectedStatus: 201, StatusCode: 201, Passed: true, Elapsed: 12 * time.Millisecond},
		{Category: "lesson_plans", Operation: "get", Method: "GET", Endpoint: "/api/lesson-plans/{id}", ExpectedStatus: 200, StatusCode: 500, Kind: KindStatusMismatch, Errors: []string{"expected status 200, got 500"}, Retries: 3},
	}
	return Aggregate(results, time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC), 40*time.Millisecond)
}

func TestWriterSave(t *testing.T) {
	dir := t.TempDir()
	rep := sampleReport()

	path, err := NewWriter(dir).Save(rep)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".json"))

	// JSON rendering round-trips
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded Report
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, rep.RunID, loaded.RunID)
	assert.Equal(t, rep.Total, loaded.Total)
	assert.Len(t, loaded.Results, 2)

	// Markdown and HTML renderings sit alongside
	base := strings.TrimSuffix(path, ".json")
	md, err := os.ReadFile(base + ".md")
	require.NoError(t, err)
	assert.Contains(t, string(md), "Contract Test Report")
	assert.Contains(t, string(md), "lesson_plans/get")

	html, err := os.ReadFile(base + ".html")
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1")
}

func TestWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	_, err := NewWriter(dir).Save(sampleReport())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(sampleReport())

	assert.Contains(t, md, "Total: 2, Passed: 1, Failed: 1")
	assert.Contains(t, md, "Pass rate: 50.0%")
	assert.Contains(t, md, "| lesson_plans | 2 | 1 | 1 | 0 |")
	assert.Contains(t, md, "**FAIL** `GET /api/lesson-plans/{id}`")
	assert.Contains(t, md, "[StatusMismatch]")
	assert.Contains(t, md, "expected status 200, got 500")
}
