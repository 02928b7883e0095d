package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contractsTemplate = `
contracts:
  lesson_plans:
    create_lesson_plan:
      endpoint: /api/lesson-plans
      method: POST
      request_schema:
        type: object
        required: [subject]
        properties:
          subject: {type: string}
      response_schema:
        type: object
        required: [id]
        properties:
          id: {type: integer}
      expected_status: 201
    get_lesson_plan:
      endpoint: /api/lesson-plans/{id}
      method: GET
      response_schema:
        type: object
      expected_status: 200
test_configuration:
  base_url: %s
  timeout: 2
  retry_attempts: 0
  parallel_tests: false
  save_reports: %t
  report_dir: %s
`

// writeContracts writes a contracts file targeting baseURL into a temp dir.
func writeContracts(t *testing.T, baseURL, reportDir string, saveReports bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contracts.yaml")
	doc := fmt.Sprintf(contractsTemplate, baseURL, saveReports, reportDir)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

// passingServer answers both operations with their expected statuses.
func passingServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
		}
		w.Write([]byte(`{"id":1}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunCommandAllPass(t *testing.T) {
	server := passingServer(t)
	reportDir := t.TempDir()
	contracts := writeContracts(t, server.URL, reportDir, true)

	out, err := execute(t, "run", contracts)
	require.NoError(t, err)
	assert.Contains(t, out, "Report written to")

	matches, globErr := filepath.Glob(filepath.Join(reportDir, "report-*.json"))
	require.NoError(t, globErr)
	assert.Len(t, matches, 1)
	assert.FileExists(t, filepath.Join(reportDir, "history.db"))
}

func TestRunCommandFailsBelowThreshold(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	contracts := writeContracts(t, server.URL, t.TempDir(), false)
	_, err := execute(t, "run", contracts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below threshold")
}

func TestRunCommandFailUnderFlagRelaxesThreshold(t *testing.T) {
	// One of two operations fails; with --fail-under 0.4 the run still
	// exits zero.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusBadRequest)
		}
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	contracts := writeContracts(t, server.URL, t.TempDir(), false)
	_, err := execute(t, "run", "--fail-under", "0.4", contracts)
	assert.NoError(t, err)
}

func TestRunCommandBaseURLFlagOverridesDocument(t *testing.T) {
	server := passingServer(t)
	// Document points nowhere; the flag redirects to the live server.
	contracts := writeContracts(t, "http://127.0.0.1:1", t.TempDir(), false)

	_, err := execute(t, "run", "--base-url", server.URL, contracts)
	assert.NoError(t, err)
}

func TestRunCommandRejectsConflictingParallelFlags(t *testing.T) {
	contracts := writeContracts(t, "http://127.0.0.1:1", t.TempDir(), false)
	_, err := execute(t, "run", "--parallel", "--no-parallel", contracts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot use both")
}

func TestRunCommandRejectsBadTimeout(t *testing.T) {
	contracts := writeContracts(t, "http://127.0.0.1:1", t.TempDir(), false)
	_, err := execute(t, "run", "--timeout", "soon", contracts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")
}

func TestRunCommandMissingFile(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestRunCommandEmptySuite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contracts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("contracts: {}\n"), 0644))

	out, err := execute(t, "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "declares no operations")
}

func TestRunCommandMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contracts.yaml")
	doc := `
contracts:
  things:
    broken:
      endpoint: /api/things
      method: TELEPORT
      response_schema: {type: object}
      expected_status: 200
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method")
}
