// Package executor issues contract test requests against the target server
// and drives the overall run: health checking, sequential or pooled
// execution, and result collection.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harrison/contractor/internal/contract"
	"github.com/harrison/contractor/internal/sample"
)

// Observation is what the harness saw come back from the server for one
// operation: enough to validate, nothing more.
type Observation struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// HTTPExecutor issues one HTTP call per operation with a hard per-attempt
// timeout and bounded retry on transient failure. The underlying client and
// its connection pool are shared by all workers.
type HTTPExecutor struct {
	client        *http.Client
	baseURL       string
	timeout       time.Duration
	retryAttempts int
	backoff       Backoff
}

// NewHTTPExecutor creates an executor for the target at baseURL.
// A nil client gets a fresh one; a nil backoff gets DefaultBackoff.
func NewHTTPExecutor(client *http.Client, baseURL string, timeout time.Duration, retryAttempts int, backoff Backoff) *HTTPExecutor {
	if client == nil {
		client = &http.Client{}
	}
	if backoff == nil {
		backoff = DefaultBackoff
	}
	return &HTTPExecutor{
		client:        client,
		baseURL:       strings.TrimRight(baseURL, "/"),
		timeout:       timeout,
		retryAttempts: retryAttempts,
		backoff:       backoff,
	}
}

// Execute runs one operation and returns the observed response along with
// the number of retries actually used.
//
// Network-level failures and 5xx responses are retried up to retryAttempts
// additional times; never more than 1+retryAttempts calls are issued. A 4xx
// is terminal, not retried: it may legitimately be the expected status. A
// 5xx matching the contract's expected status is likewise terminal. After
// exhaustion the last 5xx observation is returned together with a
// TransportError so the caller can record both the status and the kind.
func (e *HTTPExecutor) Execute(ctx context.Context, def contract.Definition, smp *sample.Sample) (*Observation, int, error) {
	url, err := e.buildURL(def, smp)
	if err != nil {
		return nil, 0, err
	}

	var body []byte
	if smp != nil && smp.Body != nil && def.Method != http.MethodGet && def.Method != http.MethodHead {
		body, err = json.Marshal(smp.Body)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: failed to encode request body: %w", def.ID(), err)
		}
	}

	var lastObs *Observation
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= e.retryAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, e.backoff(attempt)); err != nil {
				break
			}
		}

		attempts++
		obs, err := e.attempt(ctx, def.Method, url, body)
		if err != nil {
			lastErr = err
			lastObs = nil
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if obs.StatusCode >= 500 && obs.StatusCode != def.ExpectedStatus {
			lastObs = obs
			lastErr = nil
			continue
		}

		return obs, attempt, nil
	}

	// Attempts reflects the calls actually issued: cancellation mid-run
	// exits the loop early, so this can be below 1+retryAttempts.
	terr := &TransportError{
		Operation: def.ID(),
		Attempts:  attempts,
		Err:       lastErr,
	}
	if ctx.Err() != nil && lastErr == nil {
		terr.Err = ctx.Err()
	}
	if lastObs != nil {
		terr.StatusCode = lastObs.StatusCode
	}
	retries := attempts - 1
	if retries < 0 {
		retries = 0
	}
	return lastObs, retries, terr
}

// attempt issues a single request under the per-attempt timeout.
func (e *HTTPExecutor) attempt(ctx context.Context, method, url string, body []byte) (*Observation, error) {
	attemptCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "contractor")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		// Surface deadline expiry as such so the result kind is Timeout,
		// not NetworkError.
		if attemptCtx.Err() != nil {
			err = fmt.Errorf("%w: %v", attemptCtx.Err(), err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Observation{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Header:     resp.Header,
	}, nil
}

// buildURL substitutes {param} placeholders from the sample into the
// endpoint template and prefixes the base URL. An unsubstituted placeholder
// means the generator and template disagree; that fails the operation.
func (e *HTTPExecutor) buildURL(def contract.Definition, smp *sample.Sample) (string, error) {
	endpoint := def.Endpoint
	if smp != nil {
		for name, value := range smp.PathParams {
			endpoint = strings.ReplaceAll(endpoint, "{"+name+"}", value)
		}
	}
	if strings.ContainsAny(endpoint, "{}") {
		return "", fmt.Errorf("%s: endpoint %s has unresolved path parameters", def.ID(), endpoint)
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return e.baseURL + endpoint, nil
}

// errTimeout reports whether err stems from a deadline expiry.
func errTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
