package executor

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Server manages an optionally self-started target process and its
// readiness polling. When the harness runs against an already-running
// server only WaitHealthy is used.
type Server struct {
	client   *http.Client
	cmd      *exec.Cmd
	interval time.Duration
}

// NewServer creates a Server manager using the shared HTTP client.
func NewServer(client *http.Client) *Server {
	if client == nil {
		client = &http.Client{}
	}
	return &Server{
		client:   client,
		interval: 500 * time.Millisecond,
	}
}

// Start launches the target server command. The process is killed via
// Stop or when ctx is canceled.
func (s *Server) Start(ctx context.Context, command string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fmt.Errorf("server command is empty")
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server command %q: %w", command, err)
	}
	s.cmd = cmd
	return nil
}

// Stop terminates a self-started server, if any. Safe to call when no
// process was launched.
func (s *Server) Stop() {
	if s.cmd == nil || s.cmd.Process == nil {
		return
	}
	// Kill the process group so shell-spawned children go down too.
	syscall.Kill(-s.cmd.Process.Pid, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		s.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		syscall.Kill(-s.cmd.Process.Pid, syscall.SIGKILL)
		<-done
	}
	s.cmd = nil
}

// WaitHealthy polls url with GET until a 2xx arrives, up to attempts
// polls. Failure to reach health within the budget is infrastructure
// failure and aborts the run.
func (s *Server) WaitHealthy(ctx context.Context, url string, attempts int) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := sleep(ctx, s.interval); err != nil {
				return &HealthCheckError{URL: url, Attempts: i, LastErr: err}
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &HealthCheckError{URL: url, Attempts: i + 1, LastErr: err}
		}
		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("health endpoint returned status %d", resp.StatusCode)
	}
	return &HealthCheckError{URL: url, Attempts: attempts, LastErr: lastErr}
}
