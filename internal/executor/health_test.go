package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitHealthyImmediate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewServer(server.Client())
	assert.NoError(t, s.WaitHealthy(context.Background(), server.URL+"/health", 3))
}

func TestWaitHealthyEventually(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewServer(server.Client())
	s.interval = time.Millisecond
	assert.NoError(t, s.WaitHealthy(context.Background(), server.URL+"/health", 10))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWaitHealthyExhaustsAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := NewServer(server.Client())
	s.interval = time.Millisecond
	err := s.WaitHealthy(context.Background(), server.URL+"/health", 4)

	require.True(t, IsHealthCheckError(err))
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Contains(t, err.Error(), "status 503")
}

func TestWaitHealthyUnreachable(t *testing.T) {
	s := NewServer(nil)
	s.interval = time.Millisecond
	err := s.WaitHealthy(context.Background(), "http://127.0.0.1:1/health", 2)
	require.True(t, IsHealthCheckError(err))
}

func TestServerStartAndStop(t *testing.T) {
	s := NewServer(nil)
	require.NoError(t, s.Start(context.Background(), "sleep 30"))
	require.NotNil(t, s.cmd)
	s.Stop()
	assert.Nil(t, s.cmd)
}

func TestServerStartEmptyCommand(t *testing.T) {
	s := NewServer(nil)
	assert.Error(t, s.Start(context.Background(), "  "))
}

func TestServerStopWithoutStart(t *testing.T) {
	s := NewServer(nil)
	s.Stop()
}
