package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, runners map[string]Runner) (*Server, string) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	return &Server{
		HTTP:            &http.Server{Handler: mux},
		Listener:        lis,
		ShutdownTimeout: time.Second,
		Runners:         runners,
	}, "http://" + lis.Addr().String()
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	var stopped atomic.Bool
	s, base := newServer(t, map[string]Runner{
		"worker": func(ctx context.Context) error {
			<-ctx.Done()
			stopped.Store(true)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/ping")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body) == "pong"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, stopped.Load())
}

func TestRun_RunnerFailureStopsEverything(t *testing.T) {
	boom := errors.New("boom")
	var peerStopped atomic.Bool
	s, _ := newServer(t, map[string]Runner{
		"broken": func(context.Context) error { return boom },
		"peer": func(ctx context.Context) error {
			<-ctx.Done()
			peerStopped.Store(true)
			return nil
		},
	})

	err := s.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "server: broken")
	assert.True(t, peerStopped.Load())
}
