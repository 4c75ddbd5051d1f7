// Package server runs the storefront process: the HTTP listener, the gRPC
// health endpoint, queue workers, the scheduler and housekeeping loops, all
// stopped together on the first failure or on shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/pkg/grpc"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

const (
	shutdownTimeout = 15 * time.Second
	probeInterval   = 10 * time.Second
)

// Runner is a background loop that returns once ctx is cancelled.
type Runner func(ctx context.Context) error

type Server struct {
	HTTP *http.Server
	// Listener overrides HTTP.Addr when set.
	Listener        net.Listener
	ShutdownTimeout time.Duration
	Runners         map[string]Runner
}

// Run serves until ctx is cancelled or any part fails, then drains every
// part. A clean shutdown returns nil.
func (s *Server) Run(ctx context.Context) error {
	lis := s.Listener
	if lis == nil {
		var err error
		if lis, err = net.Listen("tcp", s.HTTP.Addr); err != nil {
			return fmt.Errorf("server: listen on %s: %w", s.HTTP.Addr, err)
		}
	}
	timeout := s.ShutdownTimeout
	if timeout <= 0 {
		timeout = shutdownTimeout
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", lis.Addr().String())
		if err := s.HTTP.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("HTTP server shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.HTTP.Shutdown(sctx)
	})

	for name, run := range s.Runners {
		name, run := name, run
		g.Go(func() error {
			if err := run(gctx); err != nil {
				return fmt.Errorf("server: %s: %w", name, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Start serves the kernel's HTTP handler and runs its background parts.
func Start(ctx context.Context, k *kernel.Kernel) error {
	handler, err := k.Handler()
	if err != nil {
		return err
	}
	cfg := k.Config
	health := grpc.New()

	s := &Server{
		HTTP: &http.Server{
			Addr:              ":" + cfg.AppPort,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		Runners: map[string]Runner{
			"grpc": func(ctx context.Context) error {
				return health.ListenAndServe(ctx, cfg.GRPCPort)
			},
			"grpc-health": func(ctx context.Context) error {
				health.Watch(ctx, k.Ping, probeInterval)
				return nil
			},
			"queue": func(ctx context.Context) error {
				return k.Queue.Run(ctx, cfg.QueueWorkers)
			},
			"scheduler": k.Scheduler.Run,
			"rate-limit-sweep": func(ctx context.Context) error {
				k.Limiter.Sweep(ctx)
				return nil
			},
		},
	}
	return s.Run(ctx)
}
