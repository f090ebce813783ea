package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownHook runs while the server shuts down, e.g. to close the store
type ShutdownHook func(ctx context.Context) error

// GracefulShutdown runs a server until its context ends or a signal arrives, then
// drains requests and runs the registered hooks
type GracefulShutdown struct {
	server  *Server
	timeout time.Duration
	signals []os.Signal
	log     *zap.Logger

	mu    sync.Mutex
	hooks []ShutdownHook

	once sync.Once
	done chan struct{}
	err  error
}

// ShutdownConfig holds graceful shutdown configuration
type ShutdownConfig struct {
	Timeout time.Duration
	// Signals default to SIGINT and SIGTERM
	Signals []os.Signal
	Logger  *zap.Logger
}

// DefaultShutdownConfig returns default shutdown configuration
func DefaultShutdownConfig() *ShutdownConfig {
	return &ShutdownConfig{
		Timeout: 30 * time.Second,
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// NewGracefulShutdown creates a shutdown handler for server
func NewGracefulShutdown(server *Server, config *ShutdownConfig) *GracefulShutdown {
	if config == nil {
		config = DefaultShutdownConfig()
	}
	signals := config.Signals
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	log := config.Logger
	if log == nil {
		log = server.log
	}

	return &GracefulShutdown{
		server:  server,
		timeout: config.Timeout,
		signals: signals,
		log:     log,
		done:    make(chan struct{}),
	}
}

// RegisterHook adds a hook run after the server stops accepting requests
func (gs *GracefulShutdown) RegisterHook(hook ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, hook)
}

// Run serves until ctx is cancelled, a signal arrives, or the server fails
func (gs *GracefulShutdown) Run(ctx context.Context) error {
	if err := gs.server.Listen(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, gs.signals...)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		gs.log.Info("server listening", zap.String("addr", gs.server.Addr()))
		errCh <- gs.server.Start()
	}()

	select {
	case <-ctx.Done():
		gs.log.Info("shutdown requested")
		return gs.Shutdown()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return gs.Shutdown()
	}
}

// Shutdown drains the server and runs the hooks. Later calls wait for the first
// to finish and return its result.
func (gs *GracefulShutdown) Shutdown() error {
	gs.once.Do(func() {
		defer close(gs.done)

		ctx, cancel := context.WithTimeout(context.Background(), gs.timeout)
		defer cancel()

		if err := gs.server.Shutdown(ctx); err != nil {
			gs.err = fmt.Errorf("server shutdown error: %w", err)
			gs.log.Error("server shutdown failed", zap.Error(err))
		}

		gs.mu.Lock()
		hooks := append([]ShutdownHook(nil), gs.hooks...)
		gs.mu.Unlock()

		for i, hook := range hooks {
			if err := hook(ctx); err != nil {
				gs.log.Warn("shutdown hook failed", zap.Int("hook", i), zap.Error(err))
			}
		}
		gs.log.Info("server stopped", zap.Duration("timeout", gs.timeout))
	})

	<-gs.done
	return gs.err
}

// Wait blocks until shutdown is complete
func (gs *GracefulShutdown) Wait() error {
	<-gs.done
	return gs.err
}
