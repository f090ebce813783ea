// Package server runs the API's HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server wraps http.Server with the listener it was started on
type Server struct {
	httpServer *http.Server
	config     *Config
	listener   net.Listener
	log        *zap.Logger
}

// Config holds server configuration
type Config struct {
	// Address is the listen address, e.g. "localhost:5000"
	Address string
	Handler http.Handler

	// CertFile and KeyFile enable TLS when both are set
	CertFile string
	KeyFile  string

	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	MaxHeaderBytes    int

	Logger *zap.Logger
}

// DefaultConfig returns server settings suitable for production
func DefaultConfig(handler http.Handler) *Config {
	return &Config{
		Address:           ":5000",
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// New creates a server. It does not listen until Start is called.
func New(config *Config) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("server config cannot be nil")
	}
	if config.Handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}
	if (config.CertFile == "") != (config.KeyFile == "") {
		return nil, fmt.Errorf("TLS needs both a certificate and a key file")
	}

	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              config.Address,
			Handler:           config.Handler,
			ReadTimeout:       config.ReadTimeout,
			WriteTimeout:      config.WriteTimeout,
			IdleTimeout:       config.IdleTimeout,
			ReadHeaderTimeout: config.ReadHeaderTimeout,
			MaxHeaderBytes:    config.MaxHeaderBytes,
			ErrorLog:          zap.NewStdLog(log.Named("http")),
		},
		config: config,
		log:    log,
	}, nil
}

// Listen binds the server's address. Start calls it when needed.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener
	return nil
}

// Start serves requests until the server is shut down. It returns nil after a
// graceful shutdown.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}

	var err error
	if s.config.CertFile != "" {
		err = s.httpServer.ServeTLS(s.listener, s.config.CertFile, s.config.KeyFile)
	} else {
		err = s.httpServer.Serve(s.listener)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Close immediately closes the server
func (s *Server) Close() error {
	return s.httpServer.Close()
}

// Addr returns the bound address once listening, else the configured one
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address
}
