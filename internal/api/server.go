package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"
)

const (
	READ_TIMEOUT     = 15 * time.Second
	WRITE_TIMEOUT    = 15 * time.Second
	IDLE_TIMEOUT     = 120 * time.Second
	SHUTDOWN_TIMEOUT = 5 * time.Second
)

type Server struct {
	Addr            string
	Handler         http.Handler
	MaxConnections  int
	ShutdownTimeout time.Duration
	Logger          *slog.Logger

	// Ready, when set, receives the bound address once the listener is open.
	Ready func(net.Addr)
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}
	if s.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, s.MaxConnections)
	}

	srv := &http.Server{
		Handler:      s.Handler,
		ReadTimeout:  READ_TIMEOUT,
		WriteTimeout: WRITE_TIMEOUT,
		IdleTimeout:  IDLE_TIMEOUT,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", listener.Addr().String(), "max_connections", s.MaxConnections)
		errChan <- srv.Serve(listener)
	}()

	if s.Ready != nil {
		s.Ready(listener.Addr())
	}

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	timeout := s.ShutdownTimeout
	if timeout <= 0 {
		timeout = SHUTDOWN_TIMEOUT
	}

	logger.Info("Shutting down HTTP server", "timeout", timeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
