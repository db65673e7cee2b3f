// Package httpserver runs an HTTP handler with signal-driven graceful
// shutdown. mesosctl only serves HTTP when running the mock master.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Server wraps http.Server with interrupt handling
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// New creates a new HTTP server for the given handler
func New(addr string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until the listener fails or the process receives SIGINT or
// SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server",
			slog.String("addr", s.server.Addr),
		)
		serverErrors <- s.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-quit:
		s.logger.Info("received shutdown signal",
			slog.String("signal", sig.String()),
		)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Error("graceful shutdown failed, closing",
				slog.String("error", err.Error()),
			)
			return s.server.Close()
		}

		s.logger.Info("server stopped gracefully")
	}

	return nil
}
