// Package server exposes the translator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	readHeaderTimeout      = 15 * time.Second
	readTimeout            = 15 * time.Second
	idleTimeout            = 30 * time.Second
	serverShutdownDeadline = 5 * time.Second
)

// Options configures the HTTP surface
type Options struct {
	RateLimit float64 // Requests per second per client IP, 0 disables limiting
	RateBurst int
	// WriteTimeout must cover two helper invocations.
	WriteTimeout time.Duration
}

// NewRouter wires the handler and its middleware.
func NewRouter(h *Handler, opts Options) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+h.TranslatePath(), h.Translate)
	mux.HandleFunc("GET /healthz", h.Health)

	limited := withRateLimit(newClientLimiter(opts.RateLimit, opts.RateBurst), mux)

	return withRequestLog(withServerTiming(limited))
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, opts Options) error {
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 75 * time.Second
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start TCP listener on %v: %w", addr, err)
	}

	log.Info().
		Str("address", listener.Addr().String()).
		Msg("Listening on address")

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Serve(listener)
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownDeadline)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exited gracefully")

	return nil
}
