package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/exploremore-ph/exploremore/internal/logging"
)

// HTTPServer matches the *http.Server lifecycle methods.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type HTTPService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

func NewHTTPService(server HTTPServer, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve runs ListenAndServe until ctx is canceled, then shuts down with
// a fresh deadline since ctx is already done.
func (h *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *HTTPService) String() string { return "http-server" }

// Ticker calls fn every interval, and once at start. Errors are logged;
// only a panic makes suture restart it.
type Ticker struct {
	name     string
	interval time.Duration
	fn       func(context.Context) error
}

func NewTicker(name string, interval time.Duration, fn func(context.Context) error) *Ticker {
	return &Ticker{name: name, interval: interval, fn: fn}
}

func (t *Ticker) Serve(ctx context.Context) error {
	if t.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	t.run(ctx)
	tick := time.NewTicker(t.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			t.run(ctx)
		}
	}
}

func (t *Ticker) run(ctx context.Context) {
	if err := t.fn(ctx); err != nil && ctx.Err() == nil {
		logging.Warn().Err(err).Str("service", t.name).Msg("background task failed")
	}
}

func (t *Ticker) String() string { return t.name }
