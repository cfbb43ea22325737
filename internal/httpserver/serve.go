package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/nmoram/newsdesk/internal/logutil"
)

// shutdownGrace bounds how long in-flight requests may run after the
// serve context is cancelled.
const shutdownGrace = time.Minute

// Serve runs handler on bind until ctx is cancelled, then drains
// in-flight requests before returning. The returned error is the first
// one the listener reported, or nil on a clean shutdown.
func Serve(ctx context.Context, bind string, handler http.Handler) error {
	server := http.Server{
		Handler:           handler,
		Addr:              bind,
		ReadTimeout:       time.Minute * 5,
		WriteTimeout:      time.Minute,
		ReadHeaderTimeout: time.Minute,
		IdleTimeout:       time.Minute * 5,
	}
	log := logutil.Acquire(ctx, "httpserver").With().Str("bind", bind).Logger()

	crashed := make(chan error, 1)
	go func() {
		log.Info().Msg("Accepting connections")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			crashed <- err
		}
		close(crashed)
	}()

	select {
	case err := <-crashed:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Draining connections")
	graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(graceCtx); err != nil {
		log.Warn().Err(err).Msg("Shutdown interrupted with requests still in flight")
	}
	// the listener goroutine exits once Shutdown returns, collect its
	// verdict so a racing accept error is not lost
	return <-crashed
}
