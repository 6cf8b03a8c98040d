package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const shutdownTimeout = 15 * time.Second

func NewServer(c context.Context, host string, port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      handler,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
}

// Serve runs server until c is cancelled, then shuts it down gracefully.
func Serve(c context.Context, server *http.Server) error {
	c, span := otel.Tracer.Start(c, "Serve")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "Serve").Logger()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str(log.KeyProcess, "start server").Msgf("start listening request at %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("error=%w occured while server is running", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		return nil
	case <-c.Done():
	}

	logger = logger.With().Str(log.KeyProcess, "shutdown server").Logger()
	logger.Info().Msg("received interuption signal shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("shutdown http server")
	return nil
}
