package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chatd/internal/chat"
	"chatd/internal/httpapi"
	"chatd/internal/manager"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the model and serve the HTTP API",
		Example: "  chatd serve --model-path ~/models/mistral-7b-instruct.Q4_K_M.gguf\n" +
			"  chatd serve --config chatd.yaml --set n_ctx=4096",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	addModelFlags(cmd.Flags(), a)
	cmd.Flags().String("host", "", "Listen host (HOST)")
	cmd.Flags().Int("port", 0, "Listen port (PORT)")
	cmd.Flags().Duration("request-timeout", 0, "Per-request deadline, 0 disables (REQUEST_TIMEOUT, seconds)")
	cmd.Flags().String("cors-origins", "", "Comma separated allowed origins (CORS_ORIGINS)")
	cmd.Flags().String("nats-url", "", "Publish lifecycle events to this NATS server (NATS_URL)")
	return cmd
}

// serve runs until ctx is canceled or initialization fails. The listener
// starts first so health endpoints answer while the model loads.
func (a *app) serve(ctx context.Context) error {
	log := a.log
	mgr := manager.NewWithConfig(a.managerConfig())

	if a.cfg.NATSURL != "" {
		pub, closeFn, err := manager.NewNATSPublisher(a.cfg.NATSURL, a.cfg.NATSSubject, log)
		if err != nil {
			log.Warn().Err(err).Msg("lifecycle events disabled")
		} else {
			defer closeFn()
			mgr.SetEventPublisher(pub)
		}
	}

	svc := chat.NewService(mgr, log)
	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetRequestLogLevel(a.cfg.LogLevel)
	httpapi.SetMaxBodyBytes(a.cfg.MaxBodyBytes)
	httpapi.SetRequestTimeout(a.cfg.Timeout())
	httpapi.SetCORSOptions(len(a.cfg.CORSOrigins) > 0, a.cfg.CORSOrigins,
		[]string{http.MethodGet, http.MethodPost},
		[]string{"Content-Type", "Authorization", "X-Log-Level"})
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("chatd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()
	go func() {
		if err := mgr.Initialize(ctx); err != nil {
			errCh <- fmt.Errorf("model initialization: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("stopping")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	if err := mgr.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("model shutdown error")
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}
