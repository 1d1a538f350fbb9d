package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jaimenoain/ceeq/internal/auth"
	"github.com/jaimenoain/ceeq/internal/convert"
	"github.com/jaimenoain/ceeq/internal/dashboard"
	"github.com/jaimenoain/ceeq/internal/httpapi"
	"github.com/jaimenoain/ceeq/internal/pipeline"
	"github.com/jaimenoain/ceeq/internal/sourcing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := newStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init store: %w", err)
		}
		defer st.Close()

		sessions, err := newSessions(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init sessions: %w", err)
		}
		defer sessions.Close()

		hasher, err := newHasher(cfg)
		if err != nil {
			return err
		}

		srv := httpapi.NewServer(httpapi.Options{
			Store:      st,
			Sessions:   sessions,
			Auth:       auth.New(st, sessions),
			Converter:  convert.New(st, hasher),
			Pipeline:   pipeline.New(st),
			Sourcing:   sourcing.New(st, cfg.Sourcing.BatchSize),
			Dashboard:  dashboard.New(st),
			CORSOrigin: cfg.Server.CORSOrigin,
		})

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("server listening",
				zap.Int("port", cfg.Server.Port),
				zap.String("store_driver", cfg.Store.Driver))
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("server: %w", err)
		case <-ctx.Done():
		}

		zap.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
