package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sessionstore "shopping-assistant/internal/assistant/session-store"
	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/server"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  `Starts the chat API together with the health, readiness and metrics endpoints and the session sweeper.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		zapLog, log := newLogger(cfg.Logging)
		defer zapLog.Sync()

		a, err := buildApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		writeTimeout := config.GetDuration(cfg.Server.WriteTimeout)
		api := server.New(a.orchestrator, a.sessions, a.readiness, log).
			WithCatalog(a.phones, a.vocabulary).
			WithRequestTimeout(server.RequestTimeoutFor(writeTimeout))

		httpServer := &http.Server{
			Addr:         cfg.Server.Address,
			Handler:      api.Handler(),
			ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
			WriteTimeout: writeTimeout,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info("HTTP server listening", map[string]interface{}{"address": cfg.Server.Address})
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			sessionstore.RunSweeper(gctx, a.sessions, cfg.Sessions.SweepInterval(), log)
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("Shutdown signal received, draining requests", nil)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			log.Error("Server stopped with error", map[string]interface{}{"error": err.Error()})
			return err
		}
		log.Info("Server stopped gracefully", nil)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
