/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lireddit/apiserver/config"
	"github.com/lireddit/apiserver/internal/logger"
	"github.com/lireddit/apiserver/internal/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the lireddit GraphQL server",
	Long: `Starts the lireddit GraphQL server. Pending migrations are applied
before the listener opens; any startup failure exits with status 1.

	lireddit server
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, cfgErr := config.LoadConfig()
		log := logger.New(cfg.Env)
		if cfgErr != nil {
			log.Warn("config file ignored", slog.String("error", cfgErr.Error()))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(ctx, cfg, log)
		if err != nil {
			log.Error("failed to start server", slog.String("error", err.Error()))
			os.Exit(1)
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				log.Error("server error", slog.String("error", err.Error()))
				os.Exit(1)
			}
		case <-ctx.Done():
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("shutdown failed", slog.String("error", err.Error()))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
