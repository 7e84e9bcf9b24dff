/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lireddit/apiserver/config"
	"github.com/lireddit/apiserver/internal/logger"
	"github.com/lireddit/apiserver/internal/mq"
	"github.com/lireddit/apiserver/internal/services"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect domain events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log every event published on the configured channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgErr := config.LoadConfig()
		log := logger.New(cfg.Env)
		if cfgErr != nil {
			log.Warn("config file ignored", slog.String("error", cfgErr.Error()))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		backend, err := mq.NewBackend(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if backend == nil {
			return fmt.Errorf("no event backend configured, set MQ_BACKEND")
		}
		publisher := mq.NewEventPublisher(mq.New(backend), cfg.MQ.Channel)
		defer publisher.Close()

		err = publisher.Subscribe(ctx, func(_ context.Context, event services.Event) error {
			log.Info("event",
				slog.String("type", event.Type),
				slog.Int("entity_id", event.EntityID),
				slog.String("occurred_at", event.OccurredAt.Format(time.RFC3339)))
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
