/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"log/slog"

	"github.com/lireddit/apiserver/config"
	"github.com/lireddit/apiserver/internal/db"
	"github.com/lireddit/apiserver/internal/logger"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all embedded up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgErr := config.LoadConfig()
		log := logger.New(cfg.Env)
		if cfgErr != nil {
			log.Warn("config file ignored", slog.String("error", cfgErr.Error()))
		}

		version, err := db.Migrate(db.URL(cfg.Database))
		if err != nil {
			return err
		}
		log.Info("database migrated", slog.Uint64("version", uint64(version)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
}
