package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/segyhp/khaata-engine/internal/config"
	"github.com/segyhp/khaata-engine/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "khaatactl",
	Short:         "Operational commands for the khaata ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(migrateCmd, seedCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	zl, err := logger.New(cfg.Logging.Level, "console")
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, zl, nil
}
