package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/segyhp/khaata-engine/internal/app"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the Demo Shop ledger (3 customers, 3 loans, 2 repayments)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, zl, err := setup()
		if err != nil {
			return err
		}
		defer zl.Sync()

		a, err := app.New(cmd.Context(), cfg, zl)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Seed(cmd.Context())
		if errors.Is(err, app.ErrAlreadySeeded) {
			zl.Info("demo ledger already present", zap.String("email", app.DemoEmail))
			return nil
		}
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}

		zl.Info("demo ledger seeded",
			zap.String("owner_id", result.OwnerID.String()),
			zap.String("email", app.DemoEmail),
			zap.Int("customers", result.Customers),
			zap.Int("loans", result.Loans),
			zap.Int("repayments", result.Repayments),
		)
		return nil
	},
}
