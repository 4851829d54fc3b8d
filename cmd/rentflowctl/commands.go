package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rentflow-backend/internal/app"
	"rentflow-backend/internal/config"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/models"
)

// withApp builds the application from the --config flag, runs fn and
// releases everything afterwards.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	zl, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zl.Sync() //nolint:errcheck

	a, err := app.New(cmd.Context(), cfg, zl)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func checkOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-overdue-payments",
		Short: "Mark unpaid payments past the grace period as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				run, err := a.Overdue.Run(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %d payments as overdue, recalculated %d tenants.\n", run.Marked, run.Recalculated)
				return nil
			})
		},
	}
}

func importCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-csv",
		Short: "Reconcile a bank CSV export against a landlord's leases",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			landlordID, _ := cmd.Flags().GetInt("landlord")
			if landlordID <= 0 {
				return errors.New("--landlord must be a positive user id")
			}

			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			return withApp(cmd, func(a *app.App) error {
				result, err := a.Reconciliation.Import(cmd.Context(), string(raw), landlordID)
				if err != nil {
					return err
				}
				return printJSON(cmd, struct {
					Summary models.ReconciliationSummary `json:"summary"`
					Details *models.ReconciliationResult `json:"details"`
				}{result.Summary(), result})
			})
		},
	}
	cmd.Flags().String("file", "", "Bank CSV export to import")
	cmd.Flags().Int("landlord", 0, "Landlord user id owning the leases")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("landlord")
	return cmd
}

func recalculateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recalculate-trust-score",
		Short: "Recalculate trust scores for one tenant or all tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, _ := cmd.Flags().GetInt("tenant")
			all, _ := cmd.Flags().GetBool("all")
			if all == (tenantID > 0) {
				return errors.New("pass exactly one of --tenant or --all")
			}

			return withApp(cmd, func(a *app.App) error {
				if all {
					n, err := a.TrustScores.RecalculateAll(cmd.Context(), models.TriggerOnDemand)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Recalculated %d tenants.\n", n)
					return nil
				}

				score, err := a.TrustScores.Calculate(cmd.Context(), tenantID, models.TriggerOnDemand)
				if err != nil {
					return err
				}
				a.Logger.Info("trust score recalculated", zap.Int("tenant_id", tenantID), zap.Float64("trust_score", score))
				fmt.Fprintf(cmd.OutOrStdout(), "Tenant %d trust score: %.2f\n", tenantID, score)
				return nil
			})
		},
	}
	cmd.Flags().Int("tenant", 0, "Tenant user id")
	cmd.Flags().Bool("all", false, "Recalculate every tenant")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
