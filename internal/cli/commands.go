// Package cli implements the billingctl operator commands.
package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/parking-billing/internal/app"
	"github.com/segyhp/parking-billing/internal/auth"
	"github.com/segyhp/parking-billing/internal/config"
	"github.com/segyhp/parking-billing/internal/domain"
	"github.com/segyhp/parking-billing/internal/repository"
	"github.com/segyhp/parking-billing/pkg/billing"
	"github.com/segyhp/parking-billing/pkg/utils"
	"github.com/spf13/cobra"
)

// ConfigLoader supplies configuration to commands that need it.
type ConfigLoader func() (*config.Config, error)

func NewRootCmd(load ConfigLoader) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "billingctl",
		Short:         "Parking billing operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		BalanceCmd(),
		MigrateCmd(load),
		TokenCmd(load),
	)
	return rootCmd
}

// BalanceCmd runs the billing calculator on terms given as flags.
func BalanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Compute a rental balance offline",
		Example: "  billingctl balance --start 2024-01-01 --rate 300 --as-of 2024-01-11 --paid 60\n" +
			"  billingctl balance --start 2024-01-01 --end 2024-02-15 --rate 300",
		RunE: func(cmd *cobra.Command, args []string) error {
			startFlag, _ := cmd.Flags().GetString("start")
			endFlag, _ := cmd.Flags().GetString("end")
			rateFlag, _ := cmd.Flags().GetString("rate")
			asOfFlag, _ := cmd.Flags().GetString("as-of")
			paidFlags, _ := cmd.Flags().GetStringSlice("paid")

			start, err := utils.ParseDate(startFlag)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			rate, err := utils.DecimalFromString(rateFlag)
			if err != nil {
				return fmt.Errorf("invalid --rate: %w", err)
			}

			terms := billing.Terms{StartDate: start, MonthlyRate: rate}
			if endFlag != "" {
				end, err := utils.ParseDate(endFlag)
				if err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
				terms.EndDate = &end
			}

			asOf := utils.DateOnly(time.Now())
			if asOfFlag != "" {
				if asOf, err = utils.ParseDate(asOfFlag); err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
			}
			if terms.IsOngoing() && asOf.Before(start) {
				return fmt.Errorf("--as-of must not be before --start")
			}

			payments := make([]billing.PaymentLine, 0, len(paidFlags))
			for _, raw := range paidFlags {
				amount, err := utils.DecimalFromString(raw)
				if err != nil {
					return fmt.Errorf("invalid --paid %q: %w", raw, err)
				}
				payments = append(payments, billing.PaymentLine{Amount: amount, Date: asOf})
			}

			balance, err := billing.Calculate(terms, payments, asOf)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(balance)
		},
	}

	cmd.Flags().String("start", "", "Rental start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Rental end date (YYYY-MM-DD), omit for an ongoing rental")
	cmd.Flags().String("rate", "", "Monthly rate")
	cmd.Flags().String("as-of", "", "Balance date for ongoing rentals (defaults to today)")
	cmd.Flags().StringSlice("paid", nil, "Payment amounts, repeatable")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("rate")

	return cmd
}

// MigrateCmd applies the schema to the configured database.
func MigrateCmd(load ConfigLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			db, err := app.InitDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.Migrate(cmd.Context(), db); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "schema applied (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}

// TokenCmd issues a bearer token for a tenant.
func TokenCmd(load ConfigLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a company user",
		RunE: func(cmd *cobra.Command, args []string) error {
			companyFlag, _ := cmd.Flags().GetString("company")
			userFlag, _ := cmd.Flags().GetString("user")
			role, _ := cmd.Flags().GetString("role")

			companyID, err := uuid.Parse(companyFlag)
			if err != nil {
				return fmt.Errorf("invalid --company: %w", err)
			}
			userID := uuid.New()
			if userFlag != "" {
				if userID, err = uuid.Parse(userFlag); err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
			}
			if !domain.IsKnownRole(role) {
				return fmt.Errorf("unknown role %q", role)
			}

			cfg, err := load()
			if err != nil {
				return err
			}

			token, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).
				Issue(domain.NewTenantContext(companyID, userID, role))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().String("company", "", "Company ID")
	cmd.Flags().String("user", "", "User ID (random when omitted)")
	cmd.Flags().String("role", domain.RoleManager, "Role: super_admin, admin, manager or viewer")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}
