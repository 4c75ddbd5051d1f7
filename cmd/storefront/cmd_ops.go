package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/auth"
)

// repairHistoryLimit caps the audit rows printed by rating:repair --product.
const repairHistoryLimit = 10

var (
	repairProductFlag string
	tokenUserFlag     string
	tokenRoleFlag     string
	tokenTTLFlag      time.Duration
)

// storefront rating:repair [--product id]
var ratingRepairCmd = &cobra.Command{
	Use:   "rating:repair",
	Short: "Recompute drifted average ratings from their counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		var productID primitive.ObjectID
		if repairProductFlag != "" {
			id, err := primitive.ObjectIDFromHex(repairProductFlag)
			if err != nil {
				return fmt.Errorf("invalid --product %q: %w", repairProductFlag, err)
			}
			productID = id
		}

		ctx, stop := signalContext()
		defer stop()

		k, err := bootKernel(ctx)
		if err != nil {
			return err
		}
		defer k.Close(context.Background()) //nolint:errcheck

		if !productID.IsZero() {
			repaired, err := k.Repairer.Repair(ctx, productID, services.RepairByCLI)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if repaired {
				fmt.Fprintln(out, "Average repaired for", productID.Hex())
			} else {
				fmt.Fprintln(out, "Average already consistent for", productID.Hex())
			}

			history, err := k.Repairer.History(ctx, productID, repairHistoryLimit)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "REPAIRED AT\tSOURCE\tOLD\tNEW\tTOTAL\tCOUNT")
			for _, row := range history {
				fmt.Fprintf(w, "%s\t%s\t%.1f\t%.1f\t%d\t%d\n",
					row.RepairedAt.Format(time.RFC3339), row.Source, row.OldAverage, row.NewAverage, row.Total, row.Count)
			}
			return w.Flush()
		}

		n, err := k.Repairer.RepairAll(ctx)
		fmt.Printf("Repaired %d product(s).\n", n)
		return err
	},
}

// storefront catalog:export
var catalogExportCmd = &cobra.Command{
	Use:   "catalog:export",
	Short: "Write the catalog with ratings to the configured storage disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		k, err := bootKernel(ctx)
		if err != nil {
			return err
		}
		defer k.Close(context.Background()) //nolint:errcheck

		url, n, err := k.Exporter.Export(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d product(s) to %s\n", n, url)
		return nil
	},
}

// storefront token:issue --user id --role client
var tokenIssueCmd = &cobra.Command{
	Use:   "token:issue",
	Short: "Mint a bearer token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := primitive.ObjectIDFromHex(tokenUserFlag)
		if err != nil {
			return fmt.Errorf("invalid --user %q: %w", tokenUserFlag, err)
		}
		switch tokenRoleFlag {
		case models.RoleClient, models.RoleVendor, models.RoleAdmin:
		default:
			return fmt.Errorf("invalid --role %q: want client, vendor or admin", tokenRoleFlag)
		}
		if _, err := loadConfig(); err != nil {
			return err
		}

		token, err := auth.GenerateToken(userID, tokenRoleFlag, tokenTTLFlag)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	ratingRepairCmd.Flags().StringVar(&repairProductFlag, "product", "", "Repair a single product id")

	tokenIssueCmd.Flags().StringVar(&tokenUserFlag, "user", "", "User id (hex)")
	tokenIssueCmd.Flags().StringVar(&tokenRoleFlag, "role", models.RoleClient, "Role: client, vendor or admin")
	tokenIssueCmd.Flags().DurationVar(&tokenTTLFlag, "ttl", 24*time.Hour, "Token lifetime")
	_ = tokenIssueCmd.MarkFlagRequired("user")
}
