package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/database/seeders"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/migration"
)

// storefront migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending ops database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		fmt.Println("Running migrations…")
		applied, err := migration.New(database.DB).Run()
		for _, name := range applied {
			fmt.Println("  ✔", name)
		}
		if err == nil && len(applied) == 0 {
			fmt.Println("Nothing to migrate.")
		}
		return err
	},
}

// storefront migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		fmt.Println("Rolling back last batch…")
		reverted, err := migration.New(database.DB).Rollback()
		for _, name := range reverted {
			fmt.Println("  ↺", name)
		}
		if err == nil && len(reverted) == 0 {
			fmt.Println("Nothing to roll back.")
		}
		return err
	},
}

// storefront migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		statuses, err := migration.New(database.DB).Status()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "RAN\tBATCH\tMIGRATION")
		for _, s := range statuses {
			ran, batch := "No", "-"
			if s.Ran {
				ran, batch = "Yes", fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", ran, batch, s.Name)
		}
		return w.Flush()
	},
}

// storefront seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo users and products into the document store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := bootMongo(ctx); err != nil {
			return err
		}
		defer database.DisconnectMongo(ctx) //nolint:errcheck

		fmt.Println("Running seeders…")
		return seeders.RunAll(ctx, database.Mongo, os.Stdout)
	},
}

// storefront db:indexes
var dbIndexesCmd = &cobra.Command{
	Use:   "db:indexes",
	Short: "Create the document store indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := bootMongo(ctx); err != nil {
			return err
		}
		defer database.DisconnectMongo(ctx) //nolint:errcheck

		if err := repositories.EnsureIndexes(ctx, database.Mongo); err != nil {
			return err
		}
		fmt.Println("Indexes are in place.")
		return nil
	},
}
