package main

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/internal/server"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// storefront serve: HTTP, gRPC health, queue workers and scheduler.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server with its workers and scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		k, err := bootKernel(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := k.Close(context.Background()); err != nil {
				logger.Warn("shutdown: close failed", "error", err)
			}
		}()

		if err := repositories.EnsureIndexes(ctx, k.Mongo); err != nil {
			return err
		}
		return server.Start(ctx, k)
	},
}

// storefront route:list: print all named routes.
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		infos := kernel.RouteTable()
		if len(infos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No named routes registered.")
			return nil
		}

		sort.Slice(infos, func(i, j int) bool {
			if infos[i].Path != infos[j].Path {
				return infos[i].Path < infos[j].Path
			}
			return infos[i].Method < infos[j].Method
		})

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
