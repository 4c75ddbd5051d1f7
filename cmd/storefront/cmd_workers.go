package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

var (
	queueWorkersFlag int
	failedLimitFlag  int
)

// storefront queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start queue workers without the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		k, err := bootKernel(ctx)
		if err != nil {
			return err
		}
		defer k.Close(context.Background()) //nolint:errcheck

		if k.Config.QueueDriver != "redis" {
			fmt.Println("QUEUE_DRIVER is not redis: this worker only sees jobs dispatched in this process.")
		}

		workers := queueWorkersFlag
		if workers < 1 {
			workers = k.Config.QueueWorkers
		}

		fmt.Printf("🚀 Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		err = k.Queue.Run(ctx, workers)
		fmt.Println("\n⚡ Queue worker stopped.")
		return err
	},
}

// storefront queue:failed
var queueFailedCmd = &cobra.Command{
	Use:   "queue:failed",
	Short: "List jobs that exhausted their retries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		rows, err := queue.ListFailed(cmd.Context(), database.DB, failedLimitFlag)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("No failed jobs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tFAILED AT\tTYPE\tATTEMPTS\tERROR")
		for _, r := range rows {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", r.ID, r.FailedAt.Format("2006-01-02 15:04:05"), r.JobType, r.Attempts, r.Error)
		}
		return w.Flush()
	},
}

// storefront schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Start the task scheduler without the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		k, err := bootKernel(ctx)
		if err != nil {
			return err
		}
		defer k.Close(context.Background()) //nolint:errcheck

		tasks := k.Scheduler.List()
		if len(tasks) == 0 {
			fmt.Println("No scheduled tasks registered.")
		} else {
			fmt.Println("Registered scheduled tasks:")
			for _, t := range tasks {
				fmt.Println("  •", t)
			}
		}

		fmt.Println("🕐 Scheduler started. Press Ctrl+C to stop.")
		err = k.Scheduler.Run(ctx)
		fmt.Println("\n⚡ Scheduler stopped.")
		return err
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "Number of concurrent workers (default QUEUE_WORKERS)")
	queueFailedCmd.Flags().IntVarP(&failedLimitFlag, "limit", "n", 20, "Number of rows to show")
}
