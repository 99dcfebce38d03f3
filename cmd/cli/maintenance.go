package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tkshop/catalog-service/internal/catalog"
	"github.com/tkshop/catalog-service/internal/jobs"
	"github.com/tkshop/catalog-service/internal/wxr"
)

var runsLimit int

var cleanColorsCmd = &cobra.Command{
	Use:   "clean-colors",
	Short: "Clear fabric descriptors stored as variant colors",
	Long: `Scan every variant and clear colors that are fabric or material descriptors
(for example "махра" or "хлопок") rather than colors. Variants whose cleared
identity would clash with an existing colorless variant are left alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		filter := wxr.NewColorFilter(cfg.Import.Options.ColorDenylist)
		n, err := catalog.CleanVariantColors(ctx, a.Stores.Catalog, filter.IsNonColor)
		if err != nil {
			return err
		}
		fmt.Printf("Cleaned %d variants\n", n)
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent import runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		records, total, err := a.Stores.Runs.List(ctx, runsLimit, 0)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "RUN ID\tTRIGGER\tSTATUS\tCREATED\tPROCESSED\tERRORS")
		fmt.Fprintln(w, "------\t-------\t------\t-------\t---------\t------")
		for _, r := range records {
			processed, errs := "-", "-"
			if r.Result != nil {
				processed = fmt.Sprint(r.Result.Processed)
				errs = fmt.Sprint(len(r.Result.Errors))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Trigger, strings.ToUpper(string(r.Status)),
				r.CreatedAt.Format("2006-01-02 15:04"), processed, errs)
		}
		w.Flush()
		fmt.Printf("%d of %d runs\n", len(records), total)
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run configured scheduled imports in the foreground",
	Long: `Start the cron scheduler with the imports from schedule.imports and the archive
cleanup job, and block until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		scheduler := jobs.NewScheduler(a.Runner, a.Archive)
		for _, job := range cfg.Schedule.Imports {
			if job.Options == nil {
				defaults := cfg.Import.Options
				job.Options = &defaults
			}
			if err := scheduler.AddImport(job); err != nil {
				return err
			}
		}
		if a.Archive != nil && cfg.Schedule.CleanupCron != "" {
			if err := scheduler.AddArchiveCleanup(cfg.Schedule.CleanupCron, cfg.Schedule.ArchiveCleanup); err != nil {
				return err
			}
		}
		if scheduler.Entries() == 0 {
			return fmt.Errorf("no scheduled jobs configured")
		}

		scheduler.Start()
		logger.Info().Int("jobs", scheduler.Entries()).Msg("Scheduler running, press Ctrl+C to stop")

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		<-scheduler.Stop().Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanColorsCmd, runsCmd, scheduleCmd)
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs to show")
}
