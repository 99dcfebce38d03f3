package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tkshop/catalog-service/config"
	"github.com/tkshop/catalog-service/internal/importer"
	"github.com/tkshop/catalog-service/internal/pipeline"
	"github.com/tkshop/catalog-service/internal/report"
	"github.com/tkshop/catalog-service/internal/runs"
)

var (
	importDryRun     bool
	importReport     string
	importUpdate     bool
	importSkip       bool
	importAllVariant bool
	importNoCreate   bool
	importPricing    string
	importCurrency   string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file|url>...",
	Short: "Import products from WXR documents",
	Long: `Import one or more WordPress WXR exports into the catalog. Arguments are local
file paths or http(s) URLs; documents are processed in the order given so that
attachments from an earlier document resolve images in a later one.

Use --dry-run to run against an in-memory catalog and only print the tally.`,
	Example: `  catalog import export.xml
  catalog import media.xml products.xml --update-existing
  catalog import https://shop.example/export.xml --dry-run --report run.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	f := importCmd.Flags()
	f.BoolVar(&importDryRun, "dry-run", false, "Import into an in-memory catalog that is discarded afterwards")
	f.StringVar(&importReport, "report", "", "Write an XLSX run report to this path")
	f.BoolVar(&importUpdate, "update-existing", false, "Update products that already exist")
	f.BoolVar(&importSkip, "skip-invalid", false, "Continue past items that fail")
	f.BoolVar(&importAllVariant, "all-variants", true, "Create every color x size combination")
	f.BoolVar(&importNoCreate, "no-create-categories", false, "Fail items whose category does not exist")
	f.StringVar(&importPricing, "pricing", "", "Pricing strategy (explicit-meta-order, area-multiplier, fixed-base)")
	f.StringVar(&importCurrency, "currency", "", "Currency code for new products")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if importDryRun {
		cfg.Database.Driver = config.DriverMemory
		cfg.Import.Archive = false
	}

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := importOptions(cmd)
	rec, err := a.Runner.Run(ctx, runs.TriggerCLI, sourcesFromArgs(args), opts)
	if err != nil {
		return err
	}

	displayRun(rec)

	if importReport != "" {
		if err := report.WriteXLSXFile(importReport, rec); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info().Str("path", importReport).Msg("Report written")
	}

	if rec.Status != runs.StatusCompleted {
		return fmt.Errorf("import %s", rec.Status)
	}
	return nil
}

func importOptions(cmd *cobra.Command) importer.Options {
	opts := cfg.Import.Options
	f := cmd.Flags()
	if f.Changed("update-existing") {
		opts.UpdateExisting = importUpdate
	}
	if f.Changed("skip-invalid") {
		opts.SkipInvalid = importSkip
	}
	if f.Changed("all-variants") {
		opts.CreateAllVariants = importAllVariant
	}
	if f.Changed("no-create-categories") {
		opts.AutoCreateCategories = !importNoCreate
	}
	if importPricing != "" {
		opts.Pricing = importPricing
	}
	if importCurrency != "" {
		opts.DefaultCurrency = strings.ToUpper(importCurrency)
	}
	return opts
}

func sourcesFromArgs(args []string) []pipeline.Source {
	sources := make([]pipeline.Source, 0, len(args))
	for _, arg := range args {
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			sources = append(sources, pipeline.Source{URL: arg})
			continue
		}
		sources = append(sources, pipeline.Source{Path: arg})
	}
	return sources
}

func displayRun(rec *runs.Record) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "RUN ID\t%s\n", rec.ID)
	fmt.Fprintf(w, "STATUS\t%s\n", strings.ToUpper(string(rec.Status)))
	for _, s := range rec.Sources {
		fmt.Fprintf(w, "SOURCE\t%s (%d bytes)\n", s.Name, s.Size)
	}

	if rec.Result == nil {
		fmt.Fprintf(w, "ERROR\t%s\n", rec.Error)
		w.Flush()
		return
	}

	r := rec.Result
	fmt.Fprintf(w, "PROCESSED\t%d\n", r.Processed)
	fmt.Fprintf(w, "CREATED\t%d\n", r.Created)
	fmt.Fprintf(w, "UPDATED\t%d\n", r.Updated)
	fmt.Fprintf(w, "VARIANTS CREATED\t%d\n", r.VariantsCreated)
	fmt.Fprintf(w, "VARIANTS UPDATED\t%d\n", r.VariantsUpdated)
	fmt.Fprintf(w, "DURATION\t%s\n", r.Duration)
	w.Flush()

	for _, e := range r.Errors {
		fmt.Fprintln(os.Stdout, "error:", e)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintln(os.Stdout, "warning:", warning)
	}
}
