package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tkshop/catalog-service/config"
	"github.com/tkshop/catalog-service/internal/app"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Catalog CLI - WordPress WXR product import tool",
	Long: `A CLI tool for importing WooCommerce products from WordPress WXR exports
into the catalog. Products are matched by SKU or slug, categories are resolved
or created, and color x size variants are synthesized with their prices.`,
	PersistentPreRunE: persistentPreRun,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

// persistentPreRun loads configuration and the logger before each command
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger = app.NewLogger(cfg.Logging, "catalog-cli")
	return nil
}

// buildApp wires stores and the runner for commands that touch the catalog
func buildApp(ctx context.Context) (*app.App, error) {
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialization failed: %w", err)
	}
	return a, nil
}

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
