package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jqshop/labelgen/internal/config"
)

func NewRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "labelgen",
		Short: "Shipping label generator for 10x15cm thermal labels",
		Long: `Labelgen builds 10x15cm shipping labels with a CODE128 barcode.

It serves a web form with a live preview and barcode scanning, and can
render labels in batch from YAML records or a Parquet product file.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := config.Load().LogLevel
			if cmd.Flags().Changed("log-level") {
				level = config.ParseLevel(logLevel)
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRenderCmd())

	return cmd
}
