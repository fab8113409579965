package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jqshop/labelgen/internal/capture"
	"github.com/jqshop/labelgen/internal/config"
	"github.com/jqshop/labelgen/internal/handlers"
	"github.com/jqshop/labelgen/internal/images"
	"github.com/jqshop/labelgen/internal/printer"
	"github.com/jqshop/labelgen/internal/workspace"
)

func newServeCmd() *cobra.Command {
	var (
		port        string
		settleDelay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the label form",
		Long: `Starts the Labelgen web interface on the specified port.

Each visit opens a label session with a form, a live 10x15cm preview,
camera barcode scanning and printing. Printed labels are spooled for the
browser to print, or written to files and handed to a print command when
LABELGEN_PRINT_COMMAND is set.`,
		Example: `  # Start server on default port 8888
  labelgen serve

  # Start server on custom port
  labelgen serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("settle-delay") {
				cfg.SettleDelay = settleDelay
			}

			prober := images.NewProber(cfg.ImageProbeTimeout)
			camera := capture.NewDeviceCamera(cfg.CameraEnvironment, cfg.CameraUser)

			var opener printer.Opener
			if len(cfg.PrintCommand) > 0 {
				opener = &printer.FileOpener{Dir: cfg.OutputDir, Command: cfg.PrintCommand}
			}

			handler := handlers.New(func() *workspace.Workspace {
				return workspace.New(workspace.Options{
					Camera:      camera,
					Detector:    capture.NewDelayedDetector(cfg.ScanDelay),
					Images:      prober,
					Opener:      opener,
					SettleDelay: cfg.SettleDelay,
				})
			})
			defer handler.Close()

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Routes(),
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				release, revision := BuildVersion()
				slog.Info("Labelgen interface available", "addr", addr, "url", "http://localhost"+addr, "version", release, "commit", revision)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().DurationVar(&settleDelay, "settle-delay", time.Second, "Wait between writing a label and printing it")

	return cmd
}
