package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jqshop/labelgen/internal/catalog"
	"github.com/jqshop/labelgen/internal/config"
	"github.com/jqshop/labelgen/internal/images"
	"github.com/jqshop/labelgen/internal/models"
	"github.com/jqshop/labelgen/internal/preview"
	"github.com/jqshop/labelgen/internal/printer"
	"github.com/jqshop/labelgen/internal/workspace"
)

type renderOptions struct {
	record       string
	catalog      string
	sku          string
	out          string
	printCommand string
	dump         string
	settleDelay  time.Duration
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a label to a printable HTML file",
		Long: `Renders one 10x15cm label without the web interface.

The label comes either from a YAML record file or from a Parquet product
file looked up by SKU. A product image that is a local file path is
embedded in the label.`,
		Example: `  # Render a label from a YAML record
  labelgen render --record label.yaml

  # Render a product from a Parquet catalog and send it to the printer
  labelgen render --catalog products.parquet --sku SKU4821 --print-command "lp -d zebra"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if !cmd.Flags().Changed("out") {
				opts.out = cfg.OutputDir
			}
			if !cmd.Flags().Changed("print-command") {
				opts.printCommand = strings.Join(cfg.PrintCommand, " ")
			}
			if !cmd.Flags().Changed("settle-delay") {
				opts.settleDelay = cfg.SettleDelay
			}
			return runRender(cmd.Context(), opts, cfg)
		},
	}

	cmd.Flags().StringVar(&opts.record, "record", "", "YAML label record to render")
	cmd.Flags().StringVar(&opts.catalog, "catalog", "", "Parquet product file to look the SKU up in")
	cmd.Flags().StringVar(&opts.sku, "sku", "", "SKU to render from the product file")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "labels", "Directory to write label files to")
	cmd.Flags().StringVar(&opts.printCommand, "print-command", "", "Command run with the label file path appended")
	cmd.Flags().StringVar(&opts.dump, "dump", "", "Also write the resolved record as YAML to this path")
	cmd.Flags().DurationVar(&opts.settleDelay, "settle-delay", time.Second, "Wait between writing a label and printing it")
	cmd.MarkFlagsMutuallyExclusive("record", "catalog")
	cmd.MarkFlagsOneRequired("record", "catalog")
	cmd.MarkFlagsRequiredTogether("catalog", "sku")

	return cmd
}

func runRender(ctx context.Context, opts *renderOptions, cfg *config.Config) error {
	rec, err := loadRenderRecord(opts)
	if err != nil {
		return err
	}

	rec.ProductImage, err = embedLocalImage(rec.ProductImage)
	if err != nil {
		return err
	}

	if opts.dump != "" {
		if err := catalog.SaveRecord(opts.dump, rec); err != nil {
			return err
		}
	}

	opener := &printer.FileOpener{Dir: opts.out, Command: strings.Fields(opts.printCommand)}
	ws := workspace.New(workspace.Options{
		Images:      images.NewProber(cfg.ImageProbeTimeout),
		Opener:      opener,
		SettleDelay: opts.settleDelay,
	})
	defer ws.Close()

	ws.Store.Set(rec.Patch())

	doc, err := ws.Print(ctx)
	if err != nil {
		return fmt.Errorf("failed to render label: %w", err)
	}

	snap, err := printer.Inspect(doc.HTML, preview.Marker)
	if err != nil {
		return fmt.Errorf("failed to inspect label: %w", err)
	}

	slog.Info("Label rendered",
		"path", opener.LastPath(),
		"product", snap.ProductName,
		"quantity", snap.Quantity,
		"sku", snap.SKU,
		"barcode_bars", snap.BarcodeBars,
		"image", snap.Image != "")
	return nil
}

func loadRenderRecord(opts *renderOptions) (models.LabelRecord, error) {
	if opts.record != "" {
		return catalog.LoadRecord(opts.record)
	}
	return catalog.FindProduct(opts.catalog, opts.sku)
}

// embedLocalImage turns a local file path into a data URI. URLs and data
// URIs are returned unchanged.
func embedLocalImage(src string) (string, error) {
	if src == "" || strings.Contains(src, "://") || strings.HasPrefix(src, "data:") {
		return src, nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("failed to read product image: %w", err)
	}
	uri, err := images.EncodeDataURI(data)
	if err != nil {
		return "", fmt.Errorf("failed to embed product image %s: %w", src, err)
	}
	return uri, nil
}
