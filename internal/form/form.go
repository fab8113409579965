// Package form turns user edits and scan results into label store updates.
package form

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jqshop/labelgen/internal/images"
	"github.com/jqshop/labelgen/internal/models"
	"github.com/jqshop/labelgen/internal/printer"
	"github.com/jqshop/labelgen/internal/storage"
)

// ErrNotReady is returned by print and generate while product name or SKU is missing
var ErrNotReady = errors.New("product name and SKU are required")

// scanNamePrefix builds the product name used when a scan fills an empty form
const scanNamePrefix = "Produto "

// Scanner is the capture session the form can open and close
type Scanner interface {
	Start(ctx context.Context)
	Stop()
}

// Printer prints whatever the preview currently shows
type Printer interface {
	Print(ctx context.Context) (*printer.Document, error)
}

// Controller applies form actions to a LabelStore
type Controller struct {
	store    *storage.LabelStore
	scanner  Scanner
	printer  Printer

	uploads sync.WaitGroup
}

// Option configures a Controller
type Option func(*Controller)

func WithScanner(s Scanner) Option {
	return func(c *Controller) { c.scanner = s }
}

func WithPrinter(p Printer) Option {
	return func(c *Controller) { c.printer = p }
}

func New(store *storage.LabelStore, opts ...Option) *Controller {
	c := &Controller{store: store}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CanSubmit reports whether print and generate are enabled
func (c *Controller) CanSubmit() bool {
	return c.store.Get().Ready()
}

// HandleFieldEdit stores raw as typed and returns the new gating state.
// Unknown fields are ignored.
func (c *Controller) HandleFieldEdit(field, raw string) bool {
	patch, ok := models.FieldPatch(field, raw)
	if !ok {
		slog.Warn("Ignoring edit to unknown label field", "field", field)
		return c.CanSubmit()
	}
	return c.store.Set(patch).Ready()
}

// HandleImageURL points the product image at a remote URL
func (c *Controller) HandleImageURL(url string) {
	c.store.Set(models.Patch{ProductImage: &url})
}

// HandleScanResult stores a scanned identifier as the SKU. The product name
// is only derived from it when the user has not typed one.
func (c *Controller) HandleScanResult(identifier string) {
	patch := models.Patch{SKU: &identifier}
	if c.store.Get().ProductName == "" {
		name := ScanProductName(identifier)
		patch.ProductName = &name
	}
	c.store.Set(patch)
	c.StopScan()
}

// ScanProductName is the placeholder name for a scanned identifier
func ScanProductName(identifier string) string {
	runes := []rune(identifier)
	if len(runes) > 5 {
		runes = runes[:5]
	}
	return scanNamePrefix + string(runes)
}

// HandleImageUpload embeds the image in the background. When uploads
// overlap, whichever finishes last is kept.
func (c *Controller) HandleImageUpload(data []byte) {
	c.uploads.Add(1)
	go func() {
		defer c.uploads.Done()
		uri, err := images.EncodeDataURI(data)
		if err != nil {
			slog.Warn("Failed to read product image", "error", err)
			return
		}
		c.store.Set(models.Patch{ProductImage: &uri})
		slog.Debug("Product image attached", "bytes", len(data))
	}()
}

// Wait blocks until pending image uploads are merged
func (c *Controller) Wait() {
	c.uploads.Wait()
}

// StartScan opens the capture session
func (c *Controller) StartScan(ctx context.Context) {
	if c.scanner != nil {
		c.scanner.Start(ctx)
	}
}

// StopScan closes the capture session if one is open
func (c *Controller) StopScan() {
	if c.scanner != nil {
		c.scanner.Stop()
	}
}

// Reset clears the label and closes any scan session
func (c *Controller) Reset() {
	c.store.Reset()
	c.StopScan()
}

// Generate re-renders the preview from the current record. The refresh goes
// through the store so it cannot overtake a concurrent edit.
func (c *Controller) Generate() (models.LabelRecord, error) {
	record := c.store.Get()
	if !record.Ready() {
		return record, ErrNotReady
	}
	record = c.store.Refresh()
	slog.Info("Label generated", "sku", record.SKU, "product", record.ProductName)
	return record, nil
}

// Print sends the label to the printer
func (c *Controller) Print(ctx context.Context) (*printer.Document, error) {
	if !c.CanSubmit() {
		return nil, ErrNotReady
	}
	if c.printer == nil {
		return nil, &printer.CompositionError{Kind: printer.SurfaceUnavailable, Err: errors.New("no printer configured")}
	}
	return c.printer.Print(ctx)
}
