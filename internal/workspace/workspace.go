// Package workspace assembles one label editing session: the store, the form,
// the preview, the scanner and the print path, all wired to each other.
package workspace

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jqshop/labelgen/internal/capture"
	"github.com/jqshop/labelgen/internal/form"
	"github.com/jqshop/labelgen/internal/models"
	"github.com/jqshop/labelgen/internal/preview"
	"github.com/jqshop/labelgen/internal/printer"
	"github.com/jqshop/labelgen/internal/storage"
	"github.com/jqshop/labelgen/internal/ui"
)

// Options configures the collaborators of a Workspace
type Options struct {
	Camera      capture.Camera
	Detector    capture.Detector
	Images      preview.ImageChecker
	Opener      printer.Opener // defaults to the workspace spool
	SettleDelay time.Duration
}

// Workspace is a single label session
type Workspace struct {
	ID        string
	CreatedAt time.Time

	Store    *storage.LabelStore
	Preview  *preview.Renderer
	Scanner  *capture.Manager
	Form     *form.Controller
	Composer *printer.Composer
	Spool    *printer.Spool
}

// New creates a workspace with a fresh ID and an empty label
func New(opts Options) *Workspace {
	w := &Workspace{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Store:     storage.NewLabelStore(),
		Spool:     printer.NewSpool(),
	}

	var previewOpts []preview.Option
	if opts.Images != nil {
		previewOpts = append(previewOpts, preview.WithImageChecker(opts.Images))
	}
	w.Preview = preview.NewRenderer(w.Store, previewOpts...)

	opener := opts.Opener
	if opener == nil {
		opener = w.Spool
	}
	w.Composer = printer.NewComposer(
		printer.PageFunc(w.Page),
		opener,
		preview.Marker,
		printer.WithStyles(ui.Styles()),
		printer.WithSettleDelay(opts.SettleDelay),
	)

	formOpts := []form.Option{
		form.WithPrinter(w.Composer),
	}
	if opts.Camera != nil {
		var captureOpts []capture.Option
		if opts.Detector != nil {
			captureOpts = append(captureOpts, capture.WithDetector(opts.Detector))
		}
		w.Scanner = capture.NewManager(opts.Camera, captureOpts...)
		formOpts = append(formOpts, form.WithScanner(w.Scanner))
	}
	w.Form = form.New(w.Store, formOpts...)

	if w.Scanner != nil {
		w.Scanner.SetScanHandler(w.Form.HandleScanResult)
	}

	slog.Info("Label session created", "session_id", w.ID)
	return w
}

// Page renders the host page showing this session
func (w *Workspace) Page() (string, error) {
	record := w.Store.Get()
	return ui.RenderPage(ui.PageData{
		SessionID: w.ID,
		Record:    record,
		CanSubmit: record.Ready(),
		Scanner:   w.scannerView(),
		Preview:   w.Preview.HTML(),
	})
}

// Print composes the current preview and hands it to the print surface.
// Pending image checks are merged first so an unreachable image prints as
// the placeholder.
func (w *Workspace) Print(ctx context.Context) (*printer.Document, error) {
	if err := w.Preview.Settle(ctx); err != nil {
		return nil, err
	}
	doc, err := w.Form.Print(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Label printed", "session_id", w.ID, "sku", w.Store.Get().SKU)
	return doc, nil
}

// Summary is the API view of the session
func (w *Workspace) Summary() models.SessionSummary {
	record := w.Store.Get()
	_, _, printed := w.Spool.Document()
	return models.SessionSummary{
		ID:        w.ID,
		Record:    record,
		CanSubmit: record.Ready(),
		Scanner:   w.scannerView(),
		Printed:   printed,
	}
}

func (w *Workspace) scannerView() models.ScannerView {
	if w.Scanner == nil {
		return models.ScannerView{State: "unavailable"}
	}
	return models.ScannerView{
		State:    w.Scanner.State().String(),
		Active:   w.Scanner.Active(),
		Error:    w.Scanner.LastError(),
		CanStart: w.Scanner.CanStart(),
	}
}

// Close releases the camera, waits for pending uploads and detaches the preview
func (w *Workspace) Close() {
	if w.Scanner != nil {
		w.Scanner.Teardown()
	}
	w.Form.Wait()
	w.Preview.Close()
	slog.Info("Label session closed", "session_id", w.ID)
}
