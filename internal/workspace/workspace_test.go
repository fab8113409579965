package workspace

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/jqshop/labelgen/internal/capture"
	"github.com/jqshop/labelgen/internal/form"
	"github.com/jqshop/labelgen/internal/images"
	"github.com/jqshop/labelgen/internal/models"
	"github.com/jqshop/labelgen/internal/preview"
	"github.com/jqshop/labelgen/internal/printer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubStream struct{}

func (stubStream) Stop() {}

type grantingCamera struct {
	err error
}

func (c grantingCamera) RequestStream(context.Context, capture.Facing) (capture.Stream, error) {
	if c.err != nil {
		return nil, c.err
	}
	return stubStream{}, nil
}

type immediateDetector struct {
	code string
}

func (d immediateDetector) Watch(_ context.Context, _ capture.Stream, found func(string)) {
	found(d.code)
}

type unreachableImages struct{}

func (unreachableImages) Reachable(context.Context, string) bool { return false }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestScanFillsLabel(t *testing.T) {
	w := New(Options{Camera: grantingCamera{}, Detector: immediateDetector{code: "SKU4821"}})
	defer w.Close()

	w.Form.StartScan(context.Background())
	waitFor(t, func() bool { return w.Store.Get().SKU != "" })

	rec := w.Store.Get()
	if rec.SKU != "SKU4821" || rec.ProductName != "Produto SKU48" {
		t.Errorf("Unexpected record %+v", rec)
	}
	waitFor(t, func() bool { return w.Scanner.State() == capture.Idle })

	if w.Preview.View().Symbol == nil || w.Preview.View().Symbol.Payload != "SKU4821" {
		t.Error("Expected preview barcode for scanned SKU")
	}
}

func TestCameraFailureShownInSummary(t *testing.T) {
	w := New(Options{Camera: grantingCamera{err: capture.ErrPermissionDenied}})
	defer w.Close()

	w.Form.StartScan(context.Background())
	waitFor(t, func() bool { return w.Scanner.State() == capture.Error })

	s := w.Summary()
	if s.Scanner.Error == "" || s.Scanner.CanStart {
		t.Errorf("Expected scanner failure in summary, got %+v", s.Scanner)
	}
}

func TestPrintThroughSpool(t *testing.T) {
	w := New(Options{})
	defer w.Close()

	if _, err := w.Print(context.Background()); !errors.Is(err, form.ErrNotReady) {
		t.Fatalf("Expected ErrNotReady, got %v", err)
	}

	w.Form.HandleFieldEdit(models.FieldProductName, "Caneca Azul")
	w.Form.HandleFieldEdit(models.FieldQuantity, "12")
	w.Form.HandleFieldEdit(models.FieldSKU, "SKU4821")

	doc, err := w.Print(context.Background())
	if err != nil {
		t.Fatalf("Print failed: %v", err)
	}

	spooled, _, ok := w.Spool.Document()
	if !ok || spooled != doc.HTML {
		t.Fatal("Expected document in spool")
	}
	if !w.Summary().Printed {
		t.Error("Expected summary to report the print")
	}

	snap, err := printer.Inspect(spooled, preview.Marker)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if snap.ProductName != "Caneca Azul" || snap.Quantity != 12 || snap.SKU != "SKU4821" {
		t.Errorf("Unexpected snapshot %+v", snap)
	}
	if snap.BarcodePayload != "SKU4821" || !snap.PageRule {
		t.Errorf("Expected barcode and page rule, got %+v", snap)
	}
	if len(doc.Styles) == 0 || !strings.Contains(doc.Styles[0], ".label-header") {
		t.Error("Expected page styles carried into the document")
	}
}

func TestPrintSettlesImageChecks(t *testing.T) {
	w := New(Options{Images: unreachableImages{}})
	defer w.Close()

	w.Form.HandleFieldEdit(models.FieldProductName, "Caneca Azul")
	w.Form.HandleFieldEdit(models.FieldSKU, "SKU4821")
	w.Form.HandleImageURL("https://cdn.example.com/missing.png")

	doc, err := w.Print(context.Background())
	if err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	snap, err := printer.Inspect(doc.HTML, preview.Marker)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if snap.Image != images.Placeholder {
		t.Errorf("Expected placeholder printed for unreachable image, got %q", snap.Image)
	}
}

func TestPrintUnmountedPreview(t *testing.T) {
	w := New(Options{})
	defer w.Close()

	w.Form.HandleFieldEdit(models.FieldProductName, "Caneca Azul")
	w.Form.HandleFieldEdit(models.FieldSKU, "SKU4821")
	w.Preview.Unmount()

	_, err := w.Print(context.Background())
	if !errors.Is(err, printer.ErrPreviewNotFound) {
		t.Errorf("Expected ErrPreviewNotFound, got %v", err)
	}
	if _, _, ok := w.Spool.Document(); ok {
		t.Error("Expected nothing spooled")
	}
}

func TestSummaryWithoutCamera(t *testing.T) {
	w := New(Options{})
	defer w.Close()

	s := w.Summary()
	if s.ID == "" || s.ID != w.ID {
		t.Errorf("Expected session ID in summary, got %q", s.ID)
	}
	if s.Scanner.State != "unavailable" || s.CanSubmit || s.Printed {
		t.Errorf("Unexpected summary %+v", s)
	}

	// no scanner configured
	w.Form.StartScan(context.Background())
}

func TestPageReflectsRecord(t *testing.T) {
	w := New(Options{})
	defer w.Close()

	w.Form.HandleFieldEdit(models.FieldSKU, "SKU4821")
	page, err := w.Page()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(page, `data-session="`+w.ID+`"`) {
		t.Error("Expected session ID in page")
	}
	if !strings.Contains(page, `data-payload="SKU4821"`) {
		t.Error("Expected barcode in page")
	}
}
