package printer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jqshop/labelgen/internal/models"
	"github.com/jqshop/labelgen/internal/preview"
	"github.com/jqshop/labelgen/internal/storage"
)

type fakeSurface struct {
	events []string
	doc    string
}

func (s *fakeSurface) Write(document string) error {
	s.events = append(s.events, "write")
	s.doc = document
	return nil
}

func (s *fakeSurface) Print(context.Context) error {
	s.events = append(s.events, "print")
	return nil
}

func (s *fakeSurface) Close() error {
	s.events = append(s.events, "close")
	return nil
}

type fakeOpener struct {
	fail     bool
	opened   int
	surfaces []*fakeSurface
}

func (o *fakeOpener) OpenSurface(context.Context) (Surface, error) {
	o.opened++
	if o.fail {
		return nil, errors.New("popup blocked")
	}
	s := &fakeSurface{}
	o.surfaces = append(o.surfaces, s)
	return s, nil
}

func hostPage(card string) PageFunc {
	return func() (string, error) {
		return `<!DOCTYPE html><html><head>
<style>.label-preview-card { max-width: 400px; }</style>
<link rel="stylesheet" href="/static/app.css">
<link rel="stylesheet" href="https://fonts.example.net/font.css">
</head><body><header class="app-chrome">JQ Shop</header><main>` + card + `</main><footer>chrome</footer></body></html>`, nil
	}
}

func resolver(_ context.Context, href string) (string, error) {
	if href == "/static/app.css" {
		return ".label-header { text-align: center; }", nil
	}
	return "", fmt.Errorf("%s: %w", href, ErrCrossOrigin)
}

func newPipeline(t *testing.T) (*storage.LabelStore, *preview.Renderer, PageFunc) {
	t.Helper()
	store := storage.NewLabelStore()
	r := preview.NewRenderer(store)
	t.Cleanup(r.Close)
	page := PageFunc(func() (string, error) {
		return hostPage(string(r.HTML()))()
	})
	return store, r, page
}

func TestComposeNotFound(t *testing.T) {
	opener := &fakeOpener{}
	c := NewComposer(hostPage(""), opener, preview.Marker, WithSettleDelay(0))

	_, err := c.Print(context.Background())
	if !errors.Is(err, ErrPreviewNotFound) {
		t.Fatalf("Expected ErrPreviewNotFound, got %v", err)
	}
	var ce *CompositionError
	if !errors.As(err, &ce) || ce.Kind != NotFound {
		t.Errorf("Expected NotFound kind, got %v", err)
	}
	if opener.opened != 0 {
		t.Error("Expected no surface to be opened")
	}
}

func TestComposePageError(t *testing.T) {
	page := PageFunc(func() (string, error) { return "", errors.New("not rendered") })
	c := NewComposer(page, &fakeOpener{}, preview.Marker)

	if _, err := c.Compose(context.Background()); !errors.Is(err, ErrPreviewNotFound) {
		t.Errorf("Expected ErrPreviewNotFound, got %v", err)
	}
}

func TestComposeUnmountedPreview(t *testing.T) {
	store, r, page := newPipeline(t)
	sku := "SKU4821"
	store.Set(models.Patch{SKU: &sku})
	r.Unmount()

	c := NewComposer(page, &fakeOpener{}, preview.Marker)
	if _, err := c.Compose(context.Background()); !errors.Is(err, ErrPreviewNotFound) {
		t.Errorf("Expected ErrPreviewNotFound for hidden preview, got %v", err)
	}
}

func TestComposeDocument(t *testing.T) {
	card := `<div class="card label-preview-card extra"><p>Caneca</p></div>`
	c := NewComposer(hostPage(card), &fakeOpener{}, preview.Marker,
		WithStyles(HostStyles{Resolve: resolver}))

	doc, err := c.Compose(context.Background())
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	for _, want := range []string{
		"size: 10cm 15cm;",
		"max-width: none !important;",
		".label-preview-card { max-width: 400px; }",
		".label-header { text-align: center; }",
		card,
	} {
		if !strings.Contains(doc.HTML, want) {
			t.Errorf("Expected document to contain %q", want)
		}
	}
	if strings.Contains(doc.HTML, "app-chrome") || strings.Contains(doc.HTML, "<footer>") {
		t.Error("Expected host chrome to be left out")
	}
	if len(doc.Styles) != 2 {
		t.Errorf("Expected 2 collected sheets (cross-origin skipped), got %d", len(doc.Styles))
	}
	if doc.Markup != card {
		t.Errorf("Expected markup %q, got %q", card, doc.Markup)
	}
}

func TestComposeOverridesFollowCollectedStyles(t *testing.T) {
	c := NewComposer(hostPage(`<div class="label-preview-card"></div>`), &fakeOpener{}, preview.Marker)
	doc, err := c.Compose(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Index(doc.HTML, "max-width: 400px") > strings.Index(doc.HTML, "max-width: none !important") {
		t.Error("Expected size overrides after host styles")
	}
}

func TestComposeEscapesStyleClose(t *testing.T) {
	c := NewComposer(hostPage(`<div class="label-preview-card"></div>`), &fakeOpener{}, preview.Marker,
		WithStyles(StaticSheets{Sheet("evil", "a{}</style><script>alert(1)</script>")}))
	doc, err := c.Compose(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(doc.HTML, "</style>") != 1 {
		t.Error("Expected collected styles to stay inside the style element")
	}
}

func TestComposeDeterministic(t *testing.T) {
	store, _, page := newPipeline(t)
	name, sku := "Caneca Azul", "SKU4821"
	store.Set(models.Patch{ProductName: &name, SKU: &sku})

	c := NewComposer(page, &fakeOpener{}, preview.Marker, WithStyles(HostStyles{Resolve: resolver}))
	a, err := c.Compose(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Compose(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if a.HTML != b.HTML {
		t.Error("Expected identical documents for identical state")
	}
}

func TestPrintSequence(t *testing.T) {
	opener := &fakeOpener{}
	c := NewComposer(hostPage(`<div class="label-preview-card"></div>`), opener, preview.Marker,
		WithSettleDelay(20*time.Millisecond))

	start := time.Now()
	doc, err := c.Print(context.Background())
	if err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Expected settle delay before printing, took %v", elapsed)
	}

	s := opener.surfaces[0]
	if strings.Join(s.events, ",") != "write,print,close" {
		t.Errorf("Unexpected surface events %v", s.events)
	}
	if s.doc != doc.HTML {
		t.Error("Expected surface to receive the composed document")
	}
}

func TestPrintSurfaceUnavailable(t *testing.T) {
	opener := &fakeOpener{fail: true}
	c := NewComposer(hostPage(`<div class="label-preview-card"></div>`), opener, preview.Marker)

	_, err := c.Print(context.Background())
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Fatalf("Expected ErrSurfaceUnavailable, got %v", err)
	}
	if errors.Is(err, ErrPreviewNotFound) {
		t.Error("Expected kinds to be distinct")
	}
}

func TestPrintCancelledDuringSettle(t *testing.T) {
	opener := &fakeOpener{}
	c := NewComposer(hostPage(`<div class="label-preview-card"></div>`), opener, preview.Marker,
		WithSettleDelay(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Print(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}
	if strings.Join(opener.surfaces[0].events, ",") != "write,close" {
		t.Errorf("Expected surface closed without printing, got %v", opener.surfaces[0].events)
	}
}

func TestPrintRoundTrip(t *testing.T) {
	tests := []struct {
		name         string
		record       models.LabelRecord
		wantQuantity int
	}{
		{
			name:         "numeric quantity",
			record:       models.LabelRecord{ProductName: "Caneca Azul", Quantity: "7", SKU: "SKU4821"},
			wantQuantity: 7,
		},
		{
			name:         "invalid quantity",
			record:       models.LabelRecord{ProductName: "Caixa <P>", Quantity: "abc", SKU: "BOX555123789"},
			wantQuantity: 10,
		},
		{
			name:         "empty quantity",
			record:       models.LabelRecord{ProductName: "Produto SKU12", SKU: "SKU123456789"},
			wantQuantity: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, r, page := newPipeline(t)
			rec := tt.record
			store.Set(models.Patch{ProductName: &rec.ProductName, Quantity: &rec.Quantity, SKU: &rec.SKU})

			opener := &fakeOpener{}
			c := NewComposer(page, opener, preview.Marker, WithSettleDelay(0))
			doc, err := c.Print(context.Background())
			if err != nil {
				t.Fatalf("Print failed: %v", err)
			}

			snap, err := Inspect(doc.HTML, preview.Marker)
			if err != nil {
				t.Fatalf("Inspect failed: %v", err)
			}
			if snap.ProductName != rec.ProductName || snap.SKU != rec.SKU || snap.Quantity != tt.wantQuantity {
				t.Errorf("Snapshot %+v does not match record %+v", snap, rec)
			}
			if snap.BarcodePayload != rec.SKU {
				t.Errorf("Expected barcode for %q, got %q", rec.SKU, snap.BarcodePayload)
			}
			if want := len(r.View().Symbol.Bars()); snap.BarcodeBars != want {
				t.Errorf("Expected %d bars, got %d", want, snap.BarcodeBars)
			}
			if !snap.PageRule {
				t.Error("Expected 10cm x 15cm page rule with zero margin")
			}
		})
	}
}

func TestFileOpener(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "labels")
	opener := &FileOpener{Dir: dir}
	c := NewComposer(hostPage(`<div class="label-preview-card">Caneca</div>`), opener, preview.Marker, WithSettleDelay(0))

	doc, err := c.Print(context.Background())
	if err != nil {
		t.Fatalf("Print failed: %v", err)
	}

	data, err := os.ReadFile(opener.LastPath())
	if err != nil {
		t.Fatalf("Expected label file, got %v", err)
	}
	if string(data) != doc.HTML {
		t.Error("Expected file to contain the document")
	}
}

func TestFileOpenerCommand(t *testing.T) {
	page := hostPage(`<div class="label-preview-card"></div>`)

	ok := NewComposer(page, &FileOpener{Dir: t.TempDir(), Command: []string{"true"}}, preview.Marker, WithSettleDelay(0))
	if _, err := ok.Print(context.Background()); err != nil {
		t.Errorf("Expected print command to succeed, got %v", err)
	}

	failing := NewComposer(page, &FileOpener{Dir: t.TempDir(), Command: []string{"false"}}, preview.Marker, WithSettleDelay(0))
	if _, err := failing.Print(context.Background()); err == nil {
		t.Error("Expected failing print command to be reported")
	}
}

func TestFileOpenerRemovesUnprintedFile(t *testing.T) {
	page := hostPage(`<div class="label-preview-card"></div>`)

	tests := []struct {
		name        string
		command     []string
		settleDelay time.Duration
		timeout     time.Duration
	}{
		{name: "print command fails", command: []string{"false"}},
		{name: "cancelled during settle", settleDelay: time.Hour, timeout: 10 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			opener := &FileOpener{Dir: dir, Command: tt.command}
			c := NewComposer(page, opener, preview.Marker, WithSettleDelay(tt.settleDelay))

			ctx := context.Background()
			if tt.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tt.timeout)
				defer cancel()
			}
			if _, err := c.Print(ctx); err == nil {
				t.Fatal("Expected print to fail")
			}

			if opener.LastPath() == "" {
				t.Fatal("Expected a label file to have been opened")
			}
			leftover, err := filepath.Glob(filepath.Join(dir, "label-*.html"))
			if err != nil {
				t.Fatal(err)
			}
			if len(leftover) != 0 {
				t.Errorf("Expected unprinted label file removed, found %v", leftover)
			}
		})
	}
}

func TestSpool(t *testing.T) {
	spool := NewSpool()
	c := NewComposer(hostPage(`<div class="label-preview-card"></div>`), spool, preview.Marker, WithSettleDelay(0))

	if _, _, ok := spool.Document(); ok {
		t.Fatal("Expected empty spool")
	}

	doc, err := c.Print(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	got, printedAt, ok := spool.Document()
	if !ok || got != doc.HTML || printedAt.IsZero() {
		t.Error("Expected spool to hold the printed document")
	}

	spool.Disable(true)
	if _, err := c.Print(context.Background()); !errors.Is(err, ErrSurfaceUnavailable) {
		t.Errorf("Expected ErrSurfaceUnavailable, got %v", err)
	}
	if again, _, _ := spool.Document(); again != doc.HTML {
		t.Error("Expected failed print to leave the spool untouched")
	}
}
