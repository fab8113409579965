package preview

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"sync"

	"github.com/jqshop/labelgen/internal/barcode"
	"github.com/jqshop/labelgen/internal/images"
	"github.com/jqshop/labelgen/internal/models"
	"github.com/jqshop/labelgen/internal/storage"
)

var cardTemplate = template.Must(template.New("card").Parse(`<div class="{{.Marker}}" data-sku="{{.SKU}}">
<div class="label-content">
<div class="label-header"><h1>JQ SHOP</h1><p>Etiqueta de Envio</p></div>
<div class="label-body">
{{- if .Image}}
<div class="label-image"><img src="{{.Image}}" alt="{{.ProductName}}"{{if .Placeholder}} data-placeholder="true"{{end}}></div>
{{- end}}
<div class="label-field"><h2>Produto:</h2><p class="label-product-name" data-field="productName">{{.ProductName}}</p></div>
<div class="label-field"><h2>Quantidade:</h2><p class="label-quantity" data-field="quantity">{{.Quantity}}</p></div>
<div class="label-field"><h2>SKU:</h2><p class="label-sku" data-field="sku">{{.SKU}}</p></div>
<div class="label-barcode-slot">{{.Barcode}}<p class="label-barcode-text">{{.SKU}}</p></div>
</div>
</div>
</div>`))

type cardData struct {
	Marker      string
	ProductName string
	Quantity    int
	SKU         string
	Image       template.URL
	Placeholder bool
	Barcode     template.HTML
}

// RenderHTML renders a view as the label card fragment
func RenderHTML(v View) (template.HTML, error) {
	data := cardData{
		Marker:      Marker,
		ProductName: v.ProductName,
		Quantity:    v.Quantity,
		SKU:         v.SKU,
		// only http(s), data:image and the placeholder reach a View
		Image:       template.URL(v.Image),
		Placeholder: v.ImagePlaceholder,
	}
	if v.Symbol != nil {
		data.Barcode = template.HTML(v.Symbol.SVG())
	}

	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Option configures a Renderer
type Option func(*Renderer)

func WithGeometry(g barcode.Geometry) Option {
	return func(r *Renderer) { r.geometry = g }
}

func WithImageChecker(c ImageChecker) Option {
	return func(r *Renderer) { r.images = c }
}

// Renderer keeps the preview in sync with a LabelStore. Image reachability
// is checked in the background: a safe source is shown at once and swapped
// for the placeholder when the check fails.
type Renderer struct {
	geometry barcode.Geometry
	images   ImageChecker

	mu        sync.RWMutex
	view      View
	html      template.HTML
	mounted   bool
	renders   int
	seq       uint64 // last render started
	installed uint64 // render whose view is shown

	ctx     context.Context
	cancel  context.CancelFunc
	pending int
	idle    chan struct{} // closed while no image check is running

	unsubscribe func()
}

// NewRenderer subscribes to store and renders its current record
func NewRenderer(store *storage.LabelStore, opts ...Option) *Renderer {
	r := &Renderer{
		geometry: barcode.DefaultGeometry(),
		mounted:  true,
		idle:     make(chan struct{}),
	}
	close(r.idle)
	r.ctx, r.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(r)
	}
	r.Render(store.Get())
	r.unsubscribe = store.Subscribe(r.Render)
	return r
}

// Render re-projects the record without blocking on the network. A symbol
// for a previous SKU is dropped before the new one is encoded, and a render
// finishing after a newer one has been installed is discarded.
func (r *Renderer) Render(rec models.LabelRecord) {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	reuse := r.view.Symbol
	if reuse != nil && reuse.Payload != rec.SKU {
		r.view.Symbol = nil
		r.html = ""
		reuse = nil
	}
	r.mu.Unlock()

	view := projectFields(context.Background(), rec, nil)
	if reuse != nil {
		view.Symbol = reuse
	} else {
		view.Symbol = EncodeSymbol(rec.SKU, r.geometry)
	}

	html, err := RenderHTML(view)
	if err != nil {
		slog.Error("Failed to render label preview", "error", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq < r.installed {
		slog.Debug("Dropping superseded preview render", "render", seq, "installed", r.installed)
		return
	}
	r.installed = seq
	r.view = view
	r.html = html
	r.renders++

	if r.images != nil && view.Image != "" && !view.ImagePlaceholder && r.ctx.Err() == nil {
		r.checkImageLocked(seq, view.Image)
	}
}

// checkImageLocked checks src in the background and falls back to the
// placeholder if render seq is still the one shown.
func (r *Renderer) checkImageLocked(seq uint64, src string) {
	if r.pending == 0 {
		r.idle = make(chan struct{})
	}
	r.pending++

	go func() {
		ok := r.images.Reachable(r.ctx, src)

		r.mu.Lock()
		defer r.mu.Unlock()
		defer func() {
			r.pending--
			if r.pending == 0 {
				close(r.idle)
			}
		}()

		if ok || r.ctx.Err() != nil || seq != r.installed || r.view.Image != src {
			return
		}
		view := r.view
		view.Image = images.Placeholder
		view.ImagePlaceholder = true
		html, err := RenderHTML(view)
		if err != nil {
			slog.Error("Failed to render label preview", "error", err)
			return
		}
		r.view = view
		r.html = html
		r.renders++
		slog.Debug("Product image replaced by placeholder", "src", src)
	}()
}

// Settle waits until pending image checks have been merged
func (r *Renderer) Settle(ctx context.Context) error {
	r.mu.RLock()
	idle := r.idle
	r.mu.RUnlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Renderer) View() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

// HTML returns the card fragment, or an empty string while unmounted
func (r *Renderer) HTML() template.HTML {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.mounted {
		return ""
	}
	return r.html
}

// Renders counts completed renders
func (r *Renderer) Renders() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.renders
}

func (r *Renderer) Mount() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mounted = true
}

func (r *Renderer) Unmount() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mounted = false
}

func (r *Renderer) Mounted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mounted
}

// Close stops following the store and cancels pending image checks
func (r *Renderer) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	r.cancel()
	_ = r.Settle(context.Background())
}
