// Package printer builds a standalone printable document from the rendered
// label preview and sends it to a print surface.
package printer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrorKind classifies composition failures
type ErrorKind int

const (
	NotFound ErrorKind = iota + 1
	SurfaceUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "preview not found"
	case SurfaceUnavailable:
		return "print surface unavailable"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	ErrPreviewNotFound    = &CompositionError{Kind: NotFound}
	ErrSurfaceUnavailable = &CompositionError{Kind: SurfaceUnavailable}
)

// CompositionError is returned when a label cannot be composed or handed to a printer
type CompositionError struct {
	Kind ErrorKind
	Err  error
}

func (e *CompositionError) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String()
}

func (e *CompositionError) Unwrap() error { return e.Err }

// Is matches any CompositionError of the same kind
func (e *CompositionError) Is(target error) bool {
	var t *CompositionError
	return errors.As(target, &t) && t.Kind == e.Kind
}

// Page exposes the host page the preview is displayed in
type Page interface {
	Markup() (string, error)
}

// PageFunc adapts a function to Page
type PageFunc func() (string, error)

func (f PageFunc) Markup() (string, error) { return f() }

// Composer snapshots the label preview out of the host page
type Composer struct {
	page   Page
	styles StylingContext
	opener Opener
	marker string
	settle time.Duration
}

// Option configures a Composer
type Option func(*Composer)

// WithSettleDelay sets the wait between writing the document and printing it
func WithSettleDelay(d time.Duration) Option {
	return func(c *Composer) { c.settle = d }
}

// WithStyles sets where style rules are collected from
func WithStyles(s StylingContext) Option {
	return func(c *Composer) { c.styles = s }
}

// WithMarker overrides the class that identifies the label subtree
func WithMarker(marker string) Option {
	return func(c *Composer) { c.marker = marker }
}

// NewComposer creates a composer reading from page and printing through opener
func NewComposer(page Page, opener Opener, marker string, opts ...Option) *Composer {
	c := &Composer{
		page:   page,
		opener: opener,
		marker: marker,
		settle: time.Second,
		styles: HostStyles{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose builds the printable document for what the page shows right now
func (c *Composer) Compose(ctx context.Context) (*Document, error) {
	markup, err := c.page.Markup()
	if err != nil {
		return nil, &CompositionError{Kind: NotFound, Err: err}
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, &CompositionError{Kind: NotFound, Err: err}
	}

	node := FindByClass(doc, c.marker)
	if node == nil {
		return nil, &CompositionError{Kind: NotFound, Err: fmt.Errorf("no element with class %q", c.marker)}
	}

	var styles []string
	for _, sheet := range c.styles.StyleSheets(ctx, doc) {
		rules, err := sheet.Rules(ctx)
		if err != nil {
			slog.Debug("Skipping inaccessible stylesheet", "sheet", sheet.Name(), "error", err)
			continue
		}
		styles = append(styles, rules...)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return nil, fmt.Errorf("failed to serialize label: %w", err)
	}

	return wrap(buf.String(), styles, c.marker)
}

// Print composes the label and sends it to a fresh print surface. Nothing is
// opened when composition fails, and the surface is always closed once opened.
func (c *Composer) Print(ctx context.Context) (*Document, error) {
	doc, err := c.Compose(ctx)
	if err != nil {
		return nil, err
	}

	surface, err := c.opener.OpenSurface(ctx)
	if err != nil {
		return nil, &CompositionError{Kind: SurfaceUnavailable, Err: err}
	}
	defer func() {
		if err := surface.Close(); err != nil {
			slog.Warn("Failed to close print surface", "error", err)
		}
	}()

	if err := surface.Write(doc.HTML); err != nil {
		return nil, fmt.Errorf("failed to write print document: %w", err)
	}

	// give embedded images time to load before printing
	if c.settle > 0 {
		timer := time.NewTimer(c.settle)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if err := surface.Print(ctx); err != nil {
		return nil, fmt.Errorf("failed to print label: %w", err)
	}

	slog.Info("Label sent to printer", "bytes", len(doc.HTML), "styles", len(doc.Styles))
	return doc, nil
}

// FindByClass returns the first element, in document order, carrying class
func FindByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := FindByClass(child, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func isElement(n *html.Node, a atom.Atom) bool {
	return n.Type == html.ElementNode && n.DataAtom == a
}
