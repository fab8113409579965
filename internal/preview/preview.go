// Package preview projects the current label record into the 10x15 label
// layout. The rendered fragment is what the print composer snapshots.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jqshop/labelgen/internal/barcode"
	"github.com/jqshop/labelgen/internal/images"
	"github.com/jqshop/labelgen/internal/models"
)

const (
	// Marker is the class that identifies the printable label subtree
	Marker = "label-preview-card"

	DefaultQuantity    = 10
	DefaultProductName = "Nome do Produto"
)

// ConversionError reports quantity text that is not an integer. It is never shown to the user.
type ConversionError struct {
	Input string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("quantity %q is not a number: %v", e.Input, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ImageChecker decides whether a product image can be displayed
type ImageChecker interface {
	Reachable(ctx context.Context, src string) bool
}

// View is the projected label, ready to render
type View struct {
	ProductName      string
	Quantity         int
	SKU              string
	Image            string // empty means no image slot
	ImagePlaceholder bool
	Symbol           *barcode.Symbol
}

// ParseQuantity reads the leading integer of the typed quantity, so "2.5"
// shows as 2 and "7abc" as 7. Text without leading digits falls back to
// DefaultQuantity.
func ParseQuantity(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultQuantity, nil
	}

	end := 0
	if trimmed[0] == '+' || trimmed[0] == '-' {
		end = 1
	}
	digits := end
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	if end == digits {
		return DefaultQuantity, &ConversionError{Input: raw, Err: strconv.ErrSyntax}
	}

	n, err := strconv.Atoi(trimmed[:end])
	if err != nil {
		return DefaultQuantity, &ConversionError{Input: raw, Err: err}
	}
	return n, nil
}

// ResolveImage returns the image source to display for src. Without a
// checker every safe source is shown as is.
func ResolveImage(ctx context.Context, checker ImageChecker, src string) (resolved string, placeholder bool) {
	resolved, placeholder = displayImage(src)
	if resolved == "" || placeholder || checker == nil {
		return resolved, placeholder
	}
	if !checker.Reachable(ctx, src) {
		return images.Placeholder, true
	}
	return src, false
}

// displayImage decides what to show before reachability is known
func displayImage(src string) (string, bool) {
	if src == "" {
		return "", false
	}
	if !safeImageSource(src) {
		return images.Placeholder, true
	}
	return src, false
}

func safeImageSource(src string) bool {
	return strings.HasPrefix(src, "http://") ||
		strings.HasPrefix(src, "https://") ||
		strings.HasPrefix(src, "data:image/")
}

// EncodeSymbol encodes sku, returning nil for an empty or unencodable sku
func EncodeSymbol(sku string, geometry barcode.Geometry) *barcode.Symbol {
	if sku == "" {
		return nil
	}
	sym, err := barcode.Encode(sku, geometry)
	if err != nil {
		slog.Warn("Failed to encode barcode", "sku", sku, "error", err)
		return nil
	}
	return sym
}

// Project builds the view for a record without touching any renderer state
func Project(ctx context.Context, r models.LabelRecord, checker ImageChecker, geometry barcode.Geometry) View {
	v := projectFields(ctx, r, checker)
	v.Symbol = EncodeSymbol(r.SKU, geometry)
	return v
}

func projectFields(ctx context.Context, r models.LabelRecord, checker ImageChecker) View {
	quantity, err := ParseQuantity(r.Quantity)
	if err != nil {
		slog.Debug("Using default quantity", "error", err)
	}

	name := r.ProductName
	if name == "" {
		name = DefaultProductName
	}

	img, placeholder := ResolveImage(ctx, checker, r.ProductImage)

	return View{
		ProductName:      name,
		Quantity:         quantity,
		SKU:              r.SKU,
		Image:            img,
		ImagePlaceholder: placeholder,
	}
}
