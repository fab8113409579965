package barcode

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDeterministic(t *testing.T) {
	a, err := Encode("SKU4821", DefaultGeometry())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	b, err := Encode("SKU4821", DefaultGeometry())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if !a.Equal(b) {
		t.Error("Expected identical symbols for identical input")
	}
	if a.SVG() != b.SVG() {
		t.Error("Expected identical SVG output for identical input")
	}
}

func TestEncodeStructure(t *testing.T) {
	sym, err := Encode("SKU123456789", DefaultGeometry())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// start + data + checksum symbols are 11 modules each, stop is 13
	if len(sym.Modules)%11 != 2 {
		t.Errorf("Unexpected module count %d", len(sym.Modules))
	}
	if !sym.Modules[0] || !sym.Modules[len(sym.Modules)-1] {
		t.Error("Expected symbol to start and end with a bar")
	}
	if sym.Width() != len(sym.Modules)*2 {
		t.Errorf("Expected width %d, got %d", len(sym.Modules)*2, sym.Width())
	}
	if sym.Height() != 60 {
		t.Errorf("Expected height 60, got %d", sym.Height())
	}

	prevEnd := -1
	for _, bar := range sym.Bars() {
		if bar.X <= prevEnd {
			t.Fatalf("Bars overlap or are out of order at x=%d", bar.X)
		}
		if bar.Width%2 != 0 {
			t.Errorf("Bar width %d is not a multiple of the module width", bar.Width)
		}
		prevEnd = bar.X + bar.Width
	}
}

func TestEncodeDifferentPayloads(t *testing.T) {
	a, err := Encode("SKU4821", DefaultGeometry())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode("SKU4822", DefaultGeometry())
	if err != nil {
		t.Fatal(err)
	}
	if a.Equal(b) {
		t.Error("Expected different symbols for different payloads")
	}
}

func TestEncodeMargin(t *testing.T) {
	g := DefaultGeometry()
	g.Margin = 10
	sym, err := Encode("BOX555123789", g)
	if err != nil {
		t.Fatal(err)
	}
	bars := sym.Bars()
	if bars[0].X != 10 {
		t.Errorf("Expected first bar at margin 10, got %d", bars[0].X)
	}
	if sym.Height() != 80 {
		t.Errorf("Expected height 80 with margin, got %d", sym.Height())
	}
}

func TestEncodeZeroGeometryUsesDefaults(t *testing.T) {
	want, err := Encode("SKU4821", DefaultGeometry())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		geometry Geometry
	}{
		{name: "zero module width", geometry: Geometry{Symbology: CODE128, Height: want.Geometry.Height, Margin: want.Geometry.Margin}},
		{name: "negative module width", geometry: Geometry{Symbology: CODE128, ModuleWidth: -3, Height: want.Geometry.Height, Margin: want.Geometry.Margin}},
		{name: "zero value", geometry: Geometry{Margin: want.Geometry.Margin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, err := Encode("SKU4821", tt.geometry)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if sym.Geometry.ModuleWidth != DefaultGeometry().ModuleWidth {
				t.Errorf("Expected module width %d, got %d", DefaultGeometry().ModuleWidth, sym.Geometry.ModuleWidth)
			}
			if sym.Width() != want.Width() || sym.Height() != want.Height() {
				t.Errorf("Expected %dx%d, got %dx%d", want.Width(), want.Height(), sym.Width(), sym.Height())
			}
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		geometry Geometry
		want     error
	}{
		{
			name:     "empty payload",
			payload:  "",
			geometry: DefaultGeometry(),
			want:     ErrEmptyPayload,
		},
		{
			name:     "non ascii payload",
			payload:  "Caneca ção",
			geometry: DefaultGeometry(),
			want:     ErrUnsupportedCharacter,
		},
		{
			name:     "unsupported symbology",
			payload:  "SKU1",
			geometry: Geometry{Symbology: "EAN13"},
			want:     ErrUnsupportedSymbology,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, err := Encode(tt.payload, tt.geometry)
			if sym != nil {
				t.Error("Expected no symbol on failure")
			}
			var encErr *EncodingError
			if !errors.As(err, &encErr) {
				t.Fatalf("Expected *EncodingError, got %T (%v)", err, err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSVG(t *testing.T) {
	sym, err := Encode(`A<B>"C`, DefaultGeometry())
	if err != nil {
		t.Fatal(err)
	}
	svg := sym.SVG()

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Errorf("Expected a single svg element, got %s", svg)
	}
	if !strings.Contains(svg, `data-payload="A&lt;B&gt;&#34;C"`) {
		t.Errorf("Expected escaped payload attribute, got %s", svg)
	}
	if got := strings.Count(svg, `fill="#000000"`); got != len(sym.Bars()) {
		t.Errorf("Expected %d bars, got %d", len(sym.Bars()), got)
	}
	if strings.Contains(svg, "<text") {
		t.Error("Expected no human readable text when DisplayValue is false")
	}
}
