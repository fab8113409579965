// Package barcode turns a label SKU into a drawable linear barcode.
package barcode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/boombuler/barcode/code128"
)

// Symbology names a linear barcode encoding scheme
type Symbology string

const (
	CODE128 Symbology = "CODE128"
)

var (
	ErrEmptyPayload         = errors.New("empty payload")
	ErrUnsupportedCharacter = errors.New("unsupported character")
	ErrUnsupportedSymbology = errors.New("unsupported symbology")
)

// EncodingError reports a payload that cannot be drawn with the requested symbology
type EncodingError struct {
	Payload   string
	Symbology Symbology
	Err       error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode %q as %s: %v", e.Payload, e.Symbology, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Geometry controls how a symbol is drawn
type Geometry struct {
	Symbology    Symbology
	ModuleWidth  int // width in px of the narrowest bar
	Height       int
	Margin       int
	DisplayValue bool
}

// DefaultGeometry matches the label layout: CODE128, 2px modules, 60px tall, no quiet zone, no text
func DefaultGeometry() Geometry {
	return Geometry{
		Symbology:   CODE128,
		ModuleWidth: 2,
		Height:      60,
	}
}

// Bar is one dark run of modules, in px
type Bar struct {
	X     int
	Width int
}

// Symbol is an encoded barcode ready to draw
type Symbol struct {
	Payload  string
	Geometry Geometry
	Modules  []bool // true = dark
}

// Encode produces the symbol for payload. The same payload and geometry always
// yield an identical symbol.
func Encode(payload string, geometry Geometry) (*Symbol, error) {
	if geometry.Symbology == "" {
		geometry.Symbology = CODE128
	}
	if geometry.ModuleWidth <= 0 {
		geometry.ModuleWidth = DefaultGeometry().ModuleWidth
	}
	if geometry.Height <= 0 {
		geometry.Height = DefaultGeometry().Height
	}
	if geometry.Margin < 0 {
		geometry.Margin = 0
	}

	fail := func(err error) (*Symbol, error) {
		return nil, &EncodingError{Payload: payload, Symbology: geometry.Symbology, Err: err}
	}

	if geometry.Symbology != CODE128 {
		return fail(ErrUnsupportedSymbology)
	}
	if payload == "" {
		return fail(ErrEmptyPayload)
	}
	// CODE128 covers ASCII 0-127 only
	if i := strings.IndexFunc(payload, func(r rune) bool { return r > 127 }); i >= 0 {
		return fail(fmt.Errorf("%w at byte %d", ErrUnsupportedCharacter, i))
	}

	code, err := code128.Encode(payload)
	if err != nil {
		return fail(err)
	}

	bounds := code.Bounds()
	modules := make([]bool, 0, bounds.Dx())
	for x := bounds.Min.X; x < bounds.Max.X; x++ {
		r, g, b, _ := code.At(x, bounds.Min.Y).RGBA()
		modules = append(modules, r == 0 && g == 0 && b == 0)
	}

	return &Symbol{
		Payload:  payload,
		Geometry: geometry,
		Modules:  modules,
	}, nil
}

// Width is the full drawing width in px, margins included
func (s *Symbol) Width() int {
	return len(s.Modules)*s.Geometry.ModuleWidth + 2*s.Geometry.Margin
}

// Height is the full drawing height in px, margins included
func (s *Symbol) Height() int {
	return s.Geometry.Height + 2*s.Geometry.Margin
}

// Bars collapses adjacent dark modules into bars
func (s *Symbol) Bars() []Bar {
	var bars []Bar
	mw := s.Geometry.ModuleWidth
	for i := 0; i < len(s.Modules); {
		if !s.Modules[i] {
			i++
			continue
		}
		start := i
		for i < len(s.Modules) && s.Modules[i] {
			i++
		}
		bars = append(bars, Bar{X: s.Geometry.Margin + start*mw, Width: (i - start) * mw})
	}
	return bars
}

// Equal reports whether two symbols draw the same bars
func (s *Symbol) Equal(other *Symbol) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Payload != other.Payload || s.Geometry != other.Geometry || len(s.Modules) != len(other.Modules) {
		return false
	}
	for i := range s.Modules {
		if s.Modules[i] != other.Modules[i] {
			return false
		}
	}
	return true
}
