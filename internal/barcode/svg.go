package barcode

import (
	"fmt"
	"html"
	"strings"
)

// SVG renders the symbol as a standalone <svg> element. The payload is carried
// in data-payload so a printed document can be checked against its record.
func (s *Symbol) SVG() string {
	var b strings.Builder
	w, h := s.Width(), s.Height()
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" class="label-barcode" data-payload="%s" width="%d" height="%d" viewBox="0 0 %d %d" preserveAspectRatio="none">`,
		html.EscapeString(s.Payload), w, h, w, h)
	fmt.Fprintf(&b, `<rect x="0" y="0" width="%d" height="%d" fill="#ffffff"/>`, w, h)
	for _, bar := range s.Bars() {
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="#000000"/>`,
			bar.X, s.Geometry.Margin, bar.Width, s.Geometry.Height)
	}
	if s.Geometry.DisplayValue {
		fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="middle" font-family="monospace" font-size="14">%s</text>`,
			w/2, h, html.EscapeString(s.Payload))
	}
	b.WriteString(`</svg>`)
	return b.String()
}
