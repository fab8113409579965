package printer

import (
	"bytes"
	"html/template"
	"strings"
)

// Physical label size. The @page rule built from these is what printers key on.
const (
	PageWidth  = "10cm"
	PageHeight = "15cm"
)

// Document is a standalone printable label. It is rebuilt for every print and never stored.
type Document struct {
	HTML   string
	Markup string
	Styles []string
}

var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Etiqueta JQ Shop</title>
<style>
{{.Styles}}
@page {
  size: {{.Width}} {{.Height}};
  margin: 0;
}
body {
  margin: 0;
  padding: 0;
  background-color: white;
}
.print-container {
  width: {{.Width}};
  height: {{.Height}};
  margin: 0;
  padding: 0;
  box-sizing: border-box;
  font-family: Arial, sans-serif;
  position: relative;
  overflow: hidden;
}
.{{.Marker}} {
  width: {{.Width}} !important;
  height: {{.Height}} !important;
  max-width: none !important;
  max-height: none !important;
  aspect-ratio: auto !important;
  border: none !important;
  box-shadow: none !important;
  margin: 0 !important;
}
</style>
</head>
<body>
<div class="print-container">
{{.Markup}}
</div>
</body>
</html>
`))

type shellData struct {
	Styles template.CSS
	Width  template.CSS
	Height template.CSS
	Marker template.CSS
	Markup template.HTML
}

// wrap places the label markup and collected styles into the page shell
func wrap(markup string, styles []string, marker string) (*Document, error) {
	joined := strings.Join(styles, "\n")
	// a collected sheet must not be able to close the style element
	joined = strings.ReplaceAll(joined, "</style", `<\/style`)

	var buf bytes.Buffer
	err := shellTemplate.Execute(&buf, shellData{
		Styles: template.CSS(joined),
		Width:  PageWidth,
		Height: PageHeight,
		Marker: template.CSS(marker),
		Markup: template.HTML(markup),
	})
	if err != nil {
		return nil, err
	}

	return &Document{
		HTML:   buf.String(),
		Markup: markup,
		Styles: styles,
	}, nil
}
