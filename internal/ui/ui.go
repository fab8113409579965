// Package ui renders the host page the label preview is displayed in and
// serves its static assets.
package ui

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/jqshop/labelgen/internal/models"
	"github.com/jqshop/labelgen/internal/printer"
)

//go:embed static
var staticDir embed.FS

// StaticFS holds the page assets with the "static" prefix stripped
var StaticFS fs.FS

func init() {
	StaticFS, _ = fs.Sub(staticDir, "static")
}

// StaticPrefix is the URL path the assets are served under
const StaticPrefix = "/static/"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Gerador de Etiquetas</title>
<link rel="stylesheet" href="/static/app.css">
<style>
.label-preview-card { font-family: Arial, Helvetica, sans-serif; }
</style>
</head>
<body data-session="{{.SessionID}}" data-scanning="{{.Scanner.Active}}">
<header class="app-header"><h1>Gerador de Etiquetas</h1><p>Etiquetas de envio 10x15cm</p></header>
<main class="app-layout">
<section class="label-form">
<h2>Informações da Etiqueta</h2>
{{- if .Scanner.Active}}
<div class="scanner-panel" data-state="{{.Scanner.State}}">
<p>Scanner de Código de Barras Ativo</p>
<button type="button" data-action="stop-scan">Fechar Scanner</button>
</div>
{{- end}}
{{- if .Scanner.Error}}
<p class="scanner-error">{{.Scanner.Error}}</p>
{{- end}}
<label for="productName">Nome do Produto</label>
<input id="productName" data-field="productName" value="{{.Record.ProductName}}" placeholder="Digite o nome do produto">
<label for="quantity">Quantidade</label>
<input id="quantity" data-field="quantity" type="number" value="{{.Record.Quantity}}" placeholder="Digite a quantidade">
<label for="sku">SKU</label>
<input id="sku" data-field="sku" value="{{.Record.SKU}}" placeholder="Digite o SKU">
<label for="productImage">Imagem do Produto</label>
<input id="productImage" type="file" accept="image/*">
<div class="form-actions">
<button type="button" data-action="scan"{{if not .Scanner.CanStart}} disabled{{end}}>Escanear</button>
<button type="button" data-action="generate"{{if not .CanSubmit}} disabled{{end}}>Gerar Etiqueta</button>
<button type="button" data-action="print"{{if not .CanSubmit}} disabled{{end}}>Imprimir Etiqueta</button>
<button type="button" data-action="reset">Limpar</button>
</div>
<p id="status" role="status"></p>
</section>
<section class="preview-panel">
<h2>Visualização da Etiqueta</h2>
{{.Preview}}
<p>Esta etiqueta será impressa no formato vertical 10x15cm</p>
</section>
</main>
<script src="/static/app.js"></script>
</body>
</html>
`))

// PageData is everything the host page shows
type PageData struct {
	SessionID string
	Record    models.LabelRecord
	CanSubmit bool
	Scanner   models.ScannerView
	Preview   template.HTML
}

// RenderPage renders the full host page. An empty Preview leaves the label
// card out of the page entirely.
func RenderPage(data PageData) (string, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return buf.String(), nil
}

// Static serves the embedded assets. Mount it at StaticPrefix.
func Static() http.Handler {
	return http.StripPrefix(StaticPrefix, http.FileServer(http.FS(StaticFS)))
}

// ResolveStylesheet reads linked stylesheets served from the embedded assets.
// Sheets on other hosts are reported as cross-origin.
func ResolveStylesheet(_ context.Context, href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid stylesheet href %q: %w", href, err)
	}
	if u.Scheme != "" || u.Host != "" {
		return "", fmt.Errorf("%s: %w", href, printer.ErrCrossOrigin)
	}

	p := path.Clean("/" + u.Path)
	if !strings.HasPrefix(p, StaticPrefix) {
		return "", fmt.Errorf("stylesheet %s is not a static asset", href)
	}
	data, err := fs.ReadFile(StaticFS, strings.TrimPrefix(p, StaticPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to read stylesheet %s: %w", href, err)
	}
	return string(data), nil
}

// Styles is the styling context of the host page
func Styles() printer.StylingContext {
	return printer.HostStyles{Resolve: ResolveStylesheet}
}
