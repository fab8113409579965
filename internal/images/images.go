package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Placeholder replaces product images that cannot be loaded
const Placeholder = "data:image/svg+xml;base64," +
	"PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHdpZHRoPSIyMDAiIGhlaWdodD0iMjAwIiB2aWV3Qm94PSIwIDAgMjAwIDIw" +
	"MCI+PHJlY3Qgd2lkdGg9IjIwMCIgaGVpZ2h0PSIyMDAiIGZpbGw9IiNlNWU3ZWIiLz48cGF0aCBkPSJNNjAgMTQwbDMwLTQwIDIwIDI1IDE1LTE1" +
	"IDE1IDMweiIgZmlsbD0iIzljYTNhZiIvPjxjaXJjbGUgY3g9IjEyNSIgY3k9IjcwIiByPSIxMiIgZmlsbD0iIzljYTNhZiIvPjwvc3ZnPg=="

var ErrEmptyImage = errors.New("empty image data")

// Prober checks whether a product image source can be loaded
type Prober struct {
	HTTPClient *http.Client
	cache      *cache.Cache
}

// NewProber creates a prober whose HTTP checks give up after timeout
func NewProber(timeout time.Duration) *Prober {
	return &Prober{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Reachable reports whether src resolves to an image. Results are cached per source.
func (p *Prober) Reachable(ctx context.Context, src string) bool {
	if src == "" {
		return false
	}
	if ok, found := p.cache.Get(src); found {
		return ok.(bool)
	}

	var ok bool
	switch {
	case strings.HasPrefix(src, "data:"):
		ok = dataURIReachable(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		ok = p.httpReachable(ctx, src)
	default:
		slog.Debug("Unsupported image source", "src", truncate(src))
	}

	p.cache.SetDefault(src, ok)
	return ok
}

func (p *Prober) httpReachable(ctx context.Context, src string) bool {
	resp, err := p.request(ctx, http.MethodHead, src)
	if err == nil && resp.StatusCode == http.StatusMethodNotAllowed {
		resp, err = p.request(ctx, http.MethodGet, src)
	}
	if err != nil {
		slog.Warn("Product image unreachable", "src", src, "error", err)
		return false
	}

	if resp.StatusCode != http.StatusOK {
		slog.Warn("Product image unreachable", "src", src, "status", resp.StatusCode)
		return false
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		slog.Warn("Product image has non-image content type", "src", src, "content_type", contentType)
		return false
	}
	return true
}

func (p *Prober) request(ctx context.Context, method, src string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	resp.Body.Close()
	return resp, nil
}

func dataURIReachable(src string) bool {
	data, err := DecodeDataURI(src)
	if err != nil || len(data) == 0 {
		return false
	}
	if strings.HasPrefix(src, "data:image/svg+xml") {
		return bytes.Contains(data, []byte("<svg"))
	}
	_, _, err = image.DecodeConfig(bytes.NewReader(data))
	return err == nil
}

// EncodeDataURI embeds raw image bytes as a base64 data URI
func EncodeDataURI(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}

	mimeType := http.DetectContentType(data)
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		mimeType = "image/" + format
		slog.Debug("Decoded product image", "format", format, "width", cfg.Width, "height", cfg.Height)
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}

	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURI returns the payload of a base64 data URI
func DecodeDataURI(src string) ([]byte, error) {
	header, payload, found := strings.Cut(src, ",")
	if !found || !strings.HasPrefix(header, "data:") {
		return nil, fmt.Errorf("not a data URI")
	}
	if !strings.HasSuffix(header, ";base64") {
		return []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	return data, nil
}

func truncate(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
