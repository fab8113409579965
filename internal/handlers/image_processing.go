package handlers

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"net/url"
)

// ImageInfo describes an accepted product image upload
type ImageInfo struct {
	Filename string `json:"filename"`
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bytes    int    `json:"bytes"`
}

// inspectImage rejects uploads that are not a decodable image
func inspectImage(fileData []byte, filename string) (*ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(fileData))
	if err != nil {
		return nil, fmt.Errorf("unsupported image %s: %w", filename, err)
	}

	slog.Info("Product image received", "filename", filename, "format", format, "width", cfg.Width, "height", cfg.Height)

	return &ImageInfo{
		Filename: filename,
		Format:   format,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Bytes:    len(fileData),
	}, nil
}

func validateImageURL(imageURL string) error {
	u, err := url.Parse(imageURL)
	if err != nil {
		return fmt.Errorf("invalid image_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("image_url must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("image_url must include a host")
	}
	return nil
}
