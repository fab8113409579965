// Package catalog loads label records from files for the render command.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/jqshop/labelgen/internal/models"
)

// ErrProductNotFound is returned when a SKU is missing from a product file
var ErrProductNotFound = errors.New("product not found")

// Product is one row of a Parquet product file
type Product struct {
	SKU      string `parquet:"sku"`
	Name     string `parquet:"name"`
	Quantity int64  `parquet:"quantity"`
	ImageURL string `parquet:"image_url,optional"`
}

// Record converts a product row into a label record
func (p Product) Record() models.LabelRecord {
	return models.LabelRecord{
		ProductName:  p.Name,
		Quantity:     strconv.FormatInt(p.Quantity, 10),
		SKU:          p.SKU,
		ProductImage: p.ImageURL,
	}
}

// LoadRecord reads a single label record from a YAML file
func LoadRecord(path string) (models.LabelRecord, error) {
	var rec models.LabelRecord

	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("failed to read record file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to parse record file %s: %w", path, err)
	}

	slog.Debug("Loaded label record", "path", path, "sku", rec.SKU)
	return rec, nil
}

// SaveRecord writes a label record as YAML
func SaveRecord(path string, rec models.LabelRecord) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write record file: %w", err)
	}
	return nil
}

// LoadProducts reads every row of a Parquet product file
func LoadProducts(path string) ([]Product, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".parquet" {
		return nil, fmt.Errorf("unsupported product file format: %s (supported: .parquet)", ext)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open product file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Product file opened", "path", path, "num_rows", pf.NumRows())

	reader := parquet.NewGenericReader[Product](pf)
	defer reader.Close()

	var products []Product
	rows := make([]Product, 128)
	for {
		n, err := reader.Read(rows)
		products = append(products, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read products: %w", err)
		}
	}

	return products, nil
}

// FindProduct returns the label record for sku from a Parquet product file
func FindProduct(path, sku string) (models.LabelRecord, error) {
	products, err := LoadProducts(path)
	if err != nil {
		return models.LabelRecord{}, err
	}
	for _, p := range products {
		if p.SKU == sku {
			return p.Record(), nil
		}
	}
	return models.LabelRecord{}, fmt.Errorf("%w: %s", ErrProductNotFound, sku)
}
