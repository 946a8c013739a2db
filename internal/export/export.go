// Package export serializes scraped product records to the JSON, TXT and
// CSV artifacts. Every writer buffers the complete output and renames a
// temporary file into place, so a failed write never leaves a partial
// file behind.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joedrozd/aiamazonseo/internal/models"
)

const separatorWidth = 50

// WriteJSON writes the full record set as a pretty-printed UTF-8 JSON
// array, missing fields included as null/empty sentinels.
func WriteJSON(products []models.Product, path string) error {
	if products == nil {
		products = []models.Product{}
	}

	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal products to JSON: %w", err)
	}

	return writeAtomic(path, append(data, '\n'))
}

// WriteTXT writes a numbered human-readable block per product.
func WriteTXT(products []models.Product, path string) error {
	var buf bytes.Buffer

	buf.WriteString("AMAZON PRODUCT LINKS\n")
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	for i, product := range products {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, orNA(product.Title))
		fmt.Fprintf(&buf, "   Link: %s\n", orNA(product.URL))
		fmt.Fprintf(&buf, "   Price: %s\n", orNA(product.Price))
		fmt.Fprintf(&buf, "   Rating: %s\n", orNA(formatRating(product.Rating)))
		fmt.Fprintf(&buf, "   Keyword: %s\n", orNA(product.SearchKeyword))
		buf.WriteString(strings.Repeat("-", separatorWidth) + "\n\n")
	}

	return writeAtomic(path, buf.Bytes())
}

// WriteCSV writes the link/price-focused export: one row per record under
// a fixed header. ASIN, image URL and review counts are deliberately not
// part of this format.
func WriteCSV(products []models.Product, path string) error {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Title", "URL", "Price", "Rating", "Search Keyword"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, product := range products {
		row := []string{
			product.Title,
			product.URL,
			product.Price,
			formatRating(product.Rating),
			product.SearchKeyword,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	return writeAtomic(path, buf.Bytes())
}

func formatRating(rating *float64) string {
	if rating == nil {
		return ""
	}
	return strconv.FormatFloat(*rating, 'g', -1, 64)
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}

// writeAtomic stages the content in a temporary file next to the target
// and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	return nil
}
