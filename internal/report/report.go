// Package report renders extraction results as CSV, JSON and ZIP artifacts.
package report

import (
	"archive/zip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/a3tai/gst-invoice-extractor/internal/extractor"
	"github.com/a3tai/gst-invoice-extractor/internal/invoice"
)

// File names of the batch artifacts.
const (
	ConsolidatedFileName = "invoices_consolidated.csv"
	BundleFileName       = "per_invoice_outputs.zip"
)

// WriteConsolidatedCSV writes a header line followed by one line per row.
func WriteConsolidatedCSV(w io.Writer, rows []invoice.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(invoice.RowColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.Values()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteItemsCSV writes the line items of one document.
func WriteItemsCSV(w io.Writer, items []invoice.LineItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(invoice.ItemColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, item := range items {
		if err := cw.Write(item.Values()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryJSON writes v as two-space indented JSON. Non-ASCII text and
// HTML characters are written as is.
func WriteSummaryJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteBundle writes a deflate-compressed ZIP holding, per document,
// <base>_summary.json (the header), <base>_items.csv and <base>_raw.txt (the
// first lines of the extracted text). Documents sharing a base name get a
// numeric suffix.
func WriteBundle(w io.Writer, results []*extractor.Result) error {
	zw := zip.NewWriter(w)
	bases := newBaseNames()

	for _, r := range results {
		base := bases.next(r.Name)

		if err := writeZipEntry(zw, base+"_summary.json", func(w io.Writer) error {
			return WriteSummaryJSON(w, r.Header)
		}); err != nil {
			return err
		}

		if err := writeZipEntry(zw, base+"_items.csv", func(w io.Writer) error {
			return WriteItemsCSV(w, r.Items)
		}); err != nil {
			return err
		}

		if err := writeZipEntry(zw, base+"_raw.txt", func(w io.Writer) error {
			_, err := io.WriteString(w, invoice.RawSnippet(r.Text, invoice.SnippetLines))
			return err
		}); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish ZIP: %w", err)
	}
	return nil
}

func writeZipEntry(zw *zip.Writer, name string, write func(io.Writer) error) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := write(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// baseNames hands out unique artifact base names.
type baseNames map[string]int

func newBaseNames() baseNames { return baseNames{} }

func (b baseNames) next(name string) string {
	base := invoice.StripExtension(name)
	if base == "" {
		base = "document"
	}
	b[base]++
	if n := b[base]; n > 1 {
		return base + "_" + strconv.Itoa(n)
	}
	return base
}

// WriteBatch writes the consolidated CSV and the per-document ZIP into dir
// and returns their paths.
func WriteBatch(dir string, batch *extractor.BatchResult) (csvPath, zipPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	csvPath = filepath.Join(dir, ConsolidatedFileName)
	if err := writeFile(csvPath, func(w io.Writer) error {
		return WriteConsolidatedCSV(w, batch.Rows)
	}); err != nil {
		return "", "", err
	}

	zipPath = filepath.Join(dir, BundleFileName)
	if err := writeFile(zipPath, func(w io.Writer) error {
		return WriteBundle(w, batch.Results)
	}); err != nil {
		return "", "", err
	}

	return csvPath, zipPath, nil
}

// WriteSingle writes <base>_summary.json (header plus text preview) and
// <base>_items.csv for one document into dir and returns their paths.
func WriteSingle(dir string, result *extractor.Result) (summaryPath, itemsPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	base := newBaseNames().next(result.Name)

	summaryPath = filepath.Join(dir, base+"_summary.json")
	if err := writeFile(summaryPath, func(w io.Writer) error {
		return WriteSummaryJSON(w, result.Summary())
	}); err != nil {
		return "", "", err
	}

	itemsPath = filepath.Join(dir, base+"_items.csv")
	if err := writeFile(itemsPath, func(w io.Writer) error {
		return WriteItemsCSV(w, result.Items)
	}); err != nil {
		return "", "", err
	}

	return summaryPath, itemsPath, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	return write(f)
}
