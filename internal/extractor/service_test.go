package extractor

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/gst-invoice-extractor/internal/invoice"
	"github.com/a3tai/gst-invoice-extractor/internal/pdf"
	pdferrors "github.com/a3tai/gst-invoice-extractor/internal/pdf/errors"
	"github.com/a3tai/gst-invoice-extractor/internal/pdf/pdftest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// twoPageInvoice is a selectable-text invoice with one item table.
func twoPageInvoice() []byte {
	first := pdftest.Page{
		{X: 50, Y: 760, Text: "TAX INVOICE"},
		{X: 50, Y: 740, Text: "Supplier: ABC Traders"},
		{X: 50, Y: 725, Text: "Invoice No: INV-001"},
		{X: 50, Y: 710, Text: "Invoice Date: 25/04/2025"},
		{X: 50, Y: 695, Text: "GSTIN: 27ABCDE1234F1Z5"},
	}
	first = append(first, pdftest.Rows(640, []float64{50, 250, 330, 420},
		[]string{"Description", "Qty", "Rate", "Taxable Value"},
		[]string{"Laptop Stand", "2", "1,250.00", "2,500.00"},
	)...)

	second := pdftest.Page{
		{X: 50, Y: 760, Text: "Bill To: XYZ Enterprises"},
		{X: 50, Y: 745, Text: "Customer GSTIN: 29PQRSX5678K1Z2"},
		{X: 50, Y: 730, Text: "Taxable Value: 2,500.00"},
		{X: 50, Y: 715, Text: "CGST @ 9%: 225.00"},
		{X: 50, Y: 700, Text: "SGST @ 9%: 225.00"},
		{X: 50, Y: 685, Text: "Grand Total: 2,950.00"},
	}

	return pdftest.Build(first, second)
}

type stubRenderer struct{ pages int }

func (s stubRenderer) Name() string { return "stub" }

func (s stubRenderer) Render(context.Context, []byte) ([]image.Image, error) {
	images := make([]image.Image, s.pages)
	for i := range images {
		images[i] = image.NewGray(image.Rect(0, 0, 2, 2))
	}
	return images, nil
}

type stubRecognizer struct{ text string }

func (s stubRecognizer) Name() string { return "stub" }

func (s stubRecognizer) Recognize(context.Context, image.Image, string) (string, error) {
	return s.text, nil
}

func TestExtractDocument_TextLayerInvoice(t *testing.T) {
	svc := NewService(pdf.NewAcquirer(pdf.AcquirerConfig{Logger: quietLogger()}), nil, quietLogger())

	result := svc.ExtractDocument(context.Background(), Document{Name: "inv-001.pdf", Data: twoPageInvoice()}, Options{})

	assert.Empty(t, result.Warnings)
	assert.Equal(t, pdf.SourceTextLayer, result.TextSource)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, 1, result.Tables)
	assert.Equal(t, invoice.ItemsFromTablePath, result.ItemSource)

	h := result.Header
	assert.Equal(t, "inv-001.pdf", h.SourceFile)
	assert.Equal(t, "INV-001", h.InvoiceNumber)
	assert.Equal(t, "25/04/2025", h.InvoiceDate)
	assert.Equal(t, invoice.TypeTaxInvoice, h.InvoiceType)
	assert.Equal(t, "27ABCDE1234F1Z5", h.SupplierGSTIN)
	assert.Equal(t, "29PQRSX5678K1Z2", h.CustomerGSTIN)
	assert.Equal(t, "ABC Traders", h.VendorName)
	assert.Equal(t, "XYZ Enterprises", h.BuyerName)
	assert.Equal(t, 2500.0, h.TaxableValue)
	assert.Equal(t, 225.0, h.CGST)
	assert.Equal(t, 225.0, h.SGST)
	assert.Equal(t, 2950.0, h.TotalValue)

	rows := result.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "INV-001", rows[0].InvoiceNumber)
	assert.Equal(t, "27ABCDE1234F1Z5", rows[0].SupplierGSTIN)
	assert.Equal(t, "Laptop Stand", rows[0].ItemDescription)
	assert.Equal(t, "2", rows[0].Quantity)
	assert.Equal(t, "1,250.00", rows[0].UnitPrice)
	assert.Equal(t, "2,500.00", rows[0].TaxableValue)
}

func TestExtractDocument_ScannedInvoiceUsesOCR(t *testing.T) {
	acquirer := pdf.NewAcquirer(pdf.AcquirerConfig{
		Renderer:   stubRenderer{pages: 1},
		Recognizer: stubRecognizer{text: "TAX INVOICE\nInvoice No: SCAN-42\nGSTIN: 27ABCDE1234F1Z5\nGrand Total: 1,180.00"},
		Logger:     quietLogger(),
	})
	svc := NewService(acquirer, nil, quietLogger())

	result := svc.ExtractDocument(context.Background(), Document{Name: "scan.pdf", Data: pdftest.Build(pdftest.Page{})}, Options{})

	assert.Equal(t, pdf.SourceOCR, result.TextSource)
	assert.Equal(t, "SCAN-42", result.Header.InvoiceNumber)
	assert.Equal(t, 1180.0, result.Header.TotalValue)
	assert.Equal(t, invoice.ItemsPlaceholder, result.ItemSource)
	require.Len(t, result.Items, 1)
	assert.True(t, result.Items[0].IsEmpty())
}

func TestExtractDocument_UnreadableDocument(t *testing.T) {
	svc := NewService(pdf.NewAcquirer(pdf.AcquirerConfig{Logger: quietLogger()}), pdf.NewValidator(0), quietLogger())

	result := svc.ExtractDocument(context.Background(), Document{Name: "broken.pdf", Data: []byte("garbage")}, Options{})

	assert.Equal(t, pdf.SourceNone, result.TextSource)
	assert.Equal(t, "broken", result.Header.InvoiceNumber)
	assert.Nil(t, result.Inspection)
	require.Len(t, result.Rows(), 1)

	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, pdferrors.StageValidate, pdferrors.StageOf(result.Warnings[0]))
	for _, msg := range result.WarningMessages() {
		assert.Contains(t, msg, "broken.pdf")
	}
}

type scriptedAcquirer struct{}

func (scriptedAcquirer) Acquire(_ context.Context, data []byte, _ pdf.AcquireOptions) (*pdf.DocumentText, []error) {
	switch string(data) {
	case "panic":
		panic("boom")
	case "nil":
		return nil, nil
	}
	return &pdf.DocumentText{Pages: []string{string(data)}, Text: string(data), Source: pdf.SourceTextLayer}, nil
}

func TestExtractBatch_OrderAndFailures(t *testing.T) {
	svc := NewService(scriptedAcquirer{}, nil, quietLogger())

	docs := []Document{
		{Name: "a.pdf", Data: []byte("Invoice No: A-1\n1 Widget item  2  5.00  10.00\n2 Gadget item  1  7.50  7.50")},
		{Name: "b.pdf", Data: []byte("panic")},
		{Name: "c.pdf", Data: []byte("nil")},
	}

	batch, err := svc.ExtractBatch(context.Background(), docs, Options{})
	require.NoError(t, err)
	require.Len(t, batch.Results, 3)

	assert.Equal(t, "a.pdf", batch.Results[0].Name)
	assert.Equal(t, "A-1", batch.Results[0].Header.InvoiceNumber)
	assert.Len(t, batch.Results[0].Items, 2)

	assert.Equal(t, "b", batch.Results[1].Header.InvoiceNumber)
	require.Len(t, batch.Results[1].Warnings, 1)
	assert.Contains(t, batch.Results[1].Warnings[0].Error(), "boom")

	assert.Equal(t, pdf.SourceNone, batch.Results[2].TextSource)
	assert.Equal(t, "c", batch.Results[2].Header.InvoiceNumber)

	require.Len(t, batch.Rows, 4)
	assert.Equal(t, []string{"a.pdf", "a.pdf", "b.pdf", "c.pdf"}, []string{
		batch.Rows[0].SourceFile, batch.Rows[1].SourceFile, batch.Rows[2].SourceFile, batch.Rows[3].SourceFile,
	})

	assert.Equal(t, Stats{Documents: 3, Rows: 4, TextLayer: 1, OCR: 0, NoText: 2, Warnings: 1}, batch.Stats())
}

func TestExtractBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := NewService(scriptedAcquirer{}, nil, quietLogger()).
		ExtractBatch(ctx, []Document{{Name: "a.pdf", Data: []byte("x")}}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, batch.Results)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "april.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	doc, err := LoadFile(pdf.NewValidator(0), path)
	require.NoError(t, err)
	assert.Equal(t, "april.pdf", doc.Name)
	assert.Equal(t, []byte("%PDF-1.4"), doc.Data)

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = LoadFile(pdf.NewValidator(0), txt)
	assert.ErrorContains(t, err, "not a PDF")

	_, err = LoadFile(nil, filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
}

func TestResult_SummaryAndWarnings(t *testing.T) {
	r := &Result{Header: invoice.Header{SourceFile: "a.pdf"}, Text: "short text"}
	assert.Equal(t, "short text", r.Summary().RawTextExtracted)
	assert.Equal(t, []string{}, r.WarningMessages())
}
