package invoice

import (
	"strings"
	"unicode/utf8"
)

const (
	// PreviewChars is the length of the raw text preview in a Summary.
	PreviewChars = 200
	// SnippetLines is the number of raw text lines kept in a document bundle.
	SnippetLines = 30

	truncationMarker = "..."
)

// Row is one line of the consolidated table: a document's header fields
// repeated for each of its line items.
type Row struct {
	SourceFile      string `json:"source_file"`
	InvoiceNumber   string `json:"invoice_number"`
	InvoiceDate     string `json:"invoice_date"`
	InvoiceType     string `json:"invoice_type"`
	SupplierGSTIN   string `json:"supplier_gstin"`
	CustomerGSTIN   string `json:"customer_gstin"`
	ItemDescription string `json:"item_description"`
	Quantity        string `json:"quantity"`
	UnitPrice       string `json:"unit_price"`
	TaxableValue    string `json:"taxable_value"`
}

// RowColumns is the column order of the consolidated table.
var RowColumns = []string{
	"source_file", "invoice_number", "invoice_date", "invoice_type",
	"supplier_gstin", "customer_gstin",
	"item_description", "quantity", "unit_price", "taxable_value",
}

// Values returns the row's fields in RowColumns order.
func (r Row) Values() []string {
	return []string{
		r.SourceFile, r.InvoiceNumber, r.InvoiceDate, r.InvoiceType,
		r.SupplierGSTIN, r.CustomerGSTIN,
		r.ItemDescription, r.Quantity, r.UnitPrice, r.TaxableValue,
	}
}

// ItemColumns is the column order of a per-document items table.
var ItemColumns = []string{"item_description", "quantity", "unit_price", "taxable_value"}

// Values returns the item's fields in ItemColumns order.
func (li LineItem) Values() []string {
	return []string{li.Description, li.Quantity, li.UnitPrice, li.TaxableValue}
}

// Flatten emits one Row per item. An empty item list is treated as a single
// empty item so a document never disappears from the consolidated table.
func Flatten(h Header, items []LineItem) []Row {
	if len(items) == 0 {
		items = []LineItem{{}}
	}
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, Row{
			SourceFile:      h.SourceFile,
			InvoiceNumber:   h.InvoiceNumber,
			InvoiceDate:     h.InvoiceDate,
			InvoiceType:     h.InvoiceType,
			SupplierGSTIN:   h.SupplierGSTIN,
			CustomerGSTIN:   h.CustomerGSTIN,
			ItemDescription: it.Description,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			TaxableValue:    it.TaxableValue,
		})
	}
	return rows
}

// Summary is the single-document record: header fields plus a short preview
// of the extracted text.
type Summary struct {
	Header
	RawTextExtracted string `json:"raw_text_extracted"`
}

// NewSummary combines a header with a preview of text.
func NewSummary(h Header, text string) Summary {
	return Summary{Header: h, RawTextExtracted: Preview(text, PreviewChars)}
}

// Preview returns the first n characters of text, followed by a truncation
// marker when text is longer.
func Preview(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + truncationMarker
}

// RawSnippet returns the first n lines of text.
func RawSnippet(text string, n int) string {
	if n <= 0 || text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
