package extractor

import (
	"github.com/a3tai/gst-invoice-extractor/internal/invoice"
	"github.com/a3tai/gst-invoice-extractor/internal/pdf"
)

// Result is the outcome of extracting one document.
type Result struct {
	Name       string
	Header     invoice.Header
	Items      []invoice.LineItem
	ItemSource invoice.ItemSource
	Text       string
	TextSource pdf.TextSource
	Pages      int
	Tables     int
	Inspection *pdf.Inspection
	Warnings   []error
}

// Rows flattens the result into consolidated rows.
func (r *Result) Rows() []invoice.Row {
	return invoice.Flatten(r.Header, r.Items)
}

// Summary returns the single-document summary with a text preview.
func (r *Result) Summary() invoice.Summary {
	return invoice.NewSummary(r.Header, r.Text)
}

// WarningMessages returns the warnings as strings, for serialization.
func (r *Result) WarningMessages() []string {
	if len(r.Warnings) == 0 {
		return []string{}
	}
	msgs := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		msgs = append(msgs, w.Error())
	}
	return msgs
}

// BatchResult collects the results of a batch in input order.
type BatchResult struct {
	Results []*Result
	Rows    []invoice.Row
}

func (b *BatchResult) add(r *Result) {
	b.Results = append(b.Results, r)
	b.Rows = append(b.Rows, r.Rows()...)
}

// Stats summarizes a batch.
type Stats struct {
	Documents int `json:"documents"`
	Rows      int `json:"rows"`
	TextLayer int `json:"text_layer"`
	OCR       int `json:"ocr"`
	NoText    int `json:"no_text"`
	Warnings  int `json:"warnings"`
}

// Stats counts documents by text source along with rows and warnings.
func (b *BatchResult) Stats() Stats {
	stats := Stats{Documents: len(b.Results), Rows: len(b.Rows)}
	for _, r := range b.Results {
		switch r.TextSource {
		case pdf.SourceTextLayer:
			stats.TextLayer++
		case pdf.SourceOCR:
			stats.OCR++
		default:
			stats.NoText++
		}
		stats.Warnings += len(r.Warnings)
	}
	return stats
}
