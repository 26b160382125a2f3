package pdf

import (
	"strings"
	"unicode/utf8"
)

// TextSource records where a document's text came from.
type TextSource string

const (
	SourceTextLayer TextSource = "text_layer"
	SourceOCR       TextSource = "ocr"
	SourceNone      TextSource = "none"
)

const (
	// DefaultMinTextLength is the shortest text layer accepted before
	// falling back to OCR.
	DefaultMinTextLength = 20
	// DefaultOCRLanguage is the tesseract language code used when none is given.
	DefaultOCRLanguage = "eng"
	// DefaultDPI is the resolution pages are rendered at for OCR.
	DefaultDPI = 300

	pageSeparator = "\n\n"
)

// Table is a block of text rows split into cells. The first row is the
// header.
type Table struct {
	Page int        `json:"page"`
	Rows [][]string `json:"rows"`
}

// DocumentText is the text recovered from one PDF.
type DocumentText struct {
	Pages  []string   `json:"pages"`
	Text   string     `json:"text"`
	Tables []Table    `json:"tables"`
	Source TextSource `json:"source"`
}

// TableRows returns the rows of every table in page order.
func (d *DocumentText) TableRows() [][][]string {
	if d == nil || len(d.Tables) == 0 {
		return nil
	}
	rows := make([][][]string, 0, len(d.Tables))
	for _, t := range d.Tables {
		rows = append(rows, t.Rows)
	}
	return rows
}

// AcquireOptions controls a single Acquire call.
type AcquireOptions struct {
	OCRLanguage string
	ForceOCR    bool
}

func (o AcquireOptions) language() string {
	if lang := strings.TrimSpace(o.OCRLanguage); lang != "" {
		return lang
	}
	return DefaultOCRLanguage
}

// JoinPages joins page texts with a blank line and trims the result.
func JoinPages(pages []string) string {
	return strings.TrimSpace(strings.Join(pages, pageSeparator))
}

func textLength(s string) int {
	return utf8.RuneCountInString(s)
}

// FileInfo represents basic information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Inspection is the structural information pdfcpu reports for a document.
type Inspection struct {
	Pages     int    `json:"pages"`
	Version   string `json:"version"`
	Encrypted bool   `json:"encrypted"`
}
