// Package pdftest builds small text PDFs in memory for tests.
package pdftest

import (
	"fmt"
	"strings"
)

// FontSize is the size every line is set in.
const FontSize = 10

// Line is a run of text whose baseline starts at (X, Y).
type Line struct {
	X, Y float64
	Text string
}

// Page is the text placed on one page.
type Page []Line

// Build returns a PDF with one page per argument, set in Courier with an
// explicit width table so glyph advances are known. A page with no lines
// carries no text, like a scanned page.
func Build(pages ...Page) []byte {
	var b strings.Builder
	var offsets []int

	startObject := func() {
		offsets = append(offsets, b.Len())
	}

	b.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	// Object 1 - Catalog
	startObject()
	b.WriteString("1 0 obj\n<<\n/Type /Catalog\n/Pages 2 0 R\n>>\nendobj\n")

	// Object 2 - Pages
	startObject()
	fmt.Fprintf(&b, "2 0 obj\n<<\n/Type /Pages\n/Kids [%s]\n/Count %d\n>>\nendobj\n",
		strings.Join(kids, " "), len(pages))

	// Object 3 - Font
	startObject()
	fmt.Fprintf(&b, "3 0 obj\n<<\n/Type /Font\n/Subtype /Type1\n/BaseFont /Courier\n"+
		"/Encoding /WinAnsiEncoding\n/FirstChar 32\n/LastChar 126\n/Widths [%s]\n>>\nendobj\n",
		strings.TrimSpace(strings.Repeat("600 ", 126-32+1)))

	for i, page := range pages {
		pageObj, contentObj := 4+2*i, 5+2*i

		startObject()
		fmt.Fprintf(&b, "%d 0 obj\n<<\n/Type /Page\n/Parent 2 0 R\n/MediaBox [0 0 612 792]\n"+
			"/Contents %d 0 R\n/Resources <<\n/Font <<\n/F1 3 0 R\n>>\n>>\n>>\nendobj\n", pageObj, contentObj)

		content := pageContent(page)
		startObject()
		fmt.Fprintf(&b, "%d 0 obj\n<<\n/Length %d\n>>\nstream\n%sendstream\nendobj\n",
			contentObj, len(content), content)
	}

	// Cross-reference table
	xrefStart := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}

	// Trailer
	fmt.Fprintf(&b, "trailer\n<<\n/Size %d\n/Root 1 0 R\n>>\nstartxref\n%d\n%%%%EOF", len(offsets)+1, xrefStart)

	return []byte(b.String())
}

func pageContent(page Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BT\n/F1 %d Tf\n", FontSize)
	for _, line := range page {
		fmt.Fprintf(&b, "1 0 0 1 %.2f %.2f Tm\n(%s) Tj\n", line.X, line.Y, escape(line.Text))
	}
	b.WriteString("ET\n")
	return b.String()
}

var escaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

func escape(s string) string {
	return escaper.Replace(s)
}

// Rows lays out rows of cells top to bottom starting at y, one cell per
// column x position, 14 points apart.
func Rows(y float64, columns []float64, rows ...[]string) Page {
	var page Page
	for r, cells := range rows {
		for c, cell := range cells {
			if c >= len(columns) || cell == "" {
				continue
			}
			page = append(page, Line{X: columns[c], Y: y - float64(14*r), Text: cell})
		}
	}
	return page
}
