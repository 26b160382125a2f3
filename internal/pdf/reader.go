package pdf

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	pdferrors "github.com/a3tai/gst-invoice-extractor/internal/pdf/errors"
)

const (
	// rowTolerance is how far apart two baselines may be and still share a row.
	rowTolerance = 2.0
	// cellGapFactor times the font size separates two table cells.
	cellGapFactor = 1.5
	// spaceGapFactor times the font size separates two words.
	spaceGapFactor  = 0.2
	defaultFontSize = 10.0
	// glyphWidthFactor estimates an advance when the font carries no widths.
	glyphWidthFactor = 0.5
	// firstGapFactor times the font size bounds the gap between the first
	// two rows of a table.
	firstGapFactor = 2.5
	// pitchGapFactor times a table's row pitch ends the table.
	pitchGapFactor = 1.5
)

// Layer is the text layer of a document, one entry per page.
type Layer struct {
	Pages  []string
	Tables []Table
}

// Reader reads the embedded text layer of a PDF.
type Reader struct {
	maxTextSize int
}

// NewReader creates a new text layer reader
func NewReader() *Reader {
	return &Reader{
		maxTextSize: 10 * 1024 * 1024, // 10MB text limit
	}
}

// Read extracts page texts and tables from PDF bytes. A page that fails is
// recorded as "" with a warning; a document that cannot be opened yields an
// empty layer with a single warning.
func (r *Reader) Read(data []byte) (layer *Layer, warnings []error) {
	layer = &Layer{}

	defer func() {
		if rec := recover(); rec != nil {
			warnings = append(warnings, pdferrors.Newf(pdferrors.StageOpen, "pdf library panic: %v", rec))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return layer, []error{pdferrors.New(pdferrors.StageOpen, fmt.Errorf("failed to open PDF: %w", err))}
	}

	totalLength := 0
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		rows, err := r.pageRows(reader, pageNum)
		if err != nil {
			warnings = append(warnings, pdferrors.New(pdferrors.StagePageText, err).WithPage(pageNum))
			layer.Pages = append(layer.Pages, "")
			continue
		}

		text := rowsText(rows)
		if totalLength+len(text) > r.maxTextSize {
			warnings = append(warnings, pdferrors.Newf(pdferrors.StagePageText,
				"text limit of %d bytes reached", r.maxTextSize).WithPage(pageNum))
			break
		}
		totalLength += len(text)

		layer.Pages = append(layer.Pages, text)
		for _, table := range detectTables(rows) {
			layer.Tables = append(layer.Tables, Table{Page: pageNum, Rows: table})
		}
	}

	return layer, warnings
}

// cell is a run of text within a row and its horizontal extent.
type cell struct {
	x0, x1 float64
	text   string
}

// textRow is one baseline of a page.
type textRow struct {
	y     float64
	size  float64
	cells []cell
}

// pageRows returns the rows of a page, top to bottom.
func (r *Reader) pageRows(reader *pdf.Reader, pageNum int) (rows []textRow, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			rows, err = nil, fmt.Errorf("page content panic: %v", rec)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, nil
	}

	for _, line := range groupRows(page.Content().Text) {
		cells := splitCells(line)
		if len(cells) == 0 {
			continue
		}
		row := textRow{y: line[0].Y, cells: cells}
		for _, g := range line {
			row.size = math.Max(row.size, fontSize(g))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// groupRows buckets glyphs sharing a baseline and orders the rows top to
// bottom, each row left to right.
func groupRows(texts []pdf.Text) [][]pdf.Text {
	type row struct {
		y      float64
		glyphs []pdf.Text
	}
	var rows []*row

	for _, t := range texts {
		if t.S == "" {
			continue
		}
		var target *row
		for _, candidate := range rows {
			if math.Abs(candidate.y-t.Y) < rowTolerance {
				target = candidate
				break
			}
		}
		if target == nil {
			target = &row{y: t.Y}
			rows = append(rows, target)
		}
		target.glyphs = append(target.glyphs, t)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	result := make([][]pdf.Text, 0, len(rows))
	for _, r := range rows {
		glyphs := r.glyphs
		sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })
		result = append(result, glyphs)
	}
	return result
}

// splitCells joins a row's glyphs into words and words into cells, breaking
// a cell wherever the horizontal gap is wider than the cell threshold.
// Blank glyphs do not count towards a cell's extent.
func splitCells(glyphs []pdf.Text) []cell {
	var cells []cell
	var current strings.Builder
	var span cell
	started := false

	flush := func() {
		if text := strings.Join(strings.Fields(current.String()), " "); text != "" {
			span.text = text
			cells = append(cells, span)
		}
		current.Reset()
		span, started = cell{}, false
	}

	prevEnd := 0.0
	for i, g := range glyphs {
		size := fontSize(g)
		if i > 0 {
			gap := g.X - prevEnd
			switch {
			case gap > size*cellGapFactor:
				flush()
			case gap > size*spaceGapFactor:
				current.WriteByte(' ')
			}
		}
		current.WriteString(g.S)
		prevEnd = g.X + glyphWidth(g)

		if strings.TrimSpace(g.S) != "" {
			if !started {
				span.x0, started = g.X, true
			}
			span.x1 = prevEnd
		}
	}
	flush()

	return cells
}

func fontSize(g pdf.Text) float64 {
	if g.FontSize > 0 {
		return g.FontSize
	}
	return defaultFontSize
}

func glyphWidth(g pdf.Text) float64 {
	if g.W > 0 {
		return g.W
	}
	return fontSize(g) * glyphWidthFactor * float64(textLength(g.S))
}

// rowsText renders rows as lines, cells separated by two spaces.
func rowsText(rows []textRow) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		texts := make([]string, len(row.cells))
		for i, c := range row.cells {
			texts[i] = c.text
		}
		lines = append(lines, strings.Join(texts, "  "))
	}
	return strings.Join(lines, "\n")
}

// detectTables returns runs of at least two consecutive rows of two or more
// cells. A run ends at a row set further below the previous one than the
// run's row pitch allows, or whose cells do not line up with the run's
// first row. Every row of a table is laid out on the first row's columns,
// missing cells as "".
func detectTables(rows []textRow) [][][]string {
	var tables [][][]string
	var run []textRow
	pitch := 0.0

	closeRun := func() {
		if len(run) >= 2 {
			table := make([][]string, 0, len(run))
			for _, row := range run {
				aligned, _ := alignCells(run[0].cells, row.cells)
				table = append(table, aligned)
			}
			tables = append(tables, table)
		}
		run, pitch = nil, 0
	}

	for _, row := range rows {
		if len(row.cells) < 2 {
			closeRun()
			continue
		}
		if len(run) > 0 && !continuesRun(run, pitch, row) {
			closeRun()
		}
		if len(run) > 0 {
			if gap := run[len(run)-1].y - row.y; pitch == 0 || gap < pitch {
				pitch = gap
			}
		}
		run = append(run, row)
	}
	closeRun()

	return tables
}

// continuesRun reports whether row belongs to the table run above it.
// Until a pitch is known the gap is bounded by the previous row's font size.
func continuesRun(run []textRow, pitch float64, row textRow) bool {
	prev := run[len(run)-1]
	limit := prev.size * firstGapFactor
	if pitch > 0 {
		limit = pitch * pitchGapFactor
	}
	if prev.y-row.y > limit {
		return false
	}
	_, ok := alignCells(run[0].cells, row.cells)
	return ok
}

// alignCells places each cell in the header column it overlaps most, or
// the nearest one when it overlaps none. It fails when two cells land in
// the same column.
func alignCells(header, cells []cell) ([]string, bool) {
	out := make([]string, len(header))
	used := make([]bool, len(header))
	for _, c := range cells {
		col := nearestColumn(header, c)
		if used[col] {
			return out, false
		}
		used[col] = true
		out[col] = c.text
	}
	return out, true
}

func nearestColumn(header []cell, c cell) int {
	best := 0
	bestOverlap, bestDistance := 0.0, math.Inf(1)
	for i, h := range header {
		overlap := math.Min(h.x1, c.x1) - math.Max(h.x0, c.x0)
		switch {
		case overlap > 0:
			if overlap > bestOverlap {
				best, bestOverlap = i, overlap
			}
		case bestOverlap == 0 && -overlap < bestDistance:
			best, bestDistance = i, -overlap
		}
	}
	return best
}
