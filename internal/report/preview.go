package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/a3tai/gst-invoice-extractor/internal/invoice"
)

// PreviewRows is the default number of rows shown by WritePreview.
const PreviewRows = 100

// WritePreview prints the first n rows as an aligned table.
func WritePreview(w io.Writer, rows []invoice.Row, n int) error {
	if n <= 0 || n > len(rows) {
		n = len(rows)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(invoice.RowColumns, "\t"))
	for _, row := range rows[:n] {
		fmt.Fprintln(tw, strings.Join(row.Values(), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}

	if n < len(rows) {
		_, err := fmt.Fprintf(w, "... %d more rows\n", len(rows)-n)
		return err
	}
	return nil
}
