package report

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/gst-invoice-extractor/internal/extractor"
	"github.com/a3tai/gst-invoice-extractor/internal/invoice"
)

func sampleResult(name string) *extractor.Result {
	return &extractor.Result{
		Name: name,
		Header: invoice.Header{
			SourceFile:    name,
			InvoiceNumber: "INV-1",
			InvoiceType:   invoice.TypeTaxInvoice,
			VendorName:    "Café Traders",
			TotalValue:    118,
		},
		Items: []invoice.LineItem{
			{Description: "Pen, blue", Quantity: "10", UnitPrice: "5", TaxableValue: "50"},
			{Description: "Ink", Quantity: "1", UnitPrice: "50", TaxableValue: "50"},
		},
		Text: strings.Repeat("line\n", 40) + "tail",
	}
}

func TestWriteConsolidatedCSV(t *testing.T) {
	r := sampleResult("a.pdf")
	var buf bytes.Buffer
	require.NoError(t, WriteConsolidatedCSV(&buf, r.Rows()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, invoice.RowColumns, records[0])
	assert.Equal(t, []string{"a.pdf", "INV-1", "", invoice.TypeTaxInvoice, "", "", "Pen, blue", "10", "5", "50"}, records[1])
}

func TestWriteConsolidatedCSV_NoRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteConsolidatedCSV(&buf, nil))
	assert.Equal(t, strings.Join(invoice.RowColumns, ",")+"\n", buf.String())
}

func TestWriteItemsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteItemsCSV(&buf, []invoice.LineItem{{}}))
	assert.Equal(t, "item_description,quantity,unit_price,taxable_value\n,,,\n", buf.String())
}

func TestWriteSummaryJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryJSON(&buf, sampleResult("a.pdf").Header))

	out := buf.String()
	assert.Contains(t, out, "\n  \"invoice_number\": \"INV-1\",")
	assert.Contains(t, out, "Café Traders", "non-ASCII is kept")
	assert.Contains(t, out, "\"igst\": 0")
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := map[string]string{}
	for _, f := range zr.File {
		assert.Equal(t, zip.Deflate, f.Method)
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		files[f.Name] = string(content)
	}
	return files
}

func TestWriteBundle(t *testing.T) {
	var buf bytes.Buffer
	results := []*extractor.Result{sampleResult("april.pdf"), sampleResult("dup.pdf"), sampleResult("dup.pdf")}
	require.NoError(t, WriteBundle(&buf, results))

	files := readZip(t, buf.Bytes())
	assert.Len(t, files, 9)
	for _, name := range []string{
		"april_summary.json", "april_items.csv", "april_raw.txt",
		"dup_summary.json", "dup_2_summary.json", "dup_2_raw.txt",
	} {
		assert.Contains(t, files, name)
	}

	var header map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(files["april_summary.json"]), &header))
	assert.Len(t, header, 15)
	assert.NotContains(t, header, "raw_text_extracted")

	assert.Len(t, strings.Split(files["april_raw.txt"], "\n"), invoice.SnippetLines)
	assert.True(t, strings.HasPrefix(files["april_items.csv"], "item_description,"))
}

func TestWriteBatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r := sampleResult("a.pdf")
	batch := &extractor.BatchResult{Results: []*extractor.Result{r}, Rows: r.Rows()}

	csvPath, zipPath, err := WriteBatch(dir, batch)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ConsolidatedFileName), csvPath)
	assert.Equal(t, filepath.Join(dir, BundleFileName), zipPath)

	data, err := os.ReadFile(zipPath)
	require.NoError(t, err)
	assert.Len(t, readZip(t, data), 3)
}

func TestWriteSingle(t *testing.T) {
	dir := t.TempDir()
	summaryPath, itemsPath, err := WriteSingle(dir, sampleResult("scans/may.pdf"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "may_summary.json"), summaryPath)
	assert.Equal(t, filepath.Join(dir, "may_items.csv"), itemsPath)

	data, err := os.ReadFile(summaryPath)
	require.NoError(t, err)

	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Len(t, summary, 16)
	assert.True(t, strings.HasSuffix(summary["raw_text_extracted"].(string), "..."))
}

func TestWritePreview(t *testing.T) {
	rows := sampleResult("a.pdf").Rows()

	var buf bytes.Buffer
	require.NoError(t, WritePreview(&buf, rows, 1))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "source_file"))
	assert.Equal(t, "... 1 more rows", lines[2])

	buf.Reset()
	require.NoError(t, WritePreview(&buf, rows, 0))
	assert.Len(t, strings.Split(strings.TrimRight(buf.String(), "\n"), "\n"), 3)
}
