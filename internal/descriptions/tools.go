package descriptions

import "sort"

// Tool descriptions shown to MCP clients

const (
	InvoiceExtractFileDescription = `Extract the GST header fields and line items of one invoice PDF.

**When to use:** You have a single invoice (digital or scanned) and need its number, date, GSTINs, tax amounts and items.

**Returns:** A summary JSON object with every header field (invoice_number, invoice_date, invoice_type, supplier_gstin, customer_gstin, vendor_name, buyer_name, taxable_value, cgst, sgst, igst, total_value, hsn_code, place_of_supply) plus a 200 character preview of the extracted text, followed by the line items as CSV.

**Examples:**
• "Extract invoice april/INV-2025-001.pdf"
• "Read scan_0042.pdf with force_ocr and ocr_lang eng+hin"

**Notes:** Missing fields come back as empty strings or 0. Text-layer PDFs are read directly; scanned pages fall back to OCR. Problems are listed under Warnings instead of failing the call.`

	InvoiceExtractDirectoryDescription = `Extract every invoice PDF in a directory into one consolidated table.

**When to use:** Reconciling a month of purchase invoices, preparing GST return data, or checking a folder of vendor bills in one pass.

**Returns:** One CSV row per line item with source_file, invoice_number, invoice_date, invoice_type, supplier_gstin, customer_gstin, item_description, quantity, unit_price and taxable_value. An invoice without recognizable items still contributes one row.

**Examples:**
• "Extract all invoices in the default directory"
• "Extract invoices in vendors/acme whose names contain 'april'"

**Notes:** Files are processed one at a time in path order. Hidden directories are skipped.`

	InvoiceServerInfoDescription = `Get the server configuration, OCR setup and the invoices available for extraction.

**When to use:** At the start of a session, or to find out why a scanned invoice came back empty (no OCR engine configured).`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"invoice_extract_file":      InvoiceExtractFileDescription,
	"invoice_extract_directory": InvoiceExtractDirectoryDescription,
	"invoice_server_info":       InvoiceServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the names of all tools in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
