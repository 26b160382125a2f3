package invoice

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Header is the per-document invoice header record. Every field is always
// present in serialized output; unresolved strings are empty and unresolved
// amounts are 0.
type Header struct {
	SourceFile    string  `json:"source_file"`
	InvoiceNumber string  `json:"invoice_number"`
	InvoiceDate   string  `json:"invoice_date"`
	InvoiceType   string  `json:"invoice_type"`
	SupplierGSTIN string  `json:"supplier_gstin"`
	CustomerGSTIN string  `json:"customer_gstin"`
	VendorName    string  `json:"vendor_name"`
	BuyerName     string  `json:"buyer_name"`
	TaxableValue  float64 `json:"taxable_value"`
	CGST          float64 `json:"cgst"`
	SGST          float64 `json:"sgst"`
	IGST          float64 `json:"igst"`
	TotalValue    float64 `json:"total_value"`
	HSNCode       string  `json:"hsn_code"`
	PlaceOfSupply string  `json:"place_of_supply"`
}

// Invoice types recognized in document text.
const (
	TypeTaxInvoice    = "Tax Invoice"
	TypeCreditNote    = "Credit Note"
	TypeDebitNote     = "Debit Note"
	TypeBillOfSupply  = "Bill of Supply"
	TypeRetailInvoice = "Retail Invoice"
	TypeSupplyInvoice = "Supply Invoice"
)

var invoiceTypes = map[string]string{
	"tax invoice":    TypeTaxInvoice,
	"credit note":    TypeCreditNote,
	"debit note":     TypeDebitNote,
	"bill of supply": TypeBillOfSupply,
	"retail invoice": TypeRetailInvoice,
	"supply invoice": TypeSupplyInvoice,
}

// NormalizeText applies NFKC normalization so full-width digits and
// compatibility characters from OCR match the ASCII patterns.
func NormalizeText(text string) string {
	return norm.NFKC.String(text)
}

// ExtractHeader recovers the header fields from document text. source is the
// document's original file name; its base name without the final extension
// is the invoice number when none is found in the text.
func ExtractHeader(text, source string) Header {
	text = NormalizeText(text)

	h := Header{
		SourceFile:    source,
		InvoiceNumber: invoiceNumberRules.Find(text),
		InvoiceDate:   dateRules.Find(text),
		InvoiceType:   canonicalType(invoiceTypeRules.Find(text)),
		VendorName:    vendorRules.Find(text),
		BuyerName:     buyerRules.Find(text),
		TaxableValue:  amountOrZero(taxableValueRules.Find(text)),
		CGST:          amountOrZero(cgstRules.Find(text)),
		SGST:          amountOrZero(sgstRules.Find(text)),
		IGST:          amountOrZero(igstRules.Find(text)),
		TotalValue:    amountOrZero(totalValueRules.Find(text)),
		HSNCode:       hsnRules.Find(text),
		PlaceOfSupply: placeOfSupplyRules.Find(text),
	}
	if h.InvoiceNumber == "" {
		h.InvoiceNumber = StripExtension(source)
	}

	gstins := uniqueStrings(gstinRules.FindAll(text))
	if len(gstins) > 0 {
		h.SupplierGSTIN = gstins[0]
	}
	if len(gstins) > 1 {
		h.CustomerGSTIN = gstins[1]
	}

	return h
}

// StripExtension returns the base name of path without its final extension.
func StripExtension(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func canonicalType(matched string) string {
	if matched == "" {
		return ""
	}
	key := strings.ToLower(strings.Join(strings.Fields(matched), " "))
	if t, ok := invoiceTypes[key]; ok {
		return t
	}
	return matched
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
