package invoice

import "regexp"

const (
	amountToken   = `(\d[\d,]*(?:\.\d+)?)`
	currencyToken = `(?:₹|rs\.?|inr)?`
	// rateAnnotation skips "@ 9%", "(9%)" or "9%" between a tax label and its amount.
	rateAnnotation = `(?:[ \t]*[(@]?[ \t]*\d+(?:\.\d+)?[ \t]*%[ \t]*\)?)?`
)

// amountRule anchors a money value to a label.
func amountRule(name, label string) Rule {
	return NewRule(name, `(?i)`+label+rateAnnotation+
		`[ \t]*(?:amount|amt\.?)?[ \t]*[:\-]?[ \t]*`+currencyToken+`[ \t]*`+amountToken)
}

// partyRules builds the two-tier rules for a name following a label: the
// value on the same line after a separator, or on the line below a label
// that ends its own line.
func partyRules(name, labels string) RuleList {
	return RuleList{
		NewRule(name+"_inline", `(?i)\b(?:`+labels+`)(?:[ \t]+(?:name|details))?[ \t]*[:\-][ \t]*([^\n]*\S)`),
		NewRule(name+"_below", `(?i)\b(?:`+labels+`)(?:[ \t]+(?:name|details))?[ \t]*[:\-]?[ \t]*\r?\n\s*([^\n]*\S)`),
	}
}

var (
	invoiceNumberRules = RuleList{
		NewRule("invoice_number", `(?i)\b(?:invoice\s*(?:no\b\.?|number|#)|inv\.?\s*(?:no\b\.?|#))[:\s]*([A-Z0-9\-/]+)`),
	}

	// A single alternation keeps the leftmost date in the text.
	dateRules = RuleList{
		NewRule("date", `\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`),
	}

	// GSTINs are matched case-sensitively: the fixed "Z" and the letter
	// positions must be uppercase.
	gstinRules = RuleList{
		NewRule("gstin", `\b[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]\b`),
	}

	invoiceTypeRules = RuleList{
		NewRule("invoice_type", `(?i)\b(tax\s+invoice|credit\s+note|debit\s+note|bill\s+of\s+supply|retail\s+invoice|supply\s+invoice)\b`),
	}

	taxableValueRules = RuleList{
		amountRule("taxable_value", `\btaxable[ \t]*(?:value|amount|amt)?`),
	}
	cgstRules = RuleList{amountRule("cgst", `\bCGST\b`)}
	sgstRules = RuleList{amountRule("sgst", `\b(?:SGST|UTGST)\b`)}
	igstRules = RuleList{amountRule("igst", `\bIGST\b`)}

	totalValueRules = RuleList{
		amountRule("grand_total", `\bgrand[ \t]+total\b`),
		amountRule("total_invoice_value", `\btotal[ \t]+invoice[ \t]+(?:value|amount)\b`),
		amountRule("invoice_total", `\binvoice[ \t]+(?:total|value)\b`),
		amountRule("total_amount", `\btotal[ \t]+amount\b`),
		amountRule("total", `\btotal\b`),
	}

	vendorRules = append(
		partyRules("vendor", `supplier|vendor|seller|sold[ \t]+by`),
		NewRule("vendor_from", `(?im)^[ \t]*from\b[ \t]*[:\-]?[ \t]*([^\n]*\S)`),
	)

	buyerRules = partyRules("buyer", `buyer|bill(?:ed)?[ \t]+to|ship(?:ped)?[ \t]+to|deliver(?:ed)?[ \t]+to`)

	hsnRules = RuleList{
		NewRule("hsn", `(?i)\bHSN(?:[ \t]*/[ \t]*SAC)?(?:[ \t]*code)?[ \t]*[:\-]?\s*(\d{4,8})\b`),
	}

	placeOfSupplyRules = RuleList{
		NewRule("place_of_supply", `(?i)\bplace[ \t]+of[ \t]+supply[ \t]*[:\-]?\s*([A-Za-z][A-Za-z \t]*)`),
	}

	// itemLinePattern is a rough proxy for "qty description rate amount" on
	// one line of raw text.
	itemLinePattern = regexp.MustCompile(`\d+\s+[\w\s]{3,}\s+\d+(?:\.\d{1,2})?\s+\d+(?:\.\d{1,2})?`)
	columnSplitter  = regexp.MustCompile(`\s{2,}`)
)
