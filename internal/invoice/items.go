package invoice

import (
	"strings"
)

// LineItem is one row of an invoice's item table. Values are kept as
// they appear in the document.
type LineItem struct {
	Description  string `json:"item_description"`
	Quantity     string `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	TaxableValue string `json:"taxable_value"`
}

// IsEmpty reports whether every field of the item is blank.
func (li LineItem) IsEmpty() bool {
	return li.Description == "" && li.Quantity == "" && li.UnitPrice == "" && li.TaxableValue == ""
}

// ItemSource names the path that produced a document's line items.
type ItemSource string

const (
	ItemsFromTablePath ItemSource = "table"
	ItemsFromTextPath  ItemSource = "text"
	ItemsPlaceholder   ItemSource = "none"
)

// ExtractItems returns the line items of a document, preferring the first
// table whose header looks like an item table and falling back to a line
// heuristic over text. The result always holds at least one item.
func ExtractItems(tables [][][]string, text string) []LineItem {
	items, _ := ExtractItemsWithSource(tables, text)
	return items
}

// ExtractItemsWithSource is ExtractItems that also reports which path was used.
func ExtractItemsWithSource(tables [][][]string, text string) ([]LineItem, ItemSource) {
	for _, t := range tables {
		if LooksLikeItemTable(t) {
			items := ItemsFromTable(t)
			if len(items) == 0 {
				return []LineItem{{}}, ItemsPlaceholder
			}
			return items, ItemsFromTablePath
		}
	}

	if items := ItemsFromText(text); len(items) > 0 {
		return items, ItemsFromTextPath
	}
	return []LineItem{{}}, ItemsPlaceholder
}

// NormalizeTable trims every cell of rows.
func NormalizeTable(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = strings.TrimSpace(c)
		}
	}
	return out
}

// ItemsFromTable projects the data rows of an item table onto line items.
// The first row is the header. Rows with no non-empty cell are skipped.
func ItemsFromTable(rows [][]string) []LineItem {
	t := NormalizeTable(rows)
	if len(t) == 0 {
		return nil
	}
	columns := ResolveColumns(t[0])

	var items []LineItem
	for _, row := range t[1:] {
		if isBlankRow(row) {
			continue
		}
		items = append(items, projectRow(row, columns))
	}
	return items
}

func projectRow(row []string, columns ColumnMap) LineItem {
	cell := func(role Role) string {
		i, ok := columns[role]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	item := LineItem{
		Description:  cell(RoleDescription),
		Quantity:     cell(RoleQuantity),
		UnitPrice:    cell(RoleUnitPrice),
		TaxableValue: cell(RoleTaxableValue),
	}
	if i, ok := columns[RoleDescription]; !ok || i >= len(row) {
		// Second column is the usual position of the description.
		if len(row) > 1 {
			item.Description = row[1]
		}
	}
	return item
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

// ItemsFromText scans raw text for lines shaped like "qty description rate
// amount" and splits each on runs of two or more spaces.
func ItemsFromText(text string) []LineItem {
	var items []LineItem
	for _, line := range strings.Split(text, "\n") {
		if !itemLinePattern.MatchString(line) {
			continue
		}
		parts := columnSplitter.Split(strings.TrimSpace(line), -1)
		if len(parts) < 3 {
			continue
		}
		item := LineItem{
			Description: parts[0],
			Quantity:    parts[1],
			UnitPrice:   parts[2],
		}
		if len(parts) > 3 {
			item.TaxableValue = parts[3]
		}
		items = append(items, item)
	}
	return items
}
