package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikeItemTable(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want bool
	}{
		{"hsn and qty", [][]string{{"Sr", "HSN", "Qty"}}, true},
		{"uppercase description", [][]string{{"DESCRIPTION OF GOODS", ""}}, true},
		{"bank details", [][]string{{"Bank", "IFSC"}, {"HDFC", "HDFC0001"}}, false},
		{"empty table", nil, false},
		{"empty header", [][]string{{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeItemTable(tt.rows))
		})
	}
}

func TestResolveColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   ColumnMap
	}{
		{
			name:   "standard gst table",
			header: []string{"S.No", "Description", "HSN", "Qty", "Rate", "Taxable Value"},
			want: ColumnMap{
				RoleDescription:  1,
				RoleQuantity:     3,
				RoleUnitPrice:    4,
				RoleTaxableValue: 5,
			},
		},
		{
			name:   "whitespace and case insensitive",
			header: []string{"Particulars", "QUAN TITY", "Unit  Price", "Amount"},
			want: ColumnMap{
				RoleDescription:  0,
				RoleQuantity:     1,
				RoleUnitPrice:    2,
				RoleTaxableValue: 3,
			},
		},
		{
			name:   "partial mapping",
			header: []string{"Sr", "Qty"},
			want:   ColumnMap{RoleQuantity: 1},
		},
		{
			name:   "no header",
			header: nil,
			want:   ColumnMap{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveColumns(tt.header))
		})
	}
}

func TestItemsFromTable(t *testing.T) {
	rows := [][]string{
		{"Description", "Qty", "Rate", "Taxable Value"},
		{" Laptop Stand ", "2", "1,250.00", "2,500.00"},
		{"", "", "", ""},
		{"USB Hub", "1"},
	}

	items := ItemsFromTable(rows)
	require.Len(t, items, 2)
	assert.Equal(t, LineItem{Description: "Laptop Stand", Quantity: "2", UnitPrice: "1,250.00", TaxableValue: "2,500.00"}, items[0])
	assert.Equal(t, LineItem{Description: "USB Hub", Quantity: "1"}, items[1], "short rows leave missing roles empty")
}

func TestItemsFromTable_DescriptionFallsBackToSecondColumn(t *testing.T) {
	rows := [][]string{
		{"Sr", "Goods", "Qty"},
		{"1", "Cement bags", "40"},
		{"2"},
	}

	items := ItemsFromTable(rows)
	require.Len(t, items, 2)
	assert.Equal(t, "Cement bags", items[0].Description)
	assert.Equal(t, "40", items[0].Quantity)
	assert.Equal(t, "", items[1].Description)
}

func TestItemsFromText(t *testing.T) {
	text := "Invoice No: INV-1\n" +
		"Widget 8471  2  150.00  300.00\n" +
		"1 abc 2 3\n" +
		"Total  300.00\n"

	items := ItemsFromText(text)
	require.Len(t, items, 1)
	assert.Equal(t, LineItem{
		Description:  "Widget 8471",
		Quantity:     "2",
		UnitPrice:    "150.00",
		TaxableValue: "300.00",
	}, items[0])
}

func TestItemsFromText_ThreeFields(t *testing.T) {
	items := ItemsFromText("2 Bolt M12  10  5.50")
	require.Len(t, items, 1)
	assert.Equal(t, LineItem{Description: "2 Bolt M12", Quantity: "10", UnitPrice: "5.50"}, items[0])
}

func TestExtractItems_PrefersTable(t *testing.T) {
	tables := [][][]string{
		{{"Bank", "Account"}, {"HDFC", "0001"}},
		{{"Description", "HSN", "Qty", "Rate", "Taxable Value"}, {"Chair", "9401", "4", "500", "2000"}},
		{{"Description", "Qty"}, {"Ignored", "9"}},
	}
	// This line would qualify for the text heuristic.
	text := "Widget 8471  2  150.00  300.00"

	items, source := ExtractItemsWithSource(tables, text)
	assert.Equal(t, ItemsFromTablePath, source)
	require.Len(t, items, 1)
	assert.Equal(t, LineItem{Description: "Chair", Quantity: "4", UnitPrice: "500", TaxableValue: "2000"}, items[0])
}

func TestExtractItems_FallsBackToText(t *testing.T) {
	tables := [][][]string{{{"Bank", "Account"}, {"HDFC", "0001"}}}

	items, source := ExtractItemsWithSource(tables, "Widget 8471  2  150.00  300.00")
	assert.Equal(t, ItemsFromTextPath, source)
	require.Len(t, items, 1)
	assert.Equal(t, "Widget 8471", items[0].Description)
}

func TestExtractItems_NeverEmpty(t *testing.T) {
	tests := []struct {
		name   string
		tables [][][]string
		text   string
	}{
		{"nothing", nil, ""},
		{"unparseable text", nil, "%%% garbage %%%"},
		{"header-only item table", [][][]string{{{"Description", "Qty"}}}, "Widget 8471  2  150.00  300.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := ExtractItems(tt.tables, tt.text)
			require.Len(t, items, 1)
			assert.True(t, items[0].IsEmpty())
		})
	}
}
