package invoice

import (
	"strings"

	"golang.org/x/text/cases"
)

// Role is the meaning assigned to an item-table column.
type Role string

const (
	RoleDescription  Role = "description"
	RoleQuantity     Role = "quantity"
	RoleUnitPrice    Role = "unit_price"
	RoleTaxableValue Role = "taxable_value"
)

// ColumnMap maps a role to the index of the column that carries it. Roles
// with no matching header are absent.
type ColumnMap map[Role]int

type roleCandidates struct {
	role  Role
	names []string
}

// roleOrder fixes the resolution order; candidates are already
// whitespace-free and lower case.
var roleOrder = []roleCandidates{
	{RoleDescription, []string{"description", "item", "particular"}},
	{RoleQuantity, []string{"qty", "quantity"}},
	{RoleUnitPrice, []string{"rate", "unitprice", "price"}},
	{RoleTaxableValue, []string{"taxablevalue", "value", "amount"}},
}

// itemTableKeywords marks a header row as belonging to a line-item table.
var itemTableKeywords = []string{
	"description", "item", "hsn", "qty", "quantity", "rate", "amount", "taxable", "value",
}

// fold case-folds s for header comparisons.
func fold(s string) string {
	return cases.Fold().String(s)
}

// squash removes all whitespace and case-folds s.
func squash(s string) string {
	return fold(strings.Join(strings.Fields(s), ""))
}

// LooksLikeItemTable reports whether the first row of rows reads like the
// header of a line-item table.
func LooksLikeItemTable(rows [][]string) bool {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return false
	}

	cells := make([]string, 0, len(rows[0]))
	for _, c := range rows[0] {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, fold(c))
		}
	}
	header := strings.Join(cells, " ")
	for _, k := range itemTableKeywords {
		if strings.Contains(header, k) {
			return true
		}
	}
	return false
}

// ResolveColumns assigns roles to header cells. For each role the first
// column whose squashed header contains any of the role's candidate names
// wins.
func ResolveColumns(header []string) ColumnMap {
	squashed := make([]string, len(header))
	for i, h := range header {
		squashed[i] = squash(h)
	}

	columns := make(ColumnMap, len(roleOrder))
	for _, rc := range roleOrder {
		for i, h := range squashed {
			if h != "" && containsAny(h, rc.names) {
				columns[rc.role] = i
				break
			}
		}
	}
	return columns
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
