package invoice

import (
	"regexp"
	"strings"
)

// LastGroup selects the last non-empty capture group of a match. Labels
// precede values in every pattern, so this is the default.
const LastGroup = -1

// Rule is a single pattern in a prioritized rule list.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Group   int // capture group holding the value, or LastGroup
}

// NewRule compiles a rule that takes its value from the last non-empty group.
func NewRule(name, pattern string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern), Group: LastGroup}
}

// value returns the selected group of a submatch, or "" when the group is
// missing or empty.
func (r Rule) value(match []string) string {
	if len(match) == 0 {
		return ""
	}
	if r.Group != LastGroup {
		if r.Group < len(match) {
			return strings.TrimSpace(match[r.Group])
		}
		return ""
	}
	if len(match) == 1 {
		return strings.TrimSpace(match[0])
	}
	for i := len(match) - 1; i >= 1; i-- {
		if v := strings.TrimSpace(match[i]); v != "" {
			return v
		}
	}
	return ""
}

// Match applies the rule to text and reports the extracted value.
func (r Rule) Match(text string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	v := r.value(m)
	return v, v != ""
}

// RuleList is an ordered list of rules evaluated first-match-wins.
type RuleList []Rule

// Find returns the value of the first rule, in list order, that produces a
// non-empty value anywhere in text.
func (l RuleList) Find(text string) string {
	for _, r := range l {
		if v, ok := r.Match(text); ok {
			return v
		}
	}
	return ""
}

// FindAll returns every non-empty value produced by the rules, rule by rule
// and in text order within a rule.
func (l RuleList) FindAll(text string) []string {
	var out []string
	for _, r := range l {
		for _, m := range r.Pattern.FindAllStringSubmatch(text, -1) {
			if v := r.value(m); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
