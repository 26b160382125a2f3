package invoice

import (
	"math"
	"strconv"
	"strings"
)

// amountNoise lists currency markers removed before parsing, longest first.
var amountNoise = []string{"₹", "INR", "Rs.", "Rs", "rs.", "rs", "RS.", "RS", "inr", ","}

// ParseAmount converts a currency-formatted string such as "₹1,50,000.50"
// into a float. It reports false for empty, negative or non-numeric input.
func ParseAmount(s string) (float64, bool) {
	cleaned := s
	for _, n := range amountNoise {
		cleaned = strings.ReplaceAll(cleaned, n, "")
	}
	cleaned = strings.Join(strings.Fields(cleaned), "")
	if cleaned == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// amountOrZero parses s, defaulting to 0.
func amountOrZero(s string) float64 {
	v, _ := ParseAmount(s)
	return v
}
