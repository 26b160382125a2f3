package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"₹1,50,000.50", 150000.50, true},
		{"1500", 1500, true},
		{" Rs. 1,200 ", 1200, true},
		{"INR 99.9", 99.9, true},
		{"₹ 0.00", 0, true},
		{"", 0, false},
		{"N/A", 0, false},
		{"-250", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"12abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
