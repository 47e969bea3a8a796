package license

import (
	"fmt"
	"strconv"
)

// ParseAmount reads a decimal amount string, treating blanks and garbage as
// zero. Amounts are stored as exact decimal strings; this is the single
// place they are turned into numbers for billing arithmetic.
func ParseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatAmount renders an amount with two decimal places.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
