package normalize

import (
	"fmt"
	"math"
)

// DollarsToCents converts a currency amount to integer cents.
// Uses math.Round to avoid truncation bias.
func DollarsToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// CentsToDollars converts integer cents back to a currency amount.
func CentsToDollars(c int64) float64 {
	return float64(c) / 100
}

// FormatCents renders cents as a fixed two-decimal amount, e.g. 35000 -> "350.00".
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
