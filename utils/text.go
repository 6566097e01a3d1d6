package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Truncate shortens s to at most limit runes, appending "..." when cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// FirstNonEmpty returns the first non-empty string from the arguments
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// FormatCoordinates renders a position with six fixed decimals, the form
// used when no street address is known.
func FormatCoordinates(lat, lng float64) string {
	return fmt.Sprintf("Lat: %s, Lng: %s",
		decimal.NewFromFloat(lat).StringFixed(6),
		decimal.NewFromFloat(lng).StringFixed(6))
}
