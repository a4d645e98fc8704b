package exporter

import (
	"math"
	"strconv"
)

// formatFloat writes the shortest representation that round-trips.
// Missing samples are written as empty cells.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatFixed writes f with exactly prec decimals.
func formatFixed(f float64, prec int) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', prec, 64)
}
