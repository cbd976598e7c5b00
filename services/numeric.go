package services

import (
	"math"
	"strconv"
	"strings"
)

// Standard labor constants used across forecasting and budget allocation.
// One authoritative set: the hours-per-person week drives both headcount to
// hours derivation and FTE computation.
const (
	HoursPerWeek      = 50.0
	DefaultLaborRate  = 50.0
	DefaultBurdenRate = 0.28
)

// ParseCellNumber converts an arbitrary spreadsheet cell value into a finite
// number. Currency symbols, thousands separators and whitespace are stripped;
// parenthesized values are negative; blank or all-dash cells are zero.
// Malformed input degrades to zero, never to an error.
func ParseCellNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		switch r {
		case '$', ',', ' ', '\t', '\u00a0':
			// stripped
		case '-':
			// a leading minus is kept, dash filler is not
			if b.Len() == 0 {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" {
		return 0
	}

	cleaned = strings.TrimSuffix(cleaned, "%")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if negative {
		v = -v
	}
	return v
}

// ParseCellPercent reads a percentage cell, returning the fraction form when
// the cell carries a percent sign ("12.5%" -> 0.125) and the raw number
// otherwise.
func ParseCellPercent(raw string) float64 {
	s := strings.TrimSpace(raw)
	v := ParseCellNumber(s)
	if strings.HasSuffix(s, "%") {
		return v / 100
	}
	return v
}

// SanitizeFinite replaces NaN and infinities with zero. Every numeric field
// crossing the aggregation boundary goes through here: upstream joins can
// legitimately produce zero-denominator divisions.
func SanitizeFinite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// RoundCents rounds to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(SanitizeFinite(v)*100) / 100
}

// SafeDivide returns a/b, or zero when the denominator is zero.
func SafeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return SanitizeFinite(a / b)
}

// isBlankCell reports whether a cell is empty after trimming.
func isBlankCell(raw string) bool {
	return strings.TrimSpace(raw) == ""
}

// cellAt fetches a cell from a ragged grid row, tolerating short rows the way
// excelize's GetRows returns them.
func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
