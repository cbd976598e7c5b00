package services

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseCellNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"plain integer", "1200", 1200},
		{"decimal", "52.5", 52.5},
		{"currency", "$1,234.56", 1234.56},
		{"currency with spaces", " $ 1,234 ", 1234},
		{"parenthesized negative", "(500)", -500},
		{"parenthesized currency", "($1,250.00)", -1250},
		{"leading minus", "-42.5", -42.5},
		{"dash filler", "-", 0},
		{"multi dash filler", "---", 0},
		{"empty", "", 0},
		{"whitespace only", "   ", 0},
		{"non-breaking space separator", "1\u00a0234", 1234},
		{"text", "N/A", 0},
		{"trailing percent", "12.5%", 12.5},
		{"embedded letters", "12abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCellNumber(tt.in); !almostEqual(got, tt.want) {
				t.Errorf("ParseCellNumber(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCellPercent(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12.5%", 0.125},
		{"100%", 1},
		{"0.28", 0.28},
		{"", 0},
		{"-", 0},
	}
	for _, tt := range tests {
		if got := ParseCellPercent(tt.in); !almostEqual(got, tt.want) {
			t.Errorf("ParseCellPercent(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFinite(t *testing.T) {
	if got := SanitizeFinite(math.NaN()); got != 0 {
		t.Errorf("SanitizeFinite(NaN) = %v, want 0", got)
	}
	if got := SanitizeFinite(math.Inf(1)); got != 0 {
		t.Errorf("SanitizeFinite(+Inf) = %v, want 0", got)
	}
	if got := SanitizeFinite(math.Inf(-1)); got != 0 {
		t.Errorf("SanitizeFinite(-Inf) = %v, want 0", got)
	}
	if got := SanitizeFinite(42.5); got != 42.5 {
		t.Errorf("SanitizeFinite(42.5) = %v, want 42.5", got)
	}
}

func TestSafeDivide(t *testing.T) {
	if got := SafeDivide(10, 4); !almostEqual(got, 2.5) {
		t.Errorf("SafeDivide(10, 4) = %v, want 2.5", got)
	}
	if got := SafeDivide(10, 0); got != 0 {
		t.Errorf("SafeDivide(10, 0) = %v, want 0", got)
	}
	if got := SafeDivide(0, 0); got != 0 {
		t.Errorf("SafeDivide(0, 0) = %v, want 0", got)
	}
}

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{53.333333, 53.33},
		{52.5, 52.5},
		{-1.239, -1.24},
		{0, 0},
	}
	for _, tt := range tests {
		if got := RoundCents(tt.in); !almostEqual(got, tt.want) {
			t.Errorf("RoundCents(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
