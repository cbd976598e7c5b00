package services

import (
	"testing"
	"time"

	"backend/models"
)

func intPtr(v int) *int         { return &v }
func strPtr(v string) *string   { return &v }
func f64Ptr(v float64) *float64 { return &v }

func TestResolveLaborCategory(t *testing.T) {
	crafts := map[int]models.CraftType{
		1: {ID: 1, Code: "PF", Name: "Pipefitter", Category: "direct"},
		2: {ID: 2, Code: "FM", Name: "Foreman", Category: "indirect"},
	}

	tests := []struct {
		name        string
		category    *string
		craftTypeID *int
		description string
		want        string
	}{
		{"structured category wins", strPtr("staff"), intPtr(1), "welder", "staff"},
		{"craft reference", nil, intPtr(2), "", "indirect"},
		{"keyword staff", nil, nil, "Project Engineer", "staff"},
		{"keyword indirect", nil, nil, "Safety watch", "indirect"},
		{"keyword direct", nil, nil, "Structural welder", "direct"},
		{"unknown defaults to direct", nil, nil, "misc", "direct"},
		{"garbage structured value falls through", strPtr("overhead"), intPtr(2), "", "indirect"},
		{"unknown craft id falls through", nil, intPtr(99), "warehouse attendant", "indirect"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveLaborCategory(tt.category, tt.craftTypeID, tt.description, crafts)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCalculateLaborRatesByCraft(t *testing.T) {
	actuals := []models.LaborActual{
		{CraftTypeID: intPtr(1), ActualHours: 100, ActualCost: 5000},
		{CraftTypeID: intPtr(1), ActualHours: 100, ActualCost: 6000, ActualCostWithBurden: f64Ptr(7000)},
		{CraftTypeID: intPtr(1), ActualHours: 0, ActualCost: 9999},  // zero hours, excluded
		{CraftTypeID: intPtr(2), ActualHours: 40, ActualCost: 2600},
		{CraftTypeID: nil, ActualHours: 50, ActualCost: 2000}, // craft-less, ignored
	}

	rates := CalculateLaborRatesByCraft(actuals)
	if len(rates) != 2 {
		t.Fatalf("got %d crafts, want 2", len(rates))
	}

	// Craft 1: (5000 + 7000 burdened) / 200 hours.
	c1 := rates[1]
	if !almostEqual(c1.Hours, 200) || !almostEqual(c1.Cost, 12000) {
		t.Errorf("craft 1 totals = %v hours / %v cost, want 200 / 12000", c1.Hours, c1.Cost)
	}
	if !almostEqual(c1.Rate, 60) {
		t.Errorf("craft 1 rate = %v, want 60", c1.Rate)
	}
	if c1.Weeks != 2 {
		t.Errorf("craft 1 weeks = %d, want 2", c1.Weeks)
	}

	if got := rates[2].Rate; !almostEqual(got, 65) {
		t.Errorf("craft 2 rate = %v, want 65", got)
	}
}

func TestCalculateLaborRatesByCraftEmpty(t *testing.T) {
	rates := CalculateLaborRatesByCraft(nil)
	if len(rates) != 0 {
		t.Errorf("got %d entries from empty input, want 0", len(rates))
	}
}

func TestCalculateCategoryRates(t *testing.T) {
	actuals := []NormalizedActual{
		{Category: "direct", Hours: 100, Cost: 5500},
		{Category: "direct", Hours: 100, Cost: 4500},
		{Category: "staff", Hours: 0, Cost: 3000}, // excluded
		{Category: "indirect", Hours: 50, Cost: 2750},
	}

	rates := CalculateCategoryRates(actuals)
	if !almostEqual(rates["direct"].Rate, 50) {
		t.Errorf("direct rate = %v, want 50", rates["direct"].Rate)
	}
	if !almostEqual(rates["indirect"].Rate, 55) {
		t.Errorf("indirect rate = %v, want 55", rates["indirect"].Rate)
	}
	if _, ok := rates["staff"]; ok {
		t.Error("staff should have no rate: its only record has zero hours")
	}
}

func TestCategoryRateOrDefault(t *testing.T) {
	rates := map[string]RunningAverage{"direct": {Rate: 62.5}}
	if got := CategoryRateOrDefault(rates, "direct"); !almostEqual(got, 62.5) {
		t.Errorf("got %v, want 62.5", got)
	}
	if got := CategoryRateOrDefault(rates, "staff"); !almostEqual(got, DefaultLaborRate) {
		t.Errorf("got %v, want default %v", got, DefaultLaborRate)
	}
}

func TestNormalizeActuals(t *testing.T) {
	// Wednesday 2025-06-04 normalizes to Sunday 2025-06-08.
	wed := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	recs := []models.LaborActual{
		{WeekEnding: wed, LaborCategory: strPtr("direct"), ActualHours: 100, ActualCost: 5000, ActualCostWithBurden: f64Ptr(6400)},
	}

	out := NormalizeActuals(recs, nil)
	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	if got := out[0].WeekEnding; got.Weekday() != time.Sunday || got.Day() != 8 {
		t.Errorf("week ending = %v, want Sunday June 8", got)
	}
	if !almostEqual(out[0].Cost, 6400) {
		t.Errorf("cost = %v, want burdened 6400", out[0].Cost)
	}
}

func TestNormalizeForecastsDefaultHours(t *testing.T) {
	recs := []models.HeadcountForecast{
		{WeekStarting: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), LaborCategory: strPtr("direct"), Headcount: 12},
		{WeekStarting: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), LaborCategory: strPtr("direct"), Headcount: 10, AvgWeeklyHours: 40},
	}

	out := NormalizeForecasts(recs, nil)
	if !almostEqual(out[0].HoursPerWeek, HoursPerWeek) {
		t.Errorf("zero hours defaulted to %v, want %v", out[0].HoursPerWeek, HoursPerWeek)
	}
	if !almostEqual(out[1].HoursPerWeek, 40) {
		t.Errorf("explicit hours = %v, want 40", out[1].HoursPerWeek)
	}
}
