package services

import (
	"math"
	"testing"
	"time"

	"backend/models"
)

func TestBuildLaborKPIs(t *testing.T) {
	w1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	w2 := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	actuals := []NormalizedActual{
		{WeekEnding: w1, Category: "direct", Hours: 150, Cost: 8000},
		{WeekEnding: w2, Category: "direct", Hours: 200, Cost: 11000},
		{WeekEnding: w2, Category: "indirect", Hours: 50, Cost: 2750},
	}

	kpis := BuildLaborKPIs(actuals, 100000, 2000)
	if kpis.WeeksOfData != 2 {
		t.Errorf("weeks = %d, want 2 distinct weeks", kpis.WeeksOfData)
	}
	if !almostEqual(kpis.TotalActualHours, 400) {
		t.Errorf("hours = %v, want 400", kpis.TotalActualHours)
	}
	if !almostEqual(kpis.TotalActualCost, 21750) {
		t.Errorf("cost = %v, want 21750", kpis.TotalActualCost)
	}
	if !almostEqual(kpis.VarianceDollars, -78250) {
		t.Errorf("variance = %v, want -78250", kpis.VarianceDollars)
	}
	if !almostEqual(kpis.LaborBurnPercent, 21.75) {
		t.Errorf("burn = %v, want 21.75", kpis.LaborBurnPercent)
	}
	if !almostEqual(kpis.CompositeRate, 54.38) {
		t.Errorf("composite rate = %v, want 54.38", kpis.CompositeRate)
	}
	// 400 hours over 2 weeks at 50 hours/week = 4 FTE.
	if !almostEqual(kpis.AverageFTE, 4) {
		t.Errorf("FTE = %v, want 4", kpis.AverageFTE)
	}
}

func TestBuildLaborKPIsZeroBudget(t *testing.T) {
	actuals := []NormalizedActual{
		{WeekEnding: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Category: "direct", Hours: 100, Cost: 5000},
	}

	kpis := BuildLaborKPIs(actuals, 0, 0)
	for name, v := range map[string]float64{
		"variance percent": kpis.VariancePercent,
		"burn percent":     kpis.LaborBurnPercent,
		"composite rate":   kpis.CompositeRate,
		"average fte":      kpis.AverageFTE,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s = %v, want finite", name, v)
		}
	}
	if kpis.VariancePercent != 0 || kpis.LaborBurnPercent != 0 {
		t.Errorf("zero budget should zero the percentages, got %v / %v", kpis.VariancePercent, kpis.LaborBurnPercent)
	}
}

func TestBuildLaborKPIsEmpty(t *testing.T) {
	kpis := BuildLaborKPIs(nil, 0, 0)
	if kpis.WeeksOfData != 0 || kpis.TotalActualCost != 0 || kpis.AverageFTE != 0 {
		t.Errorf("empty input should produce all-zero KPIs: %+v", kpis)
	}
}

func TestBuildCraftBreakdown(t *testing.T) {
	actuals := []models.LaborActual{
		{CraftTypeID: intPtr(1), ActualHours: 100, ActualCost: 5000},
		{CraftTypeID: intPtr(2), ActualHours: 200, ActualCost: 13000},
	}
	crafts := map[int]models.CraftType{
		1: {ID: 1, Code: "PF", Name: "Pipefitter", Category: "direct"},
		2: {ID: 2, Code: "EL", Name: "Electrician", Category: "direct"},
	}
	budgets := map[int]float64{1: 6000}

	rows := BuildCraftBreakdown(actuals, crafts, budgets)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// Sorted by actual cost, largest first.
	if rows[0].CraftName != "Electrician" {
		t.Errorf("rows[0] = %s, want Electrician", rows[0].CraftName)
	}
	if !almostEqual(rows[0].Rate, 65) {
		t.Errorf("electrician rate = %v, want 65", rows[0].Rate)
	}
	if !almostEqual(rows[1].VarianceDollars, -1000) {
		t.Errorf("pipefitter variance = %v, want -1000", rows[1].VarianceDollars)
	}
}

func TestBuildWeeklyTrend(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	actuals := []NormalizedActual{
		{WeekEnding: time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), Category: "direct", Hours: 150, Cost: 8000},
	}
	series := BuildWeeklySeries(actuals, nil, nil, now, 2)

	rows := BuildWeeklyTrend(series)
	if len(rows) != len(series.Weeks) {
		t.Fatalf("got %d rows, want %d", len(rows), len(series.Weeks))
	}

	var actualRow *models.WeeklyTrendRow
	for i := range rows {
		if rows[i].IsActual {
			actualRow = &rows[i]
		}
		if math.IsNaN(rows[i].CompositeRate) {
			t.Errorf("week %s: composite rate NaN", rows[i].WeekEnding)
		}
	}
	if actualRow == nil {
		t.Fatal("no actual row in trend")
	}
	if !almostEqual(actualRow.CompositeRate, 53.33) {
		t.Errorf("composite rate = %v, want 53.33", actualRow.CompositeRate)
	}
	if rows[len(rows)-1].CumulativeCost != 8000 {
		t.Errorf("final cumulative = %v, want 8000", rows[len(rows)-1].CumulativeCost)
	}

	if got := BuildWeeklyTrend(nil); got != nil {
		t.Errorf("nil series should produce nil rows, got %v", got)
	}
}

func TestBuildPeriodBreakdown(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	forecasts := []NormalizedForecast{
		{WeekEnding: time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC), Category: "direct", Headcount: 10, HoursPerWeek: 50},
	}
	series := BuildWeeklySeries(nil, forecasts, nil, now, 2)

	rows := BuildPeriodBreakdown(series)
	if len(rows) != len(series.Weeks)*len(LaborCategories) {
		t.Fatalf("got %d rows, want %d", len(rows), len(series.Weeks)*len(LaborCategories))
	}

	var hit bool
	for _, row := range rows {
		if row.WeekEnding == "2025-06-22" && row.Category == "direct" {
			hit = true
			if !almostEqual(row.FTE, 10) {
				t.Errorf("FTE = %v, want 10 (500 hours / 50)", row.FTE)
			}
			if !almostEqual(row.Cost, 500*DefaultLaborRate) {
				t.Errorf("cost = %v, want default-rate pricing", row.Cost)
			}
		}
	}
	if !hit {
		t.Fatal("no breakdown row for the forecast week")
	}
}
