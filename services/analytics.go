package services

import (
	"sort"

	"backend/models"
)

// BuildLaborKPIs rolls normalized actuals and budget figures into the
// dashboard summary. Zero-denominator divisions degrade to zero at this
// boundary rather than surfacing as NaN.
func BuildLaborKPIs(actuals []NormalizedActual, budgetedCost, budgetedHours float64) models.LaborKPIs {
	var kpis models.LaborKPIs
	weeks := map[string]bool{}
	for _, a := range actuals {
		kpis.TotalActualCost += a.Cost
		kpis.TotalActualHours += a.Hours
		weeks[a.WeekEnding.Format("2006-01-02")] = true
	}
	kpis.WeeksOfData = len(weeks)
	kpis.BudgetedCost = budgetedCost
	kpis.BudgetedHours = budgetedHours

	kpis.VarianceDollars = kpis.TotalActualCost - budgetedCost
	kpis.VariancePercent = RoundCents(SafeDivide(kpis.VarianceDollars, budgetedCost) * 100)
	kpis.LaborBurnPercent = RoundCents(SafeDivide(kpis.TotalActualCost, budgetedCost) * 100)
	kpis.CompositeRate = RoundCents(SafeDivide(kpis.TotalActualCost, kpis.TotalActualHours))
	kpis.AverageFTE = RoundCents(SafeDivide(kpis.TotalActualHours, float64(kpis.WeeksOfData)*HoursPerWeek))

	kpis.TotalActualCost = SanitizeFinite(kpis.TotalActualCost)
	kpis.TotalActualHours = SanitizeFinite(kpis.TotalActualHours)
	kpis.BudgetedCost = SanitizeFinite(kpis.BudgetedCost)
	kpis.BudgetedHours = SanitizeFinite(kpis.BudgetedHours)
	kpis.VarianceDollars = SanitizeFinite(kpis.VarianceDollars)
	return kpis
}

// BuildCraftBreakdown aggregates actual hours/cost per craft and computes
// each craft's variance against its budget when one is supplied. Rows sort
// by actual cost, largest first.
func BuildCraftBreakdown(actuals []models.LaborActual, crafts map[int]models.CraftType, budgets map[int]float64) []models.CraftBreakdownRow {
	byCraft := CalculateLaborRatesByCraft(actuals)

	rows := make([]models.CraftBreakdownRow, 0, len(byCraft))
	for id, avg := range byCraft {
		row := models.CraftBreakdownRow{
			CraftTypeID: id,
			ActualHours: SanitizeFinite(avg.Hours),
			ActualCost:  SanitizeFinite(avg.Cost),
			Rate:        RoundCents(avg.Rate),
		}
		if craft, ok := crafts[id]; ok {
			row.CraftName = craft.Name
			row.CraftCode = craft.Code
			row.Category = craft.Category
		}
		if budget, ok := budgets[id]; ok {
			row.BudgetedCost = SanitizeFinite(budget)
			row.VarianceDollars = SanitizeFinite(avg.Cost - budget)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(a, b int) bool {
		if rows[a].ActualCost != rows[b].ActualCost {
			return rows[a].ActualCost > rows[b].ActualCost
		}
		return rows[a].CraftTypeID < rows[b].CraftTypeID
	})
	return rows
}

// BuildWeeklyTrend flattens the forecast series into chart rows with a
// composite rate per week, rounded to cents and zero when the week has no
// hours.
func BuildWeeklyTrend(series *ForecastSeries) []models.WeeklyTrendRow {
	if series == nil {
		return nil
	}
	rows := make([]models.WeeklyTrendRow, 0, len(series.Weeks))
	for _, wd := range series.Weeks {
		rows = append(rows, models.WeeklyTrendRow{
			WeekEnding:     wd.WeekEnding.Format("2006-01-02"),
			IsActual:       wd.IsActual,
			Hours:          SanitizeFinite(wd.TotalHours),
			Cost:           SanitizeFinite(wd.TotalCost),
			CumulativeCost: SanitizeFinite(wd.CumulativeCost),
			CompositeRate:  RoundCents(SafeDivide(wd.TotalCost, wd.TotalHours)),
		})
	}
	return rows
}

// BuildPeriodBreakdown expands the series into one row per week per labor
// category, with FTE derived from the standard work week.
func BuildPeriodBreakdown(series *ForecastSeries) []models.PeriodBreakdownRow {
	if series == nil {
		return nil
	}
	rows := make([]models.PeriodBreakdownRow, 0, len(series.Weeks)*len(LaborCategories))
	for _, wd := range series.Weeks {
		for _, cat := range LaborCategories {
			entry := wd.Entry(cat)
			rows = append(rows, models.PeriodBreakdownRow{
				WeekEnding: wd.WeekEnding.Format("2006-01-02"),
				Category:   cat,
				Headcount:  SanitizeFinite(entry.Headcount),
				Hours:      SanitizeFinite(entry.Hours),
				Cost:       SanitizeFinite(entry.Cost),
				Rate:       RoundCents(entry.Rate),
				FTE:        RoundCents(SafeDivide(entry.Hours, HoursPerWeek)),
				IsActual:   wd.IsActual,
			})
		}
	}
	return rows
}
