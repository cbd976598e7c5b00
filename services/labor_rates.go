package services

import (
	"strings"
	"time"

	"backend/models"
)

// The three labor categories every record normalizes into.
var LaborCategories = []string{"direct", "indirect", "staff"}

// Keyword fallback for craft/category resolution when structured fields are
// absent. Checked in order; first hit wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"staff", []string{"staff", "superintendent", "engineer", "manager", "admin", "clerk", "scheduler"}},
	{"indirect", []string{"indirect", "foreman", "safety", "qa", "qc", "warehouse", "tool room"}},
	{"direct", []string{"direct", "welder", "fitter", "pipefitter", "electrician", "laborer", "operator", "carpenter", "ironworker", "millwright"}},
}

// ResolveLaborCategory resolves a record to direct/indirect/staff using a
// two-tier strategy: the structured category field or craft reference first,
// then keyword matching over the free-text description. Unresolvable records
// default to direct.
func ResolveLaborCategory(laborCategory *string, craftTypeID *int, description string, crafts map[int]models.CraftType) string {
	if laborCategory != nil {
		if cat := normalizeCategory(*laborCategory); cat != "" {
			return cat
		}
	}
	if craftTypeID != nil {
		if craft, ok := crafts[*craftTypeID]; ok {
			if cat := normalizeCategory(craft.Category); cat != "" {
				return cat
			}
		}
	}

	lower := strings.ToLower(description)
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.category
			}
		}
	}
	return "direct"
}

func normalizeCategory(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "direct":
		return "direct"
	case "indirect":
		return "indirect"
	case "staff":
		return "staff"
	}
	return ""
}

// NormalizedActual is a labor actual resolved to a single category tag. The
// raw rows are a loose union (craft-keyed or category-keyed); normalization
// happens once at ingestion so downstream logic never branches on field
// presence.
type NormalizedActual struct {
	WeekEnding time.Time `json:"week_ending"`
	Category   string    `json:"category"`
	Hours      float64   `json:"hours"`
	Cost       float64   `json:"cost"`
}

// NormalizedForecast is a headcount forecast resolved the same way, keyed by
// the week-ending date of the week it starts.
type NormalizedForecast struct {
	WeekEnding   time.Time `json:"week_ending"`
	Category     string    `json:"category"`
	Headcount    float64   `json:"headcount"`
	HoursPerWeek float64   `json:"hours_per_week"`
}

// effectiveCost prefers the burdened figure whenever it is present.
func effectiveCost(rec models.LaborActual) float64 {
	if rec.ActualCostWithBurden != nil {
		return *rec.ActualCostWithBurden
	}
	return rec.ActualCost
}

// NormalizeActuals converts raw labor actual rows into category-tagged
// records, normalizing week dates to week-ending Sunday.
func NormalizeActuals(recs []models.LaborActual, crafts map[int]models.CraftType) []NormalizedActual {
	out := make([]NormalizedActual, 0, len(recs))
	for _, rec := range recs {
		out = append(out, NormalizedActual{
			WeekEnding: WeekEndingSunday(rec.WeekEnding),
			Category:   ResolveLaborCategory(rec.LaborCategory, rec.CraftTypeID, rec.Description, crafts),
			Hours:      rec.ActualHours,
			Cost:       effectiveCost(rec),
		})
	}
	return out
}

// NormalizeForecasts converts headcount forecast rows the same way. A week
// starting Monday maps to the Sunday that ends it.
func NormalizeForecasts(recs []models.HeadcountForecast, crafts map[int]models.CraftType) []NormalizedForecast {
	out := make([]NormalizedForecast, 0, len(recs))
	for _, rec := range recs {
		hours := rec.AvgWeeklyHours
		if hours == 0 {
			hours = HoursPerWeek
		}
		out = append(out, NormalizedForecast{
			WeekEnding:   WeekEndingSunday(rec.WeekStarting),
			Category:     ResolveLaborCategory(rec.LaborCategory, rec.CraftTypeID, "", crafts),
			Headcount:    rec.Headcount,
			HoursPerWeek: hours,
		})
	}
	return out
}

// RunningAverage is a weighted-average burdened rate with its supporting
// totals. Derived on request, never stored.
type RunningAverage struct {
	Hours float64 `json:"hours"`
	Cost  float64 `json:"cost"`
	Weeks int     `json:"weeks"`
	Rate  float64 `json:"rate"`
}

// CalculateLaborRatesByCraft computes one weighted-average rate per craft id
// from historical actuals: rate = sum(cost)/sum(hours), preferring burdened
// cost, excluding zero-hour records from both numerator and denominator so
// they cannot pull the average toward zero. Craft-less rows are ignored.
// Empty input yields an empty map.
func CalculateLaborRatesByCraft(actuals []models.LaborActual) map[int]RunningAverage {
	out := make(map[int]RunningAverage)
	for _, rec := range actuals {
		if rec.CraftTypeID == nil || rec.ActualHours <= 0 {
			continue
		}
		avg := out[*rec.CraftTypeID]
		avg.Hours += rec.ActualHours
		avg.Cost += effectiveCost(rec)
		avg.Weeks++
		out[*rec.CraftTypeID] = avg
	}
	for id, avg := range out {
		avg.Rate = SafeDivide(avg.Cost, avg.Hours)
		out[id] = avg
	}
	return out
}

// CalculateCategoryRates computes the weighted-average rate per labor
// category from normalized actuals, with the same zero-hour exclusion.
func CalculateCategoryRates(actuals []NormalizedActual) map[string]RunningAverage {
	out := make(map[string]RunningAverage)
	for _, rec := range actuals {
		if rec.Hours <= 0 {
			continue
		}
		avg := out[rec.Category]
		avg.Hours += rec.Hours
		avg.Cost += rec.Cost
		avg.Weeks++
		out[rec.Category] = avg
	}
	for cat, avg := range out {
		avg.Rate = SafeDivide(avg.Cost, avg.Hours)
		out[cat] = avg
	}
	return out
}

// CategoryRateOrDefault pulls a category's derived rate, falling back to the
// standard labor rate when the category has no history.
func CategoryRateOrDefault(rates map[string]RunningAverage, category string) float64 {
	if avg, ok := rates[category]; ok && avg.Rate > 0 {
		return avg.Rate
	}
	return DefaultLaborRate
}
