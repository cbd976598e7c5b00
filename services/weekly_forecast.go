package services

import (
	"fmt"
	"time"

	"backend/models"
)

// Weeks of history shown before the earliest actual week.
const leadInWeeks = 2

// Default forecast horizon past the current week.
const DefaultHorizonWeeks = 26

// WeekEndingSunday normalizes any date to the Sunday ending its week. A
// Sunday maps to itself.
func WeekEndingSunday(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (7 - int(t.Weekday())) % 7
	return t.AddDate(0, 0, offset)
}

// ForecastSeries is one project's continuous week-by-week labor series,
// actual weeks first, forecast weeks after. All edits run through the series
// so the cumulative invariant (cumulative[i] = cumulative[i-1] + totals[i])
// holds after every mutation. Edits are serialized user events; the series is
// not safe for concurrent mutation and does not need to be.
type ForecastSeries struct {
	Weeks []*models.WeekData `json:"weeks"`
}

// BuildWeeklySeries merges historical actuals with headcount forecasts into
// one continuous series: from two weeks before the earliest actual week
// through horizonWeeks past now, one entry per calendar week ending Sunday.
//
// A week with actual data is read-only and populated purely from actuals
// (headcount derived as hours / 50, realized rate as cost/hours). Forecast
// weeks compute cost as headcount x hoursPerWeek x category rate; a week
// with no forecast rows stays all-zero.
func BuildWeeklySeries(actuals []NormalizedActual, forecasts []NormalizedForecast, rates map[string]RunningAverage, now time.Time, horizonWeeks int) *ForecastSeries {
	if horizonWeeks <= 0 {
		horizonWeeks = DefaultHorizonWeeks
	}

	type weekKey = string
	actualByWeek := make(map[weekKey][]NormalizedActual)
	var earliest time.Time
	for _, a := range actuals {
		k := a.WeekEnding.Format("2006-01-02")
		actualByWeek[k] = append(actualByWeek[k], a)
		if earliest.IsZero() || a.WeekEnding.Before(earliest) {
			earliest = a.WeekEnding
		}
	}

	forecastByWeek := make(map[weekKey][]NormalizedForecast)
	for _, f := range forecasts {
		k := f.WeekEnding.Format("2006-01-02")
		forecastByWeek[k] = append(forecastByWeek[k], f)
	}

	currentWeek := WeekEndingSunday(now)
	start := currentWeek
	if !earliest.IsZero() && earliest.Before(start) {
		start = earliest
	}
	start = start.AddDate(0, 0, -7*leadInWeeks)
	end := currentWeek.AddDate(0, 0, 7*horizonWeeks)

	series := &ForecastSeries{}
	for week := start; !week.After(end); week = week.AddDate(0, 0, 7) {
		k := week.Format("2006-01-02")
		wd := &models.WeekData{
			WeekEnding:   week,
			HoursPerWeek: HoursPerWeek,
		}

		if rows, ok := actualByWeek[k]; ok {
			wd.IsActual = true
			for _, a := range rows {
				entry := wd.Entry(a.Category)
				entry.Hours += a.Hours
				entry.Cost += a.Cost
			}
			for _, cat := range LaborCategories {
				entry := wd.Entry(cat)
				entry.Headcount = SafeDivide(entry.Hours, HoursPerWeek)
				entry.Rate = SafeDivide(entry.Cost, entry.Hours)
			}
		} else {
			for _, f := range forecastByWeek[k] {
				entry := wd.Entry(f.Category)
				entry.Headcount += f.Headcount
				if f.HoursPerWeek > 0 {
					wd.HoursPerWeek = f.HoursPerWeek
				}
			}
			for _, cat := range LaborCategories {
				entry := wd.Entry(cat)
				entry.Rate = CategoryRateOrDefault(rates, cat)
				entry.Hours = entry.Headcount * wd.HoursPerWeek
				entry.Cost = entry.Hours * entry.Rate
			}
		}

		recomputeWeekTotals(wd)
		series.Weeks = append(series.Weeks, wd)
	}

	series.recomputeCumulative(0)
	return series
}

func recomputeWeekTotals(wd *models.WeekData) {
	wd.TotalHeadcount = wd.Direct.Headcount + wd.Indirect.Headcount + wd.Staff.Headcount
	wd.TotalHours = wd.Direct.Hours + wd.Indirect.Hours + wd.Staff.Hours
	wd.TotalCost = wd.Direct.Cost + wd.Indirect.Cost + wd.Staff.Cost
	wd.AvgRate = SafeDivide(wd.TotalCost, wd.TotalHours)
}

// recomputeCumulative rebuilds the running hour/cost sums from index i to the
// end. O(n) per call; a single-week edit invalidates every cumulative value
// at or after that week, so nothing is cached incrementally. Headcount is a
// point-in-time figure and is never accumulated.
func (s *ForecastSeries) recomputeCumulative(from int) {
	if from < 0 {
		from = 0
	}
	var hours, cost float64
	if from > 0 {
		hours = s.Weeks[from-1].CumulativeHours
		cost = s.Weeks[from-1].CumulativeCost
	}
	for i := from; i < len(s.Weeks); i++ {
		hours += s.Weeks[i].TotalHours
		cost += s.Weeks[i].TotalCost
		s.Weeks[i].CumulativeHours = hours
		s.Weeks[i].CumulativeCost = cost
	}
}

func (s *ForecastSeries) checkEditable(index int) (*models.WeekData, error) {
	if index < 0 || index >= len(s.Weeks) {
		return nil, fmt.Errorf("week index %d out of range", index)
	}
	wd := s.Weeks[index]
	if wd.IsActual {
		return nil, fmt.Errorf("week ending %s holds actual data and cannot be edited", wd.WeekEnding.Format("2006-01-02"))
	}
	return wd, nil
}

// SetHeadcount edits one category's headcount on a forecast week, recomputing
// that category's hours and cost, the week totals, and the cumulative series
// from the edited week forward.
func (s *ForecastSeries) SetHeadcount(index int, category string, headcount float64) error {
	wd, err := s.checkEditable(index)
	if err != nil {
		return err
	}
	entry := wd.Entry(category)
	if entry == nil {
		return fmt.Errorf("unknown labor category %q", category)
	}
	if headcount < 0 {
		headcount = 0
	}

	entry.Headcount = headcount
	entry.Hours = headcount * wd.HoursPerWeek
	entry.Cost = entry.Hours * entry.Rate

	recomputeWeekTotals(wd)
	s.recomputeCumulative(index)
	return nil
}

// SetHoursPerWeek edits a forecast week's hours-per-person, recomputing all
// three category entries for that week only, then totals and cumulative.
func (s *ForecastSeries) SetHoursPerWeek(index int, hoursPerWeek float64) error {
	wd, err := s.checkEditable(index)
	if err != nil {
		return err
	}
	if hoursPerWeek < 0 {
		hoursPerWeek = 0
	}

	wd.HoursPerWeek = hoursPerWeek
	for _, cat := range LaborCategories {
		entry := wd.Entry(cat)
		entry.Hours = entry.Headcount * hoursPerWeek
		entry.Cost = entry.Hours * entry.Rate
	}

	recomputeWeekTotals(wd)
	s.recomputeCumulative(index)
	return nil
}

// CopyForward copies headcount and hours-per-week from a source week into
// following forecast weeks: the next 4 when all is false, every remaining
// week when true. Actual weeks are never overwritten. The cumulative series
// is rebuilt from the first changed week.
func (s *ForecastSeries) CopyForward(index int, all bool) error {
	if index < 0 || index >= len(s.Weeks) {
		return fmt.Errorf("week index %d out of range", index)
	}
	src := s.Weeks[index]

	limit := index + 4
	if all || limit > len(s.Weeks)-1 {
		limit = len(s.Weeks) - 1
	}

	firstChanged := -1
	for i := index + 1; i <= limit; i++ {
		wd := s.Weeks[i]
		if wd.IsActual {
			continue
		}
		wd.HoursPerWeek = src.HoursPerWeek
		for _, cat := range LaborCategories {
			entry := wd.Entry(cat)
			entry.Headcount = src.Entry(cat).Headcount
			entry.Hours = entry.Headcount * wd.HoursPerWeek
			entry.Cost = entry.Hours * entry.Rate
		}
		recomputeWeekTotals(wd)
		if firstChanged == -1 {
			firstChanged = i
		}
	}

	if firstChanged != -1 {
		s.recomputeCumulative(firstChanged)
	}
	return nil
}

// ClearForecasts zeroes every forecast week's entries and totals, leaving
// actual weeks untouched.
func (s *ForecastSeries) ClearForecasts() {
	for _, wd := range s.Weeks {
		if wd.IsActual {
			continue
		}
		for _, cat := range LaborCategories {
			entry := wd.Entry(cat)
			rate := entry.Rate
			*entry = models.CategoryEntry{Rate: rate}
		}
		recomputeWeekTotals(wd)
	}
	s.recomputeCumulative(0)
}
