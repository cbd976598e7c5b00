package services

import (
	"testing"
	"time"
)

func TestWeekEndingSunday(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"wednesday", time.Date(2025, 6, 4, 15, 30, 0, 0, time.UTC), time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)},
		{"monday", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)},
		{"sunday maps to itself", time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)},
		{"saturday", time.Date(2025, 6, 7, 23, 59, 0, 0, time.UTC), time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekEndingSunday(tt.in); !got.Equal(tt.want) {
				t.Errorf("WeekEndingSunday(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// checkCumulative verifies the running-sum invariant over the whole series.
func checkCumulative(t *testing.T, s *ForecastSeries) {
	t.Helper()
	var hours, cost float64
	for i, wd := range s.Weeks {
		hours += wd.TotalHours
		cost += wd.TotalCost
		if !almostEqual(wd.CumulativeHours, hours) {
			t.Errorf("week %d: cumulative hours = %v, want %v", i, wd.CumulativeHours, hours)
		}
		if !almostEqual(wd.CumulativeCost, cost) {
			t.Errorf("week %d: cumulative cost = %v, want %v", i, wd.CumulativeCost, cost)
		}
	}
}

func buildTestSeries(t *testing.T) *ForecastSeries {
	t.Helper()
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC) // week ending 2025-06-15

	actuals := []NormalizedActual{
		{WeekEnding: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Category: "direct", Hours: 150, Cost: 8000},
		{WeekEnding: time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), Category: "direct", Hours: 200, Cost: 11000},
		{WeekEnding: time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), Category: "indirect", Hours: 50, Cost: 2750},
	}
	forecasts := []NormalizedForecast{
		{WeekEnding: time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC), Category: "direct", Headcount: 10, HoursPerWeek: 50},
	}
	rates := map[string]RunningAverage{
		"direct":   {Rate: 55},
		"indirect": {Rate: 60},
	}

	return BuildWeeklySeries(actuals, forecasts, rates, now, 4)
}

func TestBuildWeeklySeries(t *testing.T) {
	s := buildTestSeries(t)

	// Lead-in of two weeks before the earliest actual (2025-06-01) through
	// four weeks past the current week (2025-06-15): 2025-05-18 .. 2025-07-13.
	if len(s.Weeks) != 9 {
		t.Fatalf("got %d weeks, want 9", len(s.Weeks))
	}
	if got := s.Weeks[0].WeekEnding.Format("2006-01-02"); got != "2025-05-18" {
		t.Errorf("first week = %s, want 2025-05-18", got)
	}
	if got := s.Weeks[8].WeekEnding.Format("2006-01-02"); got != "2025-07-13" {
		t.Errorf("last week = %s, want 2025-07-13", got)
	}

	// Week of 2025-06-01 is an actual week: headcount derives from hours.
	wk := s.Weeks[2]
	if !wk.IsActual {
		t.Fatal("week of 2025-06-01 should be actual")
	}
	if !almostEqual(wk.Direct.Headcount, 3) {
		t.Errorf("derived headcount = %v, want 150/50 = 3", wk.Direct.Headcount)
	}
	if !almostEqual(wk.Direct.Rate, 8000.0/150) {
		t.Errorf("realized rate = %v, want cost/hours", wk.Direct.Rate)
	}

	// Week of 2025-06-08 merges two categories.
	wk = s.Weeks[3]
	if !almostEqual(wk.TotalHours, 250) || !almostEqual(wk.TotalCost, 13750) {
		t.Errorf("merged week totals = %v/%v, want 250/13750", wk.TotalHours, wk.TotalCost)
	}

	// Week of 2025-06-22 is a forecast week: hours = headcount x hoursPerWeek,
	// cost = hours x category rate.
	wk = s.Weeks[5]
	if wk.IsActual {
		t.Fatal("week of 2025-06-22 should be forecast")
	}
	if !almostEqual(wk.Direct.Hours, 500) {
		t.Errorf("forecast hours = %v, want 10 x 50", wk.Direct.Hours)
	}
	if !almostEqual(wk.Direct.Cost, 27500) {
		t.Errorf("forecast cost = %v, want 500 x 55", wk.Direct.Cost)
	}

	// Weeks with no data stay zero but still advance the cumulative line.
	checkCumulative(t, s)
}

func TestSetHeadcount(t *testing.T) {
	s := buildTestSeries(t)

	if err := s.SetHeadcount(6, "indirect", 4); err != nil {
		t.Fatalf("SetHeadcount: %v", err)
	}
	wk := s.Weeks[6]
	if !almostEqual(wk.Indirect.Hours, 4*HoursPerWeek) {
		t.Errorf("hours = %v, want %v", wk.Indirect.Hours, 4*HoursPerWeek)
	}
	if !almostEqual(wk.Indirect.Cost, 4*HoursPerWeek*60) {
		t.Errorf("cost = %v, want headcount x hours x rate", wk.Indirect.Cost)
	}
	checkCumulative(t, s)
}

func TestSetHeadcountRejectsActualWeek(t *testing.T) {
	s := buildTestSeries(t)
	if err := s.SetHeadcount(2, "direct", 99); err == nil {
		t.Fatal("editing an actual week must fail")
	}
	if err := s.SetHeadcount(99, "direct", 1); err == nil {
		t.Fatal("out-of-range index must fail")
	}
	if err := s.SetHeadcount(6, "overhead", 1); err == nil {
		t.Fatal("unknown category must fail")
	}
}

func TestSetHoursPerWeek(t *testing.T) {
	s := buildTestSeries(t)

	if err := s.SetHeadcount(5, "direct", 10); err != nil {
		t.Fatalf("SetHeadcount: %v", err)
	}
	if err := s.SetHoursPerWeek(5, 60); err != nil {
		t.Fatalf("SetHoursPerWeek: %v", err)
	}

	wk := s.Weeks[5]
	if !almostEqual(wk.Direct.Hours, 600) {
		t.Errorf("hours = %v, want 10 x 60", wk.Direct.Hours)
	}
	checkCumulative(t, s)
}

func TestCopyForwardNextFour(t *testing.T) {
	s := buildTestSeries(t)

	if err := s.SetHeadcount(4, "direct", 8); err != nil {
		t.Fatalf("SetHeadcount: %v", err)
	}
	if err := s.CopyForward(4, false); err != nil {
		t.Fatalf("CopyForward: %v", err)
	}

	for i := 5; i <= 8; i++ {
		if !almostEqual(s.Weeks[i].Direct.Headcount, 8) {
			t.Errorf("week %d headcount = %v, want 8", i, s.Weeks[i].Direct.Headcount)
		}
	}
	checkCumulative(t, s)
}

func TestCopyForwardSkipsActualWeeks(t *testing.T) {
	s := buildTestSeries(t)

	// Source is the lead-in week before the actual weeks; copying forward
	// must leave weeks 2 and 3 (actuals) untouched.
	if err := s.CopyForward(1, false); err != nil {
		t.Fatalf("CopyForward: %v", err)
	}
	if !almostEqual(s.Weeks[2].Direct.Hours, 150) {
		t.Errorf("actual week hours changed to %v", s.Weeks[2].Direct.Hours)
	}
	if !almostEqual(s.Weeks[3].TotalHours, 250) {
		t.Errorf("actual week totals changed to %v", s.Weeks[3].TotalHours)
	}
	checkCumulative(t, s)
}

func TestCopyForwardAll(t *testing.T) {
	s := buildTestSeries(t)

	if err := s.SetHeadcount(4, "staff", 2); err != nil {
		t.Fatalf("SetHeadcount: %v", err)
	}
	if err := s.CopyForward(4, true); err != nil {
		t.Fatalf("CopyForward: %v", err)
	}
	if !almostEqual(s.Weeks[8].Staff.Headcount, 2) {
		t.Errorf("last week staff headcount = %v, want 2", s.Weeks[8].Staff.Headcount)
	}
	checkCumulative(t, s)
}

func TestClearForecasts(t *testing.T) {
	s := buildTestSeries(t)
	s.ClearForecasts()

	for i, wk := range s.Weeks {
		if wk.IsActual {
			if wk.TotalHours == 0 {
				t.Errorf("week %d: actual data cleared", i)
			}
			continue
		}
		if wk.TotalHours != 0 || wk.TotalCost != 0 || wk.TotalHeadcount != 0 {
			t.Errorf("week %d: forecast not cleared: %+v", i, wk)
		}
	}
	// Rates survive the clear so re-entered headcounts still price out.
	if !almostEqual(s.Weeks[5].Direct.Rate, 55) {
		t.Errorf("rate after clear = %v, want 55", s.Weeks[5].Direct.Rate)
	}
	checkCumulative(t, s)
}
