package services

import (
	"testing"

	"backend/models"
)

func TestCalculatePOForecast(t *testing.T) {
	tests := []struct {
		name string
		po   models.PurchaseOrder
		want float64
	}{
		{
			"forecasted final cost wins",
			models.PurchaseOrder{ForecastedFinalCost: f64Ptr(103000), ForecastAmount: f64Ptr(101500), CommittedAmount: f64Ptr(100000)},
			103000,
		},
		{
			"forecast amount next",
			models.PurchaseOrder{ForecastAmount: f64Ptr(101500), CommittedAmount: f64Ptr(100000)},
			101500,
		},
		{
			"committed amount last",
			models.PurchaseOrder{CommittedAmount: f64Ptr(100000)},
			100000,
		},
		{
			"all nil",
			models.PurchaseOrder{},
			0,
		},
		{
			"floored at invoiced",
			models.PurchaseOrder{CommittedAmount: f64Ptr(1000), InvoicedAmount: f64Ptr(1500)},
			1500,
		},
		{
			"zero forecasted final is still explicit",
			models.PurchaseOrder{ForecastedFinalCost: f64Ptr(0), CommittedAmount: f64Ptr(100000)},
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculatePOForecast(tt.po); !almostEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// Whatever figures a PO carries, the forecast never drops below invoiced.
func TestCalculatePOForecastNeverBelowInvoiced(t *testing.T) {
	amounts := []*float64{nil, f64Ptr(0), f64Ptr(500), f64Ptr(2000)}
	for _, committed := range amounts {
		for _, forecast := range amounts {
			for _, final := range amounts {
				po := models.PurchaseOrder{
					CommittedAmount:     committed,
					InvoicedAmount:      f64Ptr(1000),
					ForecastAmount:      forecast,
					ForecastedFinalCost: final,
				}
				if got := CalculatePOForecast(po); got < 1000 {
					t.Errorf("forecast %v below invoiced for %+v", got, po)
				}
			}
		}
	}
}

func TestCalculateTotalPOForecast(t *testing.T) {
	pos := []models.PurchaseOrder{
		{CommittedAmount: f64Ptr(100000), InvoicedAmount: f64Ptr(42000), ForecastedFinalCost: f64Ptr(103000)},
		{CommittedAmount: f64Ptr(50000), InvoicedAmount: f64Ptr(50000)},
		{ForecastAmount: f64Ptr(7500)},
	}

	totals := CalculateTotalPOForecast(pos)
	if totals.POCount != 3 {
		t.Errorf("count = %d, want 3", totals.POCount)
	}
	if !almostEqual(totals.TotalCommitted, 150000) {
		t.Errorf("committed = %v, want 150000", totals.TotalCommitted)
	}
	if !almostEqual(totals.TotalInvoiced, 92000) {
		t.Errorf("invoiced = %v, want 92000", totals.TotalInvoiced)
	}
	if !almostEqual(totals.TotalForecast, 160500) {
		t.Errorf("forecast = %v, want 160500", totals.TotalForecast)
	}
	if !almostEqual(totals.RemainingCommitments, 58000) {
		t.Errorf("remaining = %v, want 58000", totals.RemainingCommitments)
	}
}

func TestCalculateTotalPOForecastOverInvoiced(t *testing.T) {
	pos := []models.PurchaseOrder{
		{CommittedAmount: f64Ptr(1000), InvoicedAmount: f64Ptr(1500)},
	}
	totals := CalculateTotalPOForecast(pos)
	if totals.RemainingCommitments != 0 {
		t.Errorf("remaining = %v, want clamped to 0", totals.RemainingCommitments)
	}
	if !almostEqual(totals.TotalForecast, 1500) {
		t.Errorf("forecast = %v, want invoiced floor 1500", totals.TotalForecast)
	}
}
