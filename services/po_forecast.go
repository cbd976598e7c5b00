package services

import (
	"backend/models"
)

// CalculatePOForecast picks the best available forecast figure for one
// purchase order: forecasted final cost, then forecast amount, then committed
// amount, else zero. The result is floored at the invoiced amount; a PO can
// never forecast below what has already been invoiced.
func CalculatePOForecast(po models.PurchaseOrder) float64 {
	var forecast float64
	switch {
	case po.ForecastedFinalCost != nil:
		forecast = *po.ForecastedFinalCost
	case po.ForecastAmount != nil:
		forecast = *po.ForecastAmount
	case po.CommittedAmount != nil:
		forecast = *po.CommittedAmount
	}

	if po.InvoicedAmount != nil && forecast < *po.InvoicedAmount {
		forecast = *po.InvoicedAmount
	}
	return SanitizeFinite(forecast)
}

// CalculateTotalPOForecast sums committed, invoiced and per-PO forecast
// values across a list. Remaining commitments never go negative: an
// over-invoiced project simply has nothing left to draw.
func CalculateTotalPOForecast(pos []models.PurchaseOrder) models.POForecastTotals {
	totals := models.POForecastTotals{POCount: len(pos)}
	for _, po := range pos {
		if po.CommittedAmount != nil {
			totals.TotalCommitted += *po.CommittedAmount
		}
		if po.InvoicedAmount != nil {
			totals.TotalInvoiced += *po.InvoicedAmount
		}
		totals.TotalForecast += CalculatePOForecast(po)
	}

	totals.RemainingCommitments = totals.TotalCommitted - totals.TotalInvoiced
	if totals.RemainingCommitments < 0 {
		totals.RemainingCommitments = 0
	}

	totals.TotalCommitted = SanitizeFinite(totals.TotalCommitted)
	totals.TotalInvoiced = SanitizeFinite(totals.TotalInvoiced)
	totals.TotalForecast = SanitizeFinite(totals.TotalForecast)
	return totals
}
