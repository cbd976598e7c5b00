package models

type ErrorResponse struct {
	Error   string `json:"error" example:"Invalid session"`
	Details string `json:"details,omitempty" example:""`
}

type SuccessResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"OK"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"controller@example.com"`
	Password string `json:"password" binding:"required" example:""`
	IP       string `json:"ip" binding:"required" example:"10.0.0.12"`
}

type LoginResponse struct {
	Message      string `json:"message" example:"Login successful"`
	SessionID    string `json:"session_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// LaborKPIs is the dashboard summary block. Every numeric field is sanitized
// finite before it leaves the analytics layer.
type LaborKPIs struct {
	TotalActualCost  float64 `json:"total_actual_cost" example:"812000"`
	TotalActualHours float64 `json:"total_actual_hours" example:"15400"`
	BudgetedCost     float64 `json:"budgeted_cost" example:"4200000"`
	BudgetedHours    float64 `json:"budgeted_hours" example:"86000"`
	VarianceDollars  float64 `json:"variance_dollars" example:"-3388000"`
	VariancePercent  float64 `json:"variance_percent" example:"-80.67"`
	LaborBurnPercent float64 `json:"labor_burn_percent" example:"19.33"`
	CompositeRate    float64 `json:"composite_rate" example:"52.73"`
	AverageFTE       float64 `json:"average_fte" example:"15.4"`
	WeeksOfData      int     `json:"weeks_of_data" example:"20"`
}

// CraftBreakdownRow is one craft's share of actual labor plus its variance
// against budget, when a per-craft budget is known.
type CraftBreakdownRow struct {
	CraftTypeID     int     `json:"craft_type_id" example:"1"`
	CraftName       string  `json:"craft_name" example:"Pipefitter"`
	CraftCode       string  `json:"craft_code" example:"PF"`
	Category        string  `json:"category" example:"direct"`
	ActualHours     float64 `json:"actual_hours" example:"5200"`
	ActualCost      float64 `json:"actual_cost" example:"273000"`
	Rate            float64 `json:"rate" example:"52.5"`
	BudgetedCost    float64 `json:"budgeted_cost" example:"300000"`
	VarianceDollars float64 `json:"variance_dollars" example:"-27000"`
}

// WeeklyTrendRow is one week of the dashboard trend chart.
type WeeklyTrendRow struct {
	WeekEnding     string  `json:"week_ending" example:"2025-06-08"`
	IsActual       bool    `json:"is_actual" example:"true"`
	Hours          float64 `json:"hours" example:"900"`
	Cost           float64 `json:"cost" example:"47250"`
	CumulativeCost float64 `json:"cumulative_cost" example:"812000"`
	CompositeRate  float64 `json:"composite_rate" example:"52.5"`
}

// PeriodBreakdownRow is one week broken down by labor category.
type PeriodBreakdownRow struct {
	WeekEnding    string  `json:"week_ending" example:"2025-06-08"`
	Category      string  `json:"category" example:"direct"`
	Headcount     float64 `json:"headcount" example:"12"`
	Hours         float64 `json:"hours" example:"600"`
	Cost          float64 `json:"cost" example:"31500"`
	Rate          float64 `json:"rate" example:"52.5"`
	FTE           float64 `json:"fte" example:"12"`
	IsActual      bool    `json:"is_actual" example:"true"`
}

// POForecastTotals aggregates purchase order commitments for a project.
type POForecastTotals struct {
	TotalCommitted       float64 `json:"total_committed" example:"2400000"`
	TotalInvoiced        float64 `json:"total_invoiced" example:"1750000"`
	TotalForecast        float64 `json:"total_forecast" example:"2460000"`
	RemainingCommitments float64 `json:"remaining_commitments" example:"650000"`
	POCount              int     `json:"po_count" example:"34"`
}
