package models

import (
	"time"

	_ "github.com/lib/pq"
)

type User struct {
	ID          int       `json:"id" example:"1"`
	EmployeeId  string    `json:"employee_id" example:"EMP001"`
	Email       string    `json:"email" example:"controller@example.com"`
	Password    string    `json:"password" example:""`
	FirstName   string    `json:"first_name" example:"John"`
	LastName    string    `json:"last_name" example:"Doe"`
	Role        string    `json:"role" example:"controller"`
	CreatedAt   time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt   time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
	LastAccess  time.Time `json:"last_access,omitempty" example:"2024-01-15T10:30:00Z"`
	IsAdmin     bool      `json:"is_admin" example:"false"`
	PhoneNo     string    `json:"phone_no" example:"9876543210"`
	Suspended   bool      `json:"suspended" example:"false"`
	ProfilePic  string    `json:"profile_picture" example:""`
	CompanyName string    `json:"company_name,omitempty" example:"ICS Construction"`
}

type Session struct {
	UserID                int       `json:"user_id" example:"1"`
	SessionID             string    `json:"session_id" example:""`
	HostName              string    `json:"host_name" example:"controller@example.com"`
	IPAddress             string    `json:"ip_address" example:"10.0.0.12"`
	Timestamp             time.Time `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	ExpiresAt             time.Time `json:"expires_at" example:"2024-01-16T10:30:00Z"`
	RefreshToken          string    `json:"refresh_token,omitempty" example:""`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty" example:"2024-01-30T10:30:00Z"`
}

type Client struct {
	ClientID      int       `json:"client_id" example:"1"`
	Name          string    `json:"name" example:"Gulf Coast Refining"`
	ContactPerson string    `json:"contact_person" example:"Jane Smith"`
	ContactEmail  string    `json:"contact_email" example:"jane@gulfcoast.com"`
	ContactNumber string    `json:"contact_number" example:"2815550134"`
	Address       string    `json:"address" example:"100 Industrial Pkwy"`
	City          string    `json:"city" example:"Houston"`
	State         string    `json:"state" example:"TX"`
	CreatedAt     time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt     time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

type Project struct {
	ProjectID      int        `json:"project_id" example:"1"`
	JobNumber      string     `json:"job_number" example:"5800"`
	Name           string     `json:"name" example:"SDO Tank Farm Expansion"`
	Description    string     `json:"description" example:"Tank farm mechanical scope"`
	ClientID       int        `json:"client_id" example:"1"`
	ClientName     string     `json:"client_name,omitempty" example:"Gulf Coast Refining"`
	Status         string     `json:"status" example:"active"`
	StartDate      *time.Time `json:"start_date,omitempty" example:"2025-01-06T00:00:00Z"`
	EndDate        *time.Time `json:"end_date,omitempty" example:"2025-12-19T00:00:00Z"`
	OriginalBudget float64    `json:"original_budget" example:"12500000"`
	RevisedBudget  float64    `json:"revised_budget" example:"13100000"`
	LaborBudget    float64    `json:"labor_budget" example:"4200000"`
	ManhoursBudget float64    `json:"manhours_budget" example:"86000"`
	CreatedAt      time.Time  `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt      time.Time  `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// PurchaseOrder mirrors the purchase_orders table. The four money fields are
// nullable on purpose: the forecast calculator treats a missing value and a
// zero value differently.
type PurchaseOrder struct {
	POID                int        `json:"po_id" example:"1"`
	ProjectID           int        `json:"project_id" example:"1"`
	PONumber            string     `json:"po_number" example:"PO-5800-0042"`
	VendorName          string     `json:"vendor_name" example:"ACME Valve Supply"`
	Description         string     `json:"description" example:"Control valves, unit 3"`
	Status              string     `json:"status" example:"open"`
	CommittedAmount     *float64   `json:"committed_amount" example:"100000"`
	InvoicedAmount      *float64   `json:"invoiced_amount" example:"42000"`
	ForecastAmount      *float64   `json:"forecast_amount" example:"101500"`
	ForecastedFinalCost *float64   `json:"forecasted_final_cost" example:"103000"`
	IssueDate           *time.Time `json:"issue_date,omitempty" example:"2025-02-03T00:00:00Z"`
	CreatedAt           time.Time  `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt           time.Time  `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// CraftType classifies labor rows into direct/indirect/staff when the row
// itself carries only a craft id (legacy data).
type CraftType struct {
	ID          int      `json:"id" example:"1"`
	Code        string   `json:"code" example:"PF"`
	Name        string   `json:"name" example:"Pipefitter"`
	Category    string   `json:"category" example:"direct"`
	DefaultRate float64  `json:"default_rate" example:"52.5"`
	BillingRate *float64 `json:"billing_rate,omitempty" example:"68"`
	IsActive    bool     `json:"is_active" example:"true"`
}

// LaborActual is one historical week of labor cost for a project. Exactly one
// of CraftTypeID / LaborCategory is expected to be set; rows are normalized
// into category-tagged records at ingestion (services.NormalizeActuals).
type LaborActual struct {
	ID                   int        `json:"id" example:"1"`
	ProjectID            int        `json:"project_id" example:"1"`
	WeekEnding           time.Time  `json:"week_ending" example:"2025-01-05T00:00:00Z"`
	CraftTypeID          *int       `json:"craft_type_id,omitempty" example:"1"`
	LaborCategory        *string    `json:"labor_category,omitempty" example:"direct"`
	ActualHours          float64    `json:"actual_hours" example:"412"`
	ActualCost           float64    `json:"actual_cost" example:"21424"`
	ActualCostWithBurden *float64   `json:"actual_cost_with_burden,omitempty" example:"27422.7"`
	BurdenAmount         *float64   `json:"burden_amount,omitempty" example:"5998.7"`
	Description          string     `json:"description,omitempty" example:""`
	CreatedAt            time.Time  `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty" example:"2024-01-15T10:30:00Z"`
}

// HeadcountForecast is one projected week of staffing for a project.
type HeadcountForecast struct {
	ID             int       `json:"id" example:"1"`
	ProjectID      int       `json:"project_id" example:"1"`
	WeekStarting   time.Time `json:"week_starting" example:"2025-06-02T00:00:00Z"`
	CraftTypeID    *int      `json:"craft_type_id,omitempty" example:"1"`
	LaborCategory  *string   `json:"labor_category,omitempty" example:"direct"`
	Headcount      float64   `json:"headcount" example:"12"`
	AvgWeeklyHours float64   `json:"avg_weekly_hours" example:"50"`
	CreatedAt      time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt      time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// BudgetLineItem is one allocated cost entry produced by the budget import.
// TotalCost always equals the sum of the seven typed cost buckets.
type BudgetLineItem struct {
	ID            int       `json:"id" example:"1"`
	ProjectID     int       `json:"project_id" example:"1"`
	ImportBatchID string    `json:"import_batch_id" example:"1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"`
	SourceSheet   string    `json:"source_sheet" example:"BUDGETS"`
	SourceRow     int       `json:"source_row" example:"14"`
	WBSCode       *string   `json:"wbs_code,omitempty" example:"01.1"`
	Discipline    string    `json:"discipline" example:"Piping"`
	Category      string    `json:"category" example:"LABOR"`
	Subcategory   string    `json:"subcategory" example:"DIRECT"`
	CostType      string    `json:"cost_type" example:"Direct Labor"`
	Description   string    `json:"description" example:"Piping - Direct Labor"`
	Quantity      *float64  `json:"quantity,omitempty" example:"1200"`
	Unit          *string   `json:"unit,omitempty" example:"LF"`
	Rate          *float64  `json:"rate,omitempty" example:"85.5"`
	Manhours      *float64  `json:"manhours,omitempty" example:"5400"`
	LaborDirect   float64   `json:"labor_direct" example:"459000"`
	LaborIndirect float64   `json:"labor_indirect" example:"0"`
	LaborStaff    float64   `json:"labor_staff" example:"0"`
	Materials     float64   `json:"materials" example:"0"`
	Equipment     float64   `json:"equipment" example:"0"`
	Subcontracts  float64   `json:"subcontracts" example:"0"`
	SmallTools    float64   `json:"small_tools" example:"0"`
	TotalCost     float64   `json:"total_cost" example:"459000"`
	CreatedAt     time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// WBSNode is one node of the work breakdown structure tree. BudgetTotal is
// rolled up bottom-up after construction and never mutated top-down.
type WBSNode struct {
	Code          string     `json:"code" example:"01.1"`
	ParentCode    *string    `json:"parent_code,omitempty" example:"01"`
	Level         int        `json:"level" example:"2"`
	Description   string     `json:"description" example:"Piping"`
	Children      []*WBSNode `json:"children,omitempty"`
	BudgetTotal   float64    `json:"budget_total" example:"1250000"`
	ManhoursTotal float64    `json:"manhours_total,omitempty" example:"5400"`
	MaterialCost  float64    `json:"material_cost,omitempty" example:"220000"`

	// Directly-assigned amounts, before child rollup. Kept separate so the
	// rollup pass is idempotent.
	DirectBudget   float64 `json:"-"`
	DirectManhours float64 `json:"-"`
	DirectMaterial float64 `json:"-"`
}

// CategoryEntry is one labor category's slice of a forecast week.
type CategoryEntry struct {
	Headcount float64 `json:"headcount" example:"12"`
	Hours     float64 `json:"hours" example:"600"`
	Cost      float64 `json:"cost" example:"31500"`
	Rate      float64 `json:"rate" example:"52.5"`
}

// WeekData is one calendar week (week ending Sunday) of the merged
// actual/forecast labor series for a project. Totals are the sum of the three
// category entries; cumulative fields are running sums from the first week.
type WeekData struct {
	WeekEnding      time.Time     `json:"week_ending" example:"2025-06-08T00:00:00Z"`
	IsActual        bool          `json:"is_actual" example:"false"`
	HoursPerWeek    float64       `json:"hours_per_week" example:"50"`
	Direct          CategoryEntry `json:"direct"`
	Indirect        CategoryEntry `json:"indirect"`
	Staff           CategoryEntry `json:"staff"`
	TotalHeadcount  float64       `json:"total_headcount" example:"18"`
	TotalHours      float64       `json:"total_hours" example:"900"`
	TotalCost       float64       `json:"total_cost" example:"47250"`
	AvgRate         float64       `json:"avg_rate" example:"52.5"`
	CumulativeHours float64       `json:"cumulative_hours" example:"15400"`
	CumulativeCost  float64       `json:"cumulative_cost" example:"812000"`
}

// Entry returns the category entry for "direct", "indirect" or "staff",
// nil for anything else.
func (w *WeekData) Entry(category string) *CategoryEntry {
	switch category {
	case "direct":
		return &w.Direct
	case "indirect":
		return &w.Indirect
	case "staff":
		return &w.Staff
	}
	return nil
}

type ActivityLog struct {
	ID           int       `json:"id" example:"1"`
	EventContext string    `json:"event_context" example:"Budget Import"`
	EventName    string    `json:"event_name" example:"Import"`
	Description  string    `json:"description" example:"User imported BUDGETS workbook"`
	UserName     string    `json:"user_name" example:"John Doe"`
	HostName     string    `json:"host_name" example:"controller@example.com"`
	IPAddress    string    `json:"ip_address" example:"10.0.0.12"`
	ProjectID    int       `json:"project_id" example:"1"`
	CreatedAt    time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

type Notification struct {
	ID        int       `json:"id" example:"1"`
	UserID    int       `json:"user_id" example:"1"`
	Message   string    `json:"message" example:"Budget import completed for SDO Tank Farm Expansion"`
	Status    string    `json:"status" example:"unread"`
	Action    string    `json:"action" example:"/project/1/budget"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}
