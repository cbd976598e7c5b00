package models

import (
	"time"
)

// ChangeOrder is managed through GORM (see handlers/ChangeOrderHandlers.go);
// the rest of the schema is accessed through database/sql.
type ChangeOrder struct {
	ID            uint       `gorm:"primaryKey" json:"id" example:"1"`
	ProjectID     int        `gorm:"not null;index" json:"project_id" example:"1"`
	CONumber      string     `gorm:"column:co_number;size:50;not null" json:"co_number" example:"CO-5800-003"`
	Title         string     `gorm:"size:255;not null" json:"title" example:"Added pipe rack scope"`
	Description   string     `gorm:"type:text" json:"description" example:"Client directed extra work order"`
	Status        string     `gorm:"size:30;default:pending" json:"status" example:"approved"`
	Amount        float64    `gorm:"type:numeric(14,2)" json:"amount" example:"185000"`
	ManhoursDelta float64    `gorm:"type:numeric(12,2)" json:"manhours_delta" example:"2200"`
	SubmittedDate *time.Time `json:"submitted_date,omitempty" example:"2025-03-10T00:00:00Z"`
	ApprovedDate  *time.Time `json:"approved_date,omitempty" example:"2025-03-28T00:00:00Z"`
	CreatedBy     int        `json:"created_by" example:"1"`
	CreatedAt     time.Time  `json:"created_at" example:"2025-03-10T09:00:00Z"`
	UpdatedAt     time.Time  `json:"updated_at" example:"2025-03-28T15:00:00Z"`
}

// TableName overrides the default pluralization.
func (ChangeOrder) TableName() string {
	return "change_orders"
}
