package models

import "time"

// PortfolioStatusHistory tracks historical status changes for portfolios.
type PortfolioStatusHistory struct {
	HistoryID   uint             `gorm:"primaryKey;column:history_id" json:"history_id"`
	PortfolioID uint             `gorm:"column:portfolio_id;not null;index" json:"portfolio_id"`
	OldStatus   *PortfolioStatus `gorm:"column:old_status;size:32" json:"old_status"`
	NewStatus   PortfolioStatus  `gorm:"column:new_status;size:32;not null" json:"new_status"`
	ChangedBy   uint             `gorm:"column:changed_by;not null" json:"changed_by"`
	Notes       *string          `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt   time.Time        `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table for PortfolioStatusHistory.
func (PortfolioStatusHistory) TableName() string {
	return "portfolio_status_history"
}
