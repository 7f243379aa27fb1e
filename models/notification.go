package models

import "time"

type Notification struct {
	NotificationID     uint       `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	UserID             uint       `gorm:"column:user_id;not null;index" json:"user_id"`
	Title              string     `gorm:"column:title;size:255;not null" json:"title"`
	Message            string     `gorm:"column:message;type:text;not null" json:"message"`
	Type               string     `gorm:"column:type;size:20;not null" json:"type"` // info|success|warning|error
	RelatedPortfolioID *uint      `gorm:"column:related_portfolio_id;index" json:"related_portfolio_id,omitempty"`
	IsRead             bool       `gorm:"column:is_read;not null" json:"is_read"`
	ReadAt             *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt          time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
)
