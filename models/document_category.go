package models

import "time"

// DocumentCategory is an admin-defined upload slot. Required categories gate submission.
type DocumentCategory struct {
	CategoryID  uint      `gorm:"primaryKey;column:category_id" json:"category_id"`
	Name        string    `gorm:"column:name;size:150;not null;uniqueIndex" json:"name"`
	Slug        string    `gorm:"column:slug;size:180;not null;uniqueIndex" json:"slug"`
	Description *string   `gorm:"column:description;type:text" json:"description,omitempty"`
	IsRequired  bool      `gorm:"column:is_required;not null" json:"is_required"`
	SortOrder   int       `gorm:"column:sort_order;not null" json:"sort_order"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (DocumentCategory) TableName() string {
	return "document_categories"
}
