package models

import "time"

// PortfolioDocument is one uploaded file filed under a category. A category may hold many.
type PortfolioDocument struct {
	DocumentID   uint      `gorm:"primaryKey;column:document_id" json:"document_id"`
	PortfolioID  uint      `gorm:"column:portfolio_id;not null;index" json:"portfolio_id"`
	CategoryID   uint      `gorm:"column:category_id;not null;index" json:"category_id"`
	OriginalName string    `gorm:"column:original_name;size:255;not null" json:"original_name"`
	StoredPath   string    `gorm:"column:stored_path;size:500;not null" json:"-"`
	FileSize     int64     `gorm:"column:file_size;not null" json:"file_size"`
	MimeType     string    `gorm:"column:mime_type;size:150;not null" json:"mime_type"`
	Notes        *string   `gorm:"column:notes;type:text" json:"notes,omitempty"`
	UploadedBy   uint      `gorm:"column:uploaded_by;not null" json:"uploaded_by"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	Category *DocumentCategory `json:"category,omitempty"`
}

func (PortfolioDocument) TableName() string {
	return "portfolio_documents"
}

// GetFileSizeInMB returns the stored size in megabytes.
func (d *PortfolioDocument) GetFileSizeInMB() float64 {
	return float64(d.FileSize) / (1024 * 1024)
}
