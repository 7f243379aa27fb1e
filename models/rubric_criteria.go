package models

import "time"

// RubricCriteria is one scoring dimension. Scores recorded against it are
// clamped to MaxScore at write time.
type RubricCriteria struct {
	CriteriaID  uint      `gorm:"primaryKey;column:criteria_id" json:"criteria_id"`
	Name        string    `gorm:"column:name;size:255;not null" json:"name"`
	Description *string   `gorm:"column:description;type:text" json:"description,omitempty"`
	MaxScore    int       `gorm:"column:max_score;not null" json:"max_score"`
	SortOrder   int       `gorm:"column:sort_order;not null" json:"sort_order"`
	IsActive    bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (RubricCriteria) TableName() string {
	return "rubric_criteria"
}

// Clamp limits score to the criterion's maximum.
func (rc RubricCriteria) Clamp(score int) int {
	if score > rc.MaxScore {
		return rc.MaxScore
	}
	return score
}
