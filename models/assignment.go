package models

import "time"

type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
)

// Valid reports whether s is a known assignment status.
func (s AssignmentStatus) Valid() bool {
	return s == AssignmentPending || s == AssignmentInProgress || s == AssignmentCompleted
}

// IsActive is true for work the evaluator still owes.
func (s AssignmentStatus) IsActive() bool {
	return s == AssignmentPending || s == AssignmentInProgress
}

// PortfolioAssignment links an evaluator to a portfolio. The pair is unique;
// re-assigning overwrites the row in place.
type PortfolioAssignment struct {
	AssignmentID uint             `gorm:"primaryKey;column:assignment_id" json:"assignment_id"`
	PortfolioID  uint             `gorm:"column:portfolio_id;not null;uniqueIndex:idx_assignment_portfolio_evaluator" json:"portfolio_id"`
	EvaluatorID  uint             `gorm:"column:evaluator_id;not null;uniqueIndex:idx_assignment_portfolio_evaluator;index" json:"evaluator_id"`
	AssignedBy   uint             `gorm:"column:assigned_by;not null" json:"assigned_by"`
	Status       AssignmentStatus `gorm:"column:status;size:32;not null;index" json:"status"`
	DueDate      *time.Time       `gorm:"column:due_date" json:"due_date"`
	Notes        *string          `gorm:"column:notes;type:text" json:"notes"`
	AssignedAt   time.Time        `gorm:"column:assigned_at;not null" json:"assigned_at"`
	CompletedAt  *time.Time       `gorm:"column:completed_at" json:"completed_at"`
	CreatedAt    time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	Portfolio  *Portfolio  `json:"portfolio,omitempty"`
	Evaluator  *User       `gorm:"foreignKey:EvaluatorID;references:UserID" json:"evaluator,omitempty"`
	Assigner   *User       `gorm:"foreignKey:AssignedBy;references:UserID" json:"assigner,omitempty"`
	Evaluation *Evaluation `gorm:"foreignKey:AssignmentID" json:"evaluation,omitempty"`
}

func (PortfolioAssignment) TableName() string {
	return "portfolio_assignments"
}
