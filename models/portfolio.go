package models

import "time"

// PortfolioStatus is the lifecycle state of a portfolio.
type PortfolioStatus string

const (
	PortfolioDraft             PortfolioStatus = "draft"
	PortfolioSubmitted         PortfolioStatus = "submitted"
	PortfolioUnderReview       PortfolioStatus = "under_review"
	PortfolioEvaluated         PortfolioStatus = "evaluated"
	PortfolioRevisionRequested PortfolioStatus = "revision_requested"
	PortfolioApproved          PortfolioStatus = "approved"
	PortfolioRejected          PortfolioStatus = "rejected"
)

// AllPortfolioStatuses lists every status in lifecycle order.
var AllPortfolioStatuses = []PortfolioStatus{
	PortfolioDraft,
	PortfolioSubmitted,
	PortfolioUnderReview,
	PortfolioEvaluated,
	PortfolioRevisionRequested,
	PortfolioApproved,
	PortfolioRejected,
}

// Valid reports whether s is a known status.
func (s PortfolioStatus) Valid() bool {
	for _, known := range AllPortfolioStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CanBeEdited is true while the applicant may change title and documents.
func (s PortfolioStatus) CanBeEdited() bool {
	return s == PortfolioDraft || s == PortfolioRevisionRequested
}

// CanBeDeleted is true only for drafts.
func (s PortfolioStatus) CanBeDeleted() bool {
	return s == PortfolioDraft
}

// CanBeSubmitted is the status half of the submit guard; document coverage is checked separately.
func (s PortfolioStatus) CanBeSubmitted() bool {
	return s == PortfolioDraft || s == PortfolioRevisionRequested
}

// CanReceiveAssignment reports whether an evaluator may be assigned.
func (s PortfolioStatus) CanReceiveAssignment() bool {
	return s == PortfolioSubmitted || s == PortfolioUnderReview || s == PortfolioEvaluated
}

// AcceptsAdminDecision reports whether an admin may set a new status from s.
func (s PortfolioStatus) AcceptsAdminDecision() bool {
	return s == PortfolioSubmitted || s == PortfolioUnderReview || s == PortfolioEvaluated
}

// IsAdminTarget reports whether s is a status an admin may set directly.
func (s PortfolioStatus) IsAdminTarget() bool {
	switch s {
	case PortfolioUnderReview, PortfolioRevisionRequested, PortfolioApproved, PortfolioRejected:
		return true
	}
	return false
}

// Label is the human readable status used in notifications.
func (s PortfolioStatus) Label() string {
	switch s {
	case PortfolioDraft:
		return "Draft"
	case PortfolioSubmitted:
		return "Submitted"
	case PortfolioUnderReview:
		return "Under Review"
	case PortfolioEvaluated:
		return "Evaluated"
	case PortfolioRevisionRequested:
		return "Revision Requested"
	case PortfolioApproved:
		return "Approved"
	case PortfolioRejected:
		return "Rejected"
	}
	return string(s)
}

type Portfolio struct {
	PortfolioID uint            `gorm:"primaryKey;column:portfolio_id" json:"portfolio_id"`
	UserID      uint            `gorm:"column:user_id;not null;index" json:"user_id"`
	Title       string          `gorm:"column:title;size:255;not null" json:"title"`
	Status      PortfolioStatus `gorm:"column:status;size:32;not null;index" json:"status"`
	SubmittedAt *time.Time      `gorm:"column:submitted_at" json:"submitted_at"`
	AdminNotes  *string         `gorm:"column:admin_notes;type:text" json:"admin_notes"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	User        *User                 `json:"user,omitempty"`
	Documents   []PortfolioDocument   `gorm:"foreignKey:PortfolioID" json:"documents,omitempty"`
	Assignments []PortfolioAssignment `gorm:"foreignKey:PortfolioID" json:"assignments,omitempty"`
	Evaluations []Evaluation          `gorm:"foreignKey:PortfolioID" json:"evaluations,omitempty"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}

func (p Portfolio) CanBeEdited() bool    { return p.Status.CanBeEdited() }
func (p Portfolio) CanBeDeleted() bool   { return p.Status.CanBeDeleted() }
func (p Portfolio) CanBeSubmitted() bool { return p.Status.CanBeSubmitted() }

// IsOwnedBy reports whether userID is the applicant that owns the portfolio.
func (p Portfolio) IsOwnedBy(userID uint) bool {
	return p.UserID == userID
}
