package models

import (
	"math"
	"time"
)

type EvaluationStatus string

const (
	EvaluationDraft     EvaluationStatus = "draft"
	EvaluationSubmitted EvaluationStatus = "submitted"
)

type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendRevise  Recommendation = "revise"
	RecommendReject  Recommendation = "reject"
)

// AllRecommendations lists the recommendation values in display order.
var AllRecommendations = []Recommendation{RecommendApprove, RecommendRevise, RecommendReject}

func (r Recommendation) Valid() bool {
	return r == RecommendApprove || r == RecommendRevise || r == RecommendReject
}

// Evaluation is one evaluator's assessment of one portfolio. TotalScore and
// MaxPossibleScore are derived from Scores on every write.
type Evaluation struct {
	EvaluationID     uint             `gorm:"primaryKey;column:evaluation_id" json:"evaluation_id"`
	PortfolioID      uint             `gorm:"column:portfolio_id;not null;uniqueIndex:idx_evaluation_portfolio_evaluator" json:"portfolio_id"`
	EvaluatorID      uint             `gorm:"column:evaluator_id;not null;uniqueIndex:idx_evaluation_portfolio_evaluator" json:"evaluator_id"`
	AssignmentID     *uint            `gorm:"column:assignment_id;index" json:"assignment_id"`
	Status           EvaluationStatus `gorm:"column:status;size:32;not null;index" json:"status"`
	OverallComments  *string          `gorm:"column:overall_comments;type:text" json:"overall_comments"`
	Recommendation   *Recommendation  `gorm:"column:recommendation;size:32" json:"recommendation"`
	TotalScore       float64          `gorm:"column:total_score;type:decimal(8,2);not null" json:"total_score"`
	MaxPossibleScore float64          `gorm:"column:max_possible_score;type:decimal(8,2);not null" json:"max_possible_score"`
	SubmittedAt      *time.Time       `gorm:"column:submitted_at" json:"submitted_at"`
	CreatedAt        time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	Evaluator *User             `gorm:"foreignKey:EvaluatorID;references:UserID" json:"evaluator,omitempty"`
	Scores    []EvaluationScore `gorm:"foreignKey:EvaluationID" json:"scores,omitempty"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

// Percentage returns TotalScore as a share of MaxPossibleScore.
func (e Evaluation) Percentage() float64 {
	return ScorePercentage(e.TotalScore, e.MaxPossibleScore)
}

func (e Evaluation) IsSubmitted() bool {
	return e.Status == EvaluationSubmitted
}

// ScorePercentage is round(total/max*100, 1), or 0 when max is not positive.
func ScorePercentage(total, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return math.Round(total/max*1000) / 10
}

// EvaluationScore is the score for one criterion within an evaluation.
type EvaluationScore struct {
	ScoreID          uint      `gorm:"primaryKey;column:score_id" json:"score_id"`
	EvaluationID     uint      `gorm:"column:evaluation_id;not null;uniqueIndex:idx_score_evaluation_criteria" json:"evaluation_id"`
	RubricCriteriaID uint      `gorm:"column:rubric_criteria_id;not null;uniqueIndex:idx_score_evaluation_criteria;index" json:"rubric_criteria_id"`
	Score            int       `gorm:"column:score;not null" json:"score"`
	Comments         *string   `gorm:"column:comments;type:text" json:"comments"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`

	Criteria *RubricCriteria `gorm:"foreignKey:RubricCriteriaID;references:CriteriaID" json:"criteria,omitempty"`
}

func (EvaluationScore) TableName() string {
	return "evaluation_scores"
}
