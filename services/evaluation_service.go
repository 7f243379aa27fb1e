package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/utils"
)

// ScoreInput is one criterion score in an evaluation payload.
type ScoreInput struct {
	CriteriaID uint    `json:"criteria_id" binding:"required"`
	Score      int     `json:"score" binding:"min=0"`
	Comments   *string `json:"comments"`
}

// EvaluationInput is the evaluator payload for both draft saves and submission.
type EvaluationInput struct {
	Scores          []ScoreInput           `json:"scores" binding:"omitempty,dive"`
	OverallComments *string                `json:"overall_comments"`
	Recommendation  *models.Recommendation `json:"recommendation"`
}

// EvaluationWorkspace is everything an evaluator needs to work an assignment.
type EvaluationWorkspace struct {
	Assignment *models.PortfolioAssignment `json:"assignment"`
	Portfolio  *PortfolioDetail            `json:"portfolio"`
	Criteria   []models.RubricCriteria     `json:"criteria"`
	Evaluation *models.Evaluation          `json:"evaluation"`
	Percentage float64                     `json:"percentage"`
	CanEdit    bool                        `json:"can_edit"`
}

type EvaluationService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewEvaluationService(db *gorm.DB, notifier *NotificationService) *EvaluationService {
	if db == nil {
		db = config.DB
	}
	return &EvaluationService{db: db, notifier: notifier}
}

// Workspace loads an assignment with its portfolio, the active rubric and the
// evaluator's evaluation if one exists.
func (s *EvaluationService) Workspace(ctx context.Context, actor Actor, assignmentID uint) (*EvaluationWorkspace, error) {
	db := s.db.WithContext(ctx)

	a, err := loadAssignmentFor(db, actor, assignmentID, false)
	if err != nil {
		return nil, err
	}

	var p models.Portfolio
	if err := db.Preload("User").First(&p, "portfolio_id = ?", a.PortfolioID).Error; err != nil {
		return nil, notFoundOr(err, "load portfolio")
	}
	detail, err := portfolioDetail(db, &p, false)
	if err != nil {
		return nil, err
	}

	criteria := make([]models.RubricCriteria, 0)
	if err := db.Where("is_active = ?", true).Order("sort_order ASC, criteria_id ASC").Find(&criteria).Error; err != nil {
		return nil, errors.Wrap(err, "load rubric")
	}

	ws := &EvaluationWorkspace{Assignment: &a, Portfolio: detail, Criteria: criteria, CanEdit: true}

	var ev models.Evaluation
	err = db.Preload("Scores.Criteria").
		First(&ev, "portfolio_id = ? AND evaluator_id = ?", a.PortfolioID, a.EvaluatorID).Error
	switch {
	case err == nil:
		ws.Evaluation = &ev
		ws.Percentage = ev.Percentage()
		ws.CanEdit = !ev.IsSubmitted()
	case !IsNotFound(err):
		return nil, errors.Wrap(err, "load evaluation")
	}
	return ws, nil
}

// SaveDraft records scores without submitting. A pending assignment moves to
// in_progress.
func (s *EvaluationService) SaveDraft(ctx context.Context, actor Actor, assignmentID uint, in EvaluationInput) (*models.Evaluation, error) {
	return s.save(ctx, actor, assignmentID, in, false)
}

// Submit records scores and finalizes the evaluation. The assignment is
// completed and an under_review portfolio becomes evaluated.
func (s *EvaluationService) Submit(ctx context.Context, actor Actor, assignmentID uint, in EvaluationInput) (*models.Evaluation, error) {
	return s.save(ctx, actor, assignmentID, in, true)
}

func (s *EvaluationService) save(ctx context.Context, actor Actor, assignmentID uint, in EvaluationInput, submit bool) (*models.Evaluation, error) {
	comments := utils.SanitizeOptional(in.OverallComments)
	if err := validateEvaluationInput(in, comments, submit); err != nil {
		return nil, err
	}
	scores := dedupeScores(in.Scores)

	var (
		ev models.Evaluation
		p  models.Portfolio
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Portfolio row first, then assignment, the same order Assign takes.
		peek, err := loadAssignmentFor(tx, actor, assignmentID, false)
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "portfolio_id = ?", peek.PortfolioID).Error; err != nil {
			return notFoundOr(err, "load portfolio")
		}
		a, err := loadAssignmentFor(tx, actor, assignmentID, true)
		if err != nil {
			return err
		}
		if a.PortfolioID != p.PortfolioID {
			return ErrNotFound
		}

		criteria, err := loadScoredCriteria(tx, scores)
		if err != nil {
			return err
		}

		ev = models.Evaluation{
			PortfolioID:  a.PortfolioID,
			EvaluatorID:  a.EvaluatorID,
			AssignmentID: &a.AssignmentID,
			Status:       models.EvaluationDraft,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ev).Error; err != nil {
			return errors.Wrap(err, "create evaluation")
		}
		var current models.Evaluation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&current, "portfolio_id = ? AND evaluator_id = ?", a.PortfolioID, a.EvaluatorID).Error; err != nil {
			return errors.Wrap(err, "load evaluation")
		}
		ev = current
		if ev.IsSubmitted() {
			return NewBusinessRuleError("This evaluation has already been submitted and can no longer be changed.")
		}

		now := time.Now()
		for _, sc := range scores {
			row := models.EvaluationScore{
				EvaluationID:     ev.EvaluationID,
				RubricCriteriaID: sc.CriteriaID,
				Score:            criteria[sc.CriteriaID].Clamp(sc.Score),
				Comments:         utils.SanitizeOptional(sc.Comments),
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "evaluation_id"}, {Name: "rubric_criteria_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"score":      row.Score,
					"comments":   row.Comments,
					"updated_at": now,
				}),
			}).Create(&row).Error
			if err != nil {
				return errors.Wrap(err, "upsert score")
			}
		}

		total, max, err := recomputeTotals(tx, ev.EvaluationID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"assignment_id":      a.AssignmentID,
			"total_score":        total,
			"max_possible_score": max,
		}
		if comments != nil || submit {
			updates["overall_comments"] = comments
		}
		if in.Recommendation != nil {
			updates["recommendation"] = *in.Recommendation
		}
		if submit {
			updates["status"] = models.EvaluationSubmitted
			updates["submitted_at"] = now
		}
		if err := tx.Model(&ev).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "update evaluation")
		}

		switch {
		case submit:
			if err := tx.Model(&a).Updates(map[string]interface{}{
				"status":       models.AssignmentCompleted,
				"completed_at": now,
			}).Error; err != nil {
				return errors.Wrap(err, "complete assignment")
			}
			if p.Status == models.PortfolioUnderReview {
				old := p.Status
				if err := tx.Model(&p).Update("status", models.PortfolioEvaluated).Error; err != nil {
					return err
				}
				p.Status = models.PortfolioEvaluated
				if err := recordStatusChange(tx, p.PortfolioID, &old, models.PortfolioEvaluated, actor.UserID, nil); err != nil {
					return err
				}
			}
		case a.Status == models.AssignmentPending:
			if err := tx.Model(&a).Update("status", models.AssignmentInProgress).Error; err != nil {
				return errors.Wrap(err, "start assignment")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("Scores.Criteria").First(&ev, "evaluation_id = ?", ev.EvaluationID).Error; err != nil {
		return nil, errors.Wrap(err, "reload evaluation")
	}

	if submit {
		s.notifySubmitted(ctx, p, ev)
	}
	return &ev, nil
}

func (s *EvaluationService) notifySubmitted(ctx context.Context, p models.Portfolio, ev models.Evaluation) {
	s.notifier.Notify(ctx, []uint{p.UserID}, Message{
		Title:       "Portfolio evaluated",
		Body:        fmt.Sprintf("An evaluator has completed the review of your portfolio %q.", p.Title),
		Type:        models.NotificationSuccess,
		PortfolioID: &p.PortfolioID,
	})

	rec := ""
	if ev.Recommendation != nil {
		rec = string(*ev.Recommendation)
	}
	s.notifier.NotifyAdmins(ctx, Message{
		Title: "Evaluation submitted",
		Body: fmt.Sprintf("An evaluation for portfolio %q was submitted with a score of %.2f / %.2f (%.1f%%), recommendation: %s.",
			p.Title, ev.TotalScore, ev.MaxPossibleScore, ev.Percentage(), rec),
		Type:        models.NotificationInfo,
		PortfolioID: &p.PortfolioID,
	})
}

func validateEvaluationInput(in EvaluationInput, comments *string, submit bool) error {
	fields := make(map[string]string)
	for i, sc := range in.Scores {
		if sc.CriteriaID == 0 {
			fields[fmt.Sprintf("scores.%d.criteria_id", i)] = "this field is required"
		}
		if sc.Score < 0 {
			fields[fmt.Sprintf("scores.%d.score", i)] = "score must be 0 or greater"
		}
	}
	if in.Recommendation != nil && !in.Recommendation.Valid() {
		fields["recommendation"] = "recommendation must be one of [approve revise reject]"
	}
	if submit {
		if comments == nil {
			fields["overall_comments"] = "this field is required"
		}
		if in.Recommendation == nil {
			fields["recommendation"] = "this field is required"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// dedupeScores keeps the last entry per criterion, in first-seen order.
func dedupeScores(in []ScoreInput) []ScoreInput {
	index := make(map[uint]int, len(in))
	out := make([]ScoreInput, 0, len(in))
	for _, sc := range in {
		if i, ok := index[sc.CriteriaID]; ok {
			out[i] = sc
			continue
		}
		index[sc.CriteriaID] = len(out)
		out = append(out, sc)
	}
	return out
}

func loadScoredCriteria(tx *gorm.DB, scores []ScoreInput) (map[uint]models.RubricCriteria, error) {
	ids := make([]uint, 0, len(scores))
	for _, sc := range scores {
		ids = append(ids, sc.CriteriaID)
	}
	byID := make(map[uint]models.RubricCriteria, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	var rows []models.RubricCriteria
	if err := tx.Where("criteria_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "load rubric criteria")
	}
	for _, c := range rows {
		byID[c.CriteriaID] = c
	}

	var unknown []string
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			unknown = append(unknown, fmt.Sprint(id))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, NewValidationError("scores", "unknown rubric criteria: "+strings.Join(unknown, ", "))
	}
	return byID, nil
}

// recomputeTotals sums the recorded scores and the max_score of every scored criterion.
func recomputeTotals(tx *gorm.DB, evaluationID uint) (float64, float64, error) {
	var total, max float64
	if err := tx.Model(&models.EvaluationScore{}).
		Select("COALESCE(SUM(score), 0)").
		Where("evaluation_id = ?", evaluationID).
		Scan(&total).Error; err != nil {
		return 0, 0, errors.Wrap(err, "sum scores")
	}
	if err := tx.Model(&models.EvaluationScore{}).
		Select("COALESCE(SUM(rubric_criteria.max_score), 0)").
		Joins("JOIN rubric_criteria ON rubric_criteria.criteria_id = evaluation_scores.rubric_criteria_id").
		Where("evaluation_scores.evaluation_id = ?", evaluationID).
		Scan(&max).Error; err != nil {
		return 0, 0, errors.Wrap(err, "sum max scores")
	}
	return total, max, nil
}
