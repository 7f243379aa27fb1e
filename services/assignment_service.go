package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/utils"
)

// AssignInput is the admin payload for assigning an evaluator.
type AssignInput struct {
	EvaluatorID uint    `json:"evaluator_id" binding:"required"`
	DueDate     *string `json:"due_date"`
	Notes       *string `json:"notes"`
}

type AssignmentService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewAssignmentService(db *gorm.DB, notifier *NotificationService) *AssignmentService {
	if db == nil {
		db = config.DB
	}
	return &AssignmentService{db: db, notifier: notifier}
}

// Assign creates or overwrites the assignment of an evaluator to a portfolio.
// Every call resets the assignment to pending. A submitted portfolio moves to
// under_review on its first assignment.
func (s *AssignmentService) Assign(ctx context.Context, actor Actor, portfolioID uint, in AssignInput) (*models.PortfolioAssignment, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if in.EvaluatorID == 0 {
		return nil, NewValidationError("evaluator_id", "this field is required")
	}
	due, err := parseDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}
	notes := utils.SanitizeOptional(in.Notes)

	var (
		a models.PortfolioAssignment
		p models.Portfolio
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "portfolio_id = ?", portfolioID).Error; err != nil {
			return notFoundOr(err, "load portfolio")
		}

		var evaluator models.User
		if err := tx.First(&evaluator, "user_id = ?", in.EvaluatorID).Error; err != nil {
			if IsNotFound(err) {
				return NewValidationError("evaluator_id", "the selected evaluator is invalid")
			}
			return errors.Wrap(err, "load evaluator")
		}
		if evaluator.Role != models.RoleEvaluator {
			return NewValidationError("evaluator_id", "the selected user is not an evaluator")
		}

		if !p.Status.CanReceiveAssignment() {
			return NewBusinessRuleError("Evaluators cannot be assigned while the portfolio is %s.", strings.ToLower(p.Status.Label()))
		}

		now := time.Now()
		a = models.PortfolioAssignment{
			PortfolioID: portfolioID,
			EvaluatorID: in.EvaluatorID,
			AssignedBy:  actor.UserID,
			Status:      models.AssignmentPending,
			DueDate:     due,
			Notes:       notes,
			AssignedAt:  now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "portfolio_id"}, {Name: "evaluator_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"assigned_by":  actor.UserID,
				"status":       models.AssignmentPending,
				"due_date":     due,
				"notes":        notes,
				"assigned_at":  now,
				"completed_at": nil,
				"updated_at":   now,
			}),
		}).Create(&a).Error
		if err != nil {
			return errors.Wrap(err, "upsert assignment")
		}
		var saved models.PortfolioAssignment
		if err := tx.First(&saved, "portfolio_id = ? AND evaluator_id = ?", portfolioID, in.EvaluatorID).Error; err != nil {
			return errors.Wrap(err, "reload assignment")
		}
		a = saved

		if p.Status == models.PortfolioSubmitted {
			old := p.Status
			if err := tx.Model(&p).Update("status", models.PortfolioUnderReview).Error; err != nil {
				return err
			}
			p.Status = models.PortfolioUnderReview
			if err := recordStatusChange(tx, portfolioID, &old, models.PortfolioUnderReview, actor.UserID, nil); err != nil {
				return err
			}
		}
		a.Evaluator = &evaluator
		return nil
	})
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("You have been assigned to evaluate the portfolio %q.", p.Title)
	if a.DueDate != nil {
		body += " Due date: " + a.DueDate.Format("Jan 2, 2006") + "."
	}
	s.notifier.Notify(ctx, []uint{a.EvaluatorID}, Message{
		Title:       "New portfolio assignment",
		Body:        body,
		Type:        models.NotificationInfo,
		PortfolioID: &p.PortfolioID,
	})
	return &a, nil
}

// Remove deletes an assignment reached through its portfolio. Any evaluation
// keeps its scores but loses the link to the assignment.
func (s *AssignmentService) Remove(ctx context.Context, actor Actor, portfolioID, assignmentID uint) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.PortfolioAssignment
		if err := tx.First(&a, "assignment_id = ? AND portfolio_id = ?", assignmentID, portfolioID).Error; err != nil {
			return notFoundOr(err, "load assignment")
		}
		if err := tx.Model(&models.Evaluation{}).Where("assignment_id = ?", a.AssignmentID).Update("assignment_id", nil).Error; err != nil {
			return errors.Wrap(err, "unlink evaluation")
		}
		return tx.Delete(&a).Error
	})
}

// ListForPortfolio returns the portfolio's assignments with their evaluators.
func (s *AssignmentService) ListForPortfolio(ctx context.Context, portfolioID uint) ([]models.PortfolioAssignment, error) {
	items := make([]models.PortfolioAssignment, 0)
	err := s.db.WithContext(ctx).Preload("Evaluator").
		Where("portfolio_id = ?", portfolioID).
		Order("assigned_at ASC, assignment_id ASC").
		Find(&items).Error
	return items, errors.Wrap(err, "list assignments")
}

// ListForEvaluator returns the evaluator's assignments, newest first.
func (s *AssignmentService) ListForEvaluator(ctx context.Context, actor Actor, status models.AssignmentStatus) ([]models.PortfolioAssignment, error) {
	if !actor.IsEvaluator() {
		return nil, ErrForbidden
	}
	if status != "" && !status.Valid() {
		return nil, NewValidationError("status", "status must be one of [pending in_progress completed]")
	}

	q := s.db.WithContext(ctx).
		Preload("Portfolio.User").
		Preload("Evaluation").
		Where("evaluator_id = ?", actor.UserID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	items := make([]models.PortfolioAssignment, 0)
	if err := q.Order("assigned_at DESC, assignment_id DESC").Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "list assignments")
	}
	return items, nil
}

// loadAssignmentFor fetches an assignment and checks it belongs to the evaluator.
func loadAssignmentFor(tx *gorm.DB, actor Actor, assignmentID uint, lock bool) (models.PortfolioAssignment, error) {
	var a models.PortfolioAssignment
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&a, "assignment_id = ?", assignmentID).Error; err != nil {
		return a, notFoundOr(err, "load assignment")
	}
	if !actor.IsEvaluator() || a.EvaluatorID != actor.UserID {
		return a, ErrForbidden
	}
	return a, nil
}

func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			y, m, d := time.Now().Date()
			today := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
			if t.Before(today) {
				return nil, NewValidationError("due_date", "the due date must be today or later")
			}
			return &t, nil
		}
	}
	return nil, NewValidationError("due_date", "the due date must be a valid date (YYYY-MM-DD)")
}
