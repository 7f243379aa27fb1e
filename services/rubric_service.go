package services

import (
	"context"

	"gorm.io/gorm"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/utils"
)

// CriteriaInput is the admin payload for a rubric criterion. IsActive defaults to true.
type CriteriaInput struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description"`
	MaxScore    int     `json:"max_score" binding:"required,min=1"`
	SortOrder   int     `json:"sort_order" binding:"min=0"`
	IsActive    *bool   `json:"is_active"`
}

type RubricService struct {
	db *gorm.DB
}

func NewRubricService(db *gorm.DB) *RubricService {
	if db == nil {
		db = config.DB
	}
	return &RubricService{db: db}
}

// List returns criteria in display order, optionally only the active ones.
func (s *RubricService) List(ctx context.Context, activeOnly bool) ([]models.RubricCriteria, error) {
	items := make([]models.RubricCriteria, 0)
	q := s.db.WithContext(ctx).Order("sort_order ASC, criteria_id ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&items).Error
	return items, notFoundOr(err, "list rubric criteria")
}

func (s *RubricService) Get(ctx context.Context, id uint) (*models.RubricCriteria, error) {
	var rc models.RubricCriteria
	if err := s.db.WithContext(ctx).First(&rc, "criteria_id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "load rubric criteria")
	}
	return &rc, nil
}

func (s *RubricService) Create(ctx context.Context, in CriteriaInput) (*models.RubricCriteria, error) {
	if err := validateCriteria(&in); err != nil {
		return nil, err
	}
	rc := models.RubricCriteria{
		Name:        in.Name,
		Description: utils.SanitizeOptional(in.Description),
		MaxScore:    in.MaxScore,
		SortOrder:   in.SortOrder,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if err := s.db.WithContext(ctx).Create(&rc).Error; err != nil {
		return nil, notFoundOr(err, "create rubric criteria")
	}
	return &rc, nil
}

// Update edits a criterion. Existing scores are not re-clamped when MaxScore shrinks.
func (s *RubricService) Update(ctx context.Context, id uint, in CriteriaInput) (*models.RubricCriteria, error) {
	if err := validateCriteria(&in); err != nil {
		return nil, err
	}

	rc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"name":        in.Name,
		"description": utils.SanitizeOptional(in.Description),
		"max_score":   in.MaxScore,
		"sort_order":  in.SortOrder,
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if err := s.db.WithContext(ctx).Model(rc).Updates(updates).Error; err != nil {
		return nil, notFoundOr(err, "update rubric criteria")
	}
	return s.Get(ctx, id)
}

// Delete removes a criterion unless any evaluation score references it.
func (s *RubricService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rc models.RubricCriteria
		if err := tx.First(&rc, "criteria_id = ?", id).Error; err != nil {
			return notFoundOr(err, "load rubric criteria")
		}

		var scores int64
		if err := tx.Model(&models.EvaluationScore{}).Where("rubric_criteria_id = ?", id).Count(&scores).Error; err != nil {
			return err
		}
		if scores > 0 {
			return NewBusinessRuleError("Cannot delete criteria %q: it has already been used in %d score(s).", rc.Name, scores)
		}
		return tx.Delete(&rc).Error
	})
}

func validateCriteria(in *CriteriaInput) error {
	in.Name = utils.SanitizeInput(in.Name)
	if in.Name == "" {
		return NewValidationError("name", "this field is required")
	}
	if in.MaxScore < 1 {
		return NewValidationError("max_score", "max_score must be 1 or greater")
	}
	if in.SortOrder < 0 {
		return NewValidationError("sort_order", "sort_order must be 0 or greater")
	}
	return nil
}
