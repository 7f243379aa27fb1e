package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/utils"
)

// CategoryInput is the admin payload for creating or editing a document category.
type CategoryInput struct {
	Name        string  `json:"name" binding:"required,max=150"`
	Description *string `json:"description"`
	IsRequired  bool    `json:"is_required"`
	SortOrder   int     `json:"sort_order" binding:"min=0"`
}

type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	if db == nil {
		db = config.DB
	}
	return &CategoryService{db: db}
}

// List returns every category ordered for display.
func (s *CategoryService) List(ctx context.Context) ([]models.DocumentCategory, error) {
	items := make([]models.DocumentCategory, 0)
	err := s.db.WithContext(ctx).Order("sort_order ASC, name ASC").Find(&items).Error
	return items, notFoundOr(err, "list document categories")
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*models.DocumentCategory, error) {
	var cat models.DocumentCategory
	if err := s.db.WithContext(ctx).First(&cat, "category_id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "load document category")
	}
	return &cat, nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.DocumentCategory, error) {
	name := utils.SanitizeInput(in.Name)
	if name == "" {
		return nil, NewValidationError("name", "this field is required")
	}

	var cat models.DocumentCategory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueCategoryName(tx, name, 0); err != nil {
			return err
		}
		slug, err := uniqueCategorySlug(tx, name, 0)
		if err != nil {
			return err
		}
		cat = models.DocumentCategory{
			Name:        name,
			Slug:        slug,
			Description: utils.SanitizeOptional(in.Description),
			IsRequired:  in.IsRequired,
			SortOrder:   in.SortOrder,
		}
		return tx.Create(&cat).Error
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *CategoryService) Update(ctx context.Context, id uint, in CategoryInput) (*models.DocumentCategory, error) {
	name := utils.SanitizeInput(in.Name)
	if name == "" {
		return nil, NewValidationError("name", "this field is required")
	}

	var cat models.DocumentCategory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cat, "category_id = ?", id).Error; err != nil {
			return notFoundOr(err, "load document category")
		}
		if err := ensureUniqueCategoryName(tx, name, id); err != nil {
			return err
		}
		slug := cat.Slug
		if name != cat.Name {
			var err error
			if slug, err = uniqueCategorySlug(tx, name, id); err != nil {
				return err
			}
		}
		updates := map[string]interface{}{
			"name":        name,
			"slug":        slug,
			"description": utils.SanitizeOptional(in.Description),
			"is_required": in.IsRequired,
			"sort_order":  in.SortOrder,
		}
		if err := tx.Model(&cat).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&cat, "category_id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// Delete removes a category unless any portfolio document is filed under it.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.DocumentCategory
		if err := tx.First(&cat, "category_id = ?", id).Error; err != nil {
			return notFoundOr(err, "load document category")
		}

		var docs int64
		if err := tx.Model(&models.PortfolioDocument{}).Where("category_id = ?", id).Count(&docs).Error; err != nil {
			return err
		}
		if docs > 0 {
			return NewBusinessRuleError("Cannot delete category %q: %d document(s) are filed under it.", cat.Name, docs)
		}
		return tx.Delete(&cat).Error
	})
}

func ensureUniqueCategoryName(tx *gorm.DB, name string, excludeID uint) error {
	var n int64
	q := tx.Model(&models.DocumentCategory{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if excludeID != 0 {
		q = q.Where("category_id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return NewValidationError("name", "the name has already been taken")
	}
	return nil
}

func uniqueCategorySlug(tx *gorm.DB, name string, excludeID uint) (string, error) {
	base := utils.Slugify(name)
	if base == "" {
		base = "category"
	}
	candidate := base
	for i := 2; ; i++ {
		var n int64
		q := tx.Model(&models.DocumentCategory{}).Where("slug = ?", candidate)
		if excludeID != 0 {
			q = q.Where("category_id <> ?", excludeID)
		}
		if err := q.Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
