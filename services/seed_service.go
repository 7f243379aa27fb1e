package services

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/utils"
)

// SeedOptions controls the first-run data written by cmd/migrate.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

type SeedResult struct {
	AdminCreated bool `json:"admin_created"`
	Categories   int  `json:"categories"`
	Criteria     int  `json:"criteria"`
}

var defaultCategories = []CategoryInput{
	{Name: "Curriculum Vitae", IsRequired: true, SortOrder: 1},
	{Name: "Transcript of Records", IsRequired: true, SortOrder: 2},
	{Name: "Certificate of Employment", IsRequired: true, SortOrder: 3},
	{Name: "Training Certificates", IsRequired: false, SortOrder: 4},
	{Name: "Awards and Recognition", IsRequired: false, SortOrder: 5},
}

var defaultCriteria = []CriteriaInput{
	{Name: "Educational Background", MaxScore: 20, SortOrder: 1},
	{Name: "Work Experience", MaxScore: 30, SortOrder: 2},
	{Name: "Professional Development", MaxScore: 20, SortOrder: 3},
	{Name: "Awards and Recognition", MaxScore: 10, SortOrder: 4},
	{Name: "Portfolio Presentation", MaxScore: 20, SortOrder: 5},
}

type SeedService struct {
	db *gorm.DB
}

func NewSeedService(db *gorm.DB) *SeedService {
	if db == nil {
		db = config.DB
	}
	return &SeedService{db: db}
}

// Run creates the super admin and the default catalog. Each part is skipped
// when its table already has rows, so Run is safe to repeat.
func (s *SeedService) Run(ctx context.Context, opts SeedOptions) (SeedResult, error) {
	var res SeedResult

	if opts.AdminPassword != "" {
		created, err := s.seedAdmin(ctx, opts)
		if err != nil {
			return res, err
		}
		res.AdminCreated = created
	} else {
		log.Println("SEED_ADMIN_PASSWORD not set, skipping super admin")
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.DocumentCategory{}).Count(&n).Error; err != nil {
		return res, errors.Wrap(err, "count document categories")
	}
	if n == 0 {
		categories := NewCategoryService(s.db)
		for _, in := range defaultCategories {
			if _, err := categories.Create(ctx, in); err != nil {
				return res, errors.Wrapf(err, "seed category %s", in.Name)
			}
			res.Categories++
		}
	}

	if err := s.db.WithContext(ctx).Model(&models.RubricCriteria{}).Count(&n).Error; err != nil {
		return res, errors.Wrap(err, "count rubric criteria")
	}
	if n == 0 {
		rubric := NewRubricService(s.db)
		for _, in := range defaultCriteria {
			if _, err := rubric.Create(ctx, in); err != nil {
				return res, errors.Wrapf(err, "seed criteria %s", in.Name)
			}
			res.Criteria++
		}
	}
	return res, nil
}

func (s *SeedService) seedAdmin(ctx context.Context, opts SeedOptions) (bool, error) {
	email := normalizeEmail(opts.AdminEmail)
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, errors.Wrap(err, "look up super admin")
	}
	if n > 0 {
		return false, nil
	}
	hash, err := utils.HashPassword(opts.AdminPassword)
	if err != nil {
		return false, errors.Wrap(err, "hash password")
	}
	admin := models.User{
		Name:     "Super Admin",
		Email:    email,
		Password: hash,
		Role:     models.RoleSuperAdmin,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return false, errors.Wrap(err, "create super admin")
	}
	return true, nil
}
