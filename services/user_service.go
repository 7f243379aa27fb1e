package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/utils"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// UserInput is the admin payload for creating or editing an account.
// Password is optional on update.
type UserInput struct {
	Name     string      `json:"name" binding:"required,max=255"`
	Email    string      `json:"email" binding:"required,email,max=255"`
	Password string      `json:"password" binding:"omitempty,min=8"`
	Role     models.Role `json:"role" binding:"required,oneof=applicant evaluator admin super_admin"`
	Phone    *string     `json:"phone"`
}

// RegisterInput is the self-registration payload for applicants.
type RegisterInput struct {
	Name     string  `json:"name" binding:"required,max=255"`
	Email    string  `json:"email" binding:"required,email,max=255"`
	Password string  `json:"password" binding:"required,min=8"`
	Phone    *string `json:"phone"`
}

type UserFilter struct {
	Role   models.Role
	Search string
	utils.Pagination
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	if db == nil {
		db = config.DB
	}
	return &UserService{db: db}
}

// Authenticate checks credentials and returns the matching user.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "load user")
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Register creates an applicant account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.create(ctx, UserInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     models.RoleApplicant,
		Phone:    in.Phone,
	})
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "user_id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "load user")
	}
	return &user, nil
}

// List returns a page of users filtered by role and a name/email search.
func (s *UserService) List(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count users")
	}

	if f.PerPage <= 0 {
		f.Pagination = utils.ParsePagination("", "")
	}
	users := make([]models.User, 0)
	if err := q.Order("name ASC, user_id ASC").Limit(f.PerPage).Offset(f.Offset()).Find(&users).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list users")
	}
	return users, total, nil
}

// Create adds an account on behalf of an administrator.
func (s *UserService) Create(ctx context.Context, actor Actor, in UserInput) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if in.Role.IsAdministrative() && !actor.IsSuperAdmin() {
		return nil, forbidden("only a super admin can create administrator accounts")
	}
	if in.Password == "" {
		return nil, NewValidationError("password", "this field is required")
	}
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in UserInput) (*models.User, error) {
	if !in.Role.Valid() {
		return nil, NewValidationError("role", "role is invalid")
	}
	name := utils.SanitizeInput(in.Name)
	if name == "" {
		return nil, NewValidationError("name", "this field is required")
	}
	if len(in.Password) < 8 {
		return nil, NewValidationError("password", "password must be at least 8 characters in length")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := models.User{
		Name:     name,
		Email:    normalizeEmail(in.Email),
		Password: hash,
		Role:     in.Role,
		Phone:    utils.SanitizeOptional(in.Phone),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueEmail(tx, user.Email, 0); err != nil {
			return err
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update edits an account. The role can only change through this call.
func (s *UserService) Update(ctx context.Context, actor Actor, id uint, in UserInput) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !in.Role.Valid() {
		return nil, NewValidationError("role", "role is invalid")
	}
	name := utils.SanitizeInput(in.Name)
	if name == "" {
		return nil, NewValidationError("name", "this field is required")
	}
	if in.Password != "" && len(in.Password) < 8 {
		return nil, NewValidationError("password", "password must be at least 8 characters in length")
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "user_id = ?", id).Error; err != nil {
			return notFoundOr(err, "load user")
		}
		if (user.Role.IsAdministrative() || in.Role.IsAdministrative()) && !actor.IsSuperAdmin() {
			return forbidden("only a super admin can manage administrator accounts")
		}
		if user.Role == models.RoleEvaluator && in.Role != models.RoleEvaluator {
			var active int64
			if err := tx.Model(&models.PortfolioAssignment{}).
				Where("evaluator_id = ? AND status IN ?", id, []models.AssignmentStatus{models.AssignmentPending, models.AssignmentInProgress}).
				Count(&active).Error; err != nil {
				return err
			}
			if active > 0 {
				return NewBusinessRuleError("Cannot change the role of %s: the evaluator still has %d active assignment(s).", user.Name, active)
			}
		}

		email := normalizeEmail(in.Email)
		if err := ensureUniqueEmail(tx, email, id); err != nil {
			return err
		}
		updates := map[string]interface{}{
			"name":  name,
			"email": email,
			"role":  in.Role,
			"phone": utils.SanitizeOptional(in.Phone),
		}
		if in.Password != "" {
			hash, err := utils.HashPassword(in.Password)
			if err != nil {
				return errors.Wrap(err, "hash password")
			}
			updates["password"] = hash
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, "user_id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes an account. Nobody can delete themselves, and accounts with
// portfolios or assignments are kept.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if actor.UserID == id {
		return NewBusinessRuleError("You cannot delete your own account.")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "user_id = ?", id).Error; err != nil {
			return notFoundOr(err, "load user")
		}
		if user.Role.IsAdministrative() && !actor.IsSuperAdmin() {
			return forbidden("only a super admin can delete administrator accounts")
		}

		var portfolios, assignments, evaluations int64
		if err := tx.Model(&models.Portfolio{}).Where("user_id = ?", id).Count(&portfolios).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.PortfolioAssignment{}).
			Where("evaluator_id = ? OR assigned_by = ?", id, id).Count(&assignments).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Evaluation{}).Where("evaluator_id = ?", id).Count(&evaluations).Error; err != nil {
			return err
		}
		if portfolios > 0 || assignments > 0 || evaluations > 0 {
			return NewBusinessRuleError("Cannot delete %s: the account is still linked to %d portfolio(s), %d assignment(s) and %d evaluation(s).",
				user.Name, portfolios, assignments, evaluations)
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

func ensureUniqueEmail(tx *gorm.DB, email string, excludeID uint) error {
	var n int64
	q := tx.Model(&models.User{}).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("user_id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return NewValidationError("email", "the email has already been taken")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ChangePassword replaces the user's password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if len(next) < 8 {
		return NewValidationError("new_password", "new_password must be at least 8 characters in length")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "user_id = ?", userID).Error; err != nil {
			return notFoundOr(err, "load user")
		}
		if !utils.CheckPasswordHash(current, user.Password) {
			return NewValidationError("current_password", "the current password is incorrect")
		}
		hash, err := utils.HashPassword(next)
		if err != nil {
			return errors.Wrap(err, "hash password")
		}
		return tx.Model(&user).Update("password", hash).Error
	})
}
