package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/storage"
	"eteeap-portfolio-api/utils"
)

// PortfolioInput is the applicant payload for creating or renaming a portfolio.
type PortfolioInput struct {
	Title string `json:"title" binding:"required,max=255"`
}

// StatusInput is the admin payload for a status decision.
type StatusInput struct {
	Status     models.PortfolioStatus `json:"status" binding:"required"`
	AdminNotes *string                `json:"admin_notes"`
}

// AdminPortfolioFilter narrows the admin portfolio list. Drafts are hidden
// unless Status asks for them.
type AdminPortfolioFilter struct {
	Status models.PortfolioStatus
	Search string
	utils.Pagination
}

// Completion is the required-category coverage of a portfolio.
type Completion struct {
	RequiredTotal    int `json:"required_total"`
	RequiredUploaded int `json:"required_uploaded"`
	Percentage       int `json:"percentage"`
}

// Complete reports whether every required category has a document.
func (c Completion) Complete() bool {
	return c.RequiredUploaded >= c.RequiredTotal
}

func newCompletion(total, uploaded int) Completion {
	c := Completion{RequiredTotal: total, RequiredUploaded: uploaded, Percentage: 100}
	if total > 0 {
		c.Percentage = int(math.Round(float64(uploaded) * 100 / float64(total)))
	}
	return c
}

// CategoryProgress groups a portfolio's documents under one category.
type CategoryProgress struct {
	Category  models.DocumentCategory    `json:"category"`
	Documents []models.PortfolioDocument `json:"documents"`
	Satisfied bool                       `json:"satisfied"`
}

// PortfolioSummary is one row in the applicant's portfolio list.
type PortfolioSummary struct {
	models.Portfolio
	DocumentCount int64      `json:"document_count"`
	Completion    Completion `json:"completion"`
}

// PortfolioDetail is a portfolio with its category checklist.
type PortfolioDetail struct {
	Portfolio  *models.Portfolio               `json:"portfolio"`
	Completion Completion                      `json:"completion"`
	Checklist  []CategoryProgress              `json:"checklist"`
	History    []models.PortfolioStatusHistory `json:"history,omitempty"`
	CanEdit    bool                            `json:"can_edit"`
	CanDelete  bool                            `json:"can_delete"`
	CanSubmit  bool                            `json:"can_submit"`
}

type PortfolioService struct {
	db       *gorm.DB
	notifier *NotificationService
	store    storage.FileStore
}

func NewPortfolioService(db *gorm.DB, notifier *NotificationService, store storage.FileStore) *PortfolioService {
	if db == nil {
		db = config.DB
	}
	return &PortfolioService{db: db, notifier: notifier, store: store}
}

// Create starts a new draft portfolio for the applicant.
func (s *PortfolioService) Create(ctx context.Context, actor Actor, in PortfolioInput) (*models.Portfolio, error) {
	if !actor.IsApplicant() {
		return nil, ErrForbidden
	}
	title := utils.SanitizeInput(in.Title)
	if title == "" {
		return nil, NewValidationError("title", "this field is required")
	}

	p := models.Portfolio{UserID: actor.UserID, Title: title, Status: models.PortfolioDraft}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return recordStatusChange(tx, p.PortfolioID, nil, models.PortfolioDraft, actor.UserID, nil)
	})
	if err != nil {
		return nil, errors.Wrap(err, "create portfolio")
	}
	return &p, nil
}

// ListForApplicant returns the applicant's portfolios with completion figures.
func (s *PortfolioService) ListForApplicant(ctx context.Context, actor Actor) ([]PortfolioSummary, error) {
	db := s.db.WithContext(ctx)

	var portfolios []models.Portfolio
	if err := db.Where("user_id = ?", actor.UserID).Order("created_at DESC, portfolio_id DESC").Find(&portfolios).Error; err != nil {
		return nil, errors.Wrap(err, "list portfolios")
	}
	out := make([]PortfolioSummary, 0, len(portfolios))
	if len(portfolios) == 0 {
		return out, nil
	}

	ids := make([]uint, len(portfolios))
	for i, p := range portfolios {
		ids[i] = p.PortfolioID
	}

	required, err := requiredCategoryIDs(db)
	if err != nil {
		return nil, err
	}

	type countRow struct {
		PortfolioID uint
		N           int64
	}
	var docCounts []countRow
	if err := db.Model(&models.PortfolioDocument{}).
		Select("portfolio_id, COUNT(*) AS n").
		Where("portfolio_id IN ?", ids).
		Group("portfolio_id").
		Scan(&docCounts).Error; err != nil {
		return nil, errors.Wrap(err, "count documents")
	}
	docsBy := make(map[uint]int64, len(docCounts))
	for _, r := range docCounts {
		docsBy[r.PortfolioID] = r.N
	}

	coveredBy := make(map[uint]int64)
	if len(required) > 0 {
		var covered []countRow
		if err := db.Model(&models.PortfolioDocument{}).
			Select("portfolio_id, COUNT(DISTINCT category_id) AS n").
			Where("portfolio_id IN ? AND category_id IN ?", ids, required).
			Group("portfolio_id").
			Scan(&covered).Error; err != nil {
			return nil, errors.Wrap(err, "count covered categories")
		}
		for _, r := range covered {
			coveredBy[r.PortfolioID] = r.N
		}
	}

	for _, p := range portfolios {
		out = append(out, PortfolioSummary{
			Portfolio:     p,
			DocumentCount: docsBy[p.PortfolioID],
			Completion:    newCompletion(len(required), int(coveredBy[p.PortfolioID])),
		})
	}
	return out, nil
}

// Get returns a portfolio with its checklist for anyone allowed to view it:
// the owning applicant, administrators, and evaluators assigned to it.
func (s *PortfolioService) Get(ctx context.Context, actor Actor, id uint) (*PortfolioDetail, error) {
	db := s.db.WithContext(ctx)

	var p models.Portfolio
	if err := db.Preload("User").First(&p, "portfolio_id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "load portfolio")
	}
	if err := authorizeView(db, actor, p); err != nil {
		return nil, err
	}
	return portfolioDetail(db, &p, actor.IsAdmin())
}

func portfolioDetail(db *gorm.DB, p *models.Portfolio, withHistory bool) (*PortfolioDetail, error) {
	var docs []models.PortfolioDocument
	if err := db.Where("portfolio_id = ?", p.PortfolioID).Order("created_at ASC, document_id ASC").Find(&docs).Error; err != nil {
		return nil, errors.Wrap(err, "load documents")
	}
	var cats []models.DocumentCategory
	if err := db.Order("sort_order ASC, name ASC").Find(&cats).Error; err != nil {
		return nil, errors.Wrap(err, "load categories")
	}

	byCat := make(map[uint][]models.PortfolioDocument)
	for _, d := range docs {
		byCat[d.CategoryID] = append(byCat[d.CategoryID], d)
	}

	checklist := make([]CategoryProgress, 0, len(cats))
	required, uploaded := 0, 0
	for _, c := range cats {
		items := byCat[c.CategoryID]
		if items == nil {
			items = []models.PortfolioDocument{}
		}
		if c.IsRequired {
			required++
			if len(items) > 0 {
				uploaded++
			}
		}
		checklist = append(checklist, CategoryProgress{Category: c, Documents: items, Satisfied: len(items) > 0})
	}

	for i := range docs {
		cat := findCategory(cats, docs[i].CategoryID)
		docs[i].Category = cat
	}
	p.Documents = docs

	completion := newCompletion(required, uploaded)
	d := &PortfolioDetail{
		Portfolio:  p,
		Completion: completion,
		Checklist:  checklist,
		CanEdit:    p.CanBeEdited(),
		CanDelete:  p.CanBeDeleted(),
		CanSubmit:  p.CanBeSubmitted() && completion.Complete(),
	}
	if withHistory {
		if err := db.Where("portfolio_id = ?", p.PortfolioID).Order("created_at ASC, history_id ASC").Find(&d.History).Error; err != nil {
			return nil, errors.Wrap(err, "load status history")
		}
	}
	return d, nil
}

// Update renames a portfolio while it is editable.
func (s *PortfolioService) Update(ctx context.Context, actor Actor, id uint, in PortfolioInput) (*models.Portfolio, error) {
	title := utils.SanitizeInput(in.Title)
	if title == "" {
		return nil, NewValidationError("title", "this field is required")
	}

	var p models.Portfolio
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = loadOwnedForUpdate(tx, actor, id); err != nil {
			return err
		}
		if !p.CanBeEdited() {
			return forbidden("This portfolio can no longer be edited.")
		}
		if err := tx.Model(&p).Update("title", title).Error; err != nil {
			return err
		}
		p.Title = title
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a draft portfolio and its documents.
func (s *PortfolioService) Delete(ctx context.Context, actor Actor, id uint) error {
	var paths []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadOwnedForUpdate(tx, actor, id)
		if err != nil {
			return err
		}
		if !p.CanBeDeleted() {
			return forbidden("Only draft portfolios can be deleted.")
		}
		if err := tx.Model(&models.PortfolioDocument{}).Where("portfolio_id = ?", id).Pluck("stored_path", &paths).Error; err != nil {
			return err
		}
		if err := tx.Where("portfolio_id = ?", id).Delete(&models.PortfolioDocument{}).Error; err != nil {
			return err
		}
		if err := tx.Where("portfolio_id = ?", id).Delete(&models.PortfolioStatusHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&p).Error
	})
	if err != nil {
		return err
	}

	for _, path := range paths {
		removeStoredFile(s.store, path)
	}
	return nil
}

// Submit moves a draft or revision-requested portfolio to submitted once every
// required category has at least one document.
func (s *PortfolioService) Submit(ctx context.Context, actor Actor, id uint) (*models.Portfolio, error) {
	var (
		p         models.Portfolio
		resubmit  bool
		submitted time.Time
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = loadOwnedForUpdate(tx, actor, id); err != nil {
			return err
		}
		if !p.CanBeSubmitted() {
			return NewBusinessRuleError("This portfolio cannot be submitted while it is %s.", strings.ToLower(p.Status.Label()))
		}

		completion, err := computeCompletion(tx, id)
		if err != nil {
			return err
		}
		if !completion.Complete() {
			return NewValidationError("documents", fmt.Sprintf(
				"Please upload all required documents before submitting (%d of %d required categories, %d%% complete).",
				completion.RequiredUploaded, completion.RequiredTotal, completion.Percentage))
		}

		old := p.Status
		resubmit = old == models.PortfolioRevisionRequested
		submitted = time.Now()
		if err := tx.Model(&p).Updates(map[string]interface{}{
			"status":       models.PortfolioSubmitted,
			"submitted_at": submitted,
		}).Error; err != nil {
			return err
		}
		p.Status = models.PortfolioSubmitted
		p.SubmittedAt = &submitted
		return recordStatusChange(tx, id, &old, models.PortfolioSubmitted, actor.UserID, nil)
	})
	if err != nil {
		return nil, err
	}

	title := "New portfolio submitted"
	if resubmit {
		title = "Portfolio resubmitted"
	}
	s.notifier.NotifyAdmins(ctx, Message{
		Title:       title,
		Body:        fmt.Sprintf("Portfolio %q was submitted for evaluation on %s.", p.Title, submitted.Format("Jan 2, 2006 15:04")),
		Type:        models.NotificationInfo,
		PortfolioID: &p.PortfolioID,
	})
	return &p, nil
}

// AdminList returns a page of portfolios for administrators.
func (s *PortfolioService) AdminList(ctx context.Context, f AdminPortfolioFilter) ([]models.Portfolio, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Portfolio{}).
		Joins("JOIN users ON users.user_id = portfolios.user_id")
	if f.Status != "" {
		q = q.Where("portfolios.status = ?", f.Status)
	} else {
		q = q.Where("portfolios.status <> ?", models.PortfolioDraft)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + search + "%"
		q = q.Where("portfolios.title LIKE ? OR users.name LIKE ? OR users.email LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count portfolios")
	}

	if f.PerPage <= 0 {
		f.Pagination = utils.ParsePagination("", "")
	}
	items := make([]models.Portfolio, 0)
	if err := q.Preload("User").Preload("Assignments").
		Order("portfolios.submitted_at DESC, portfolios.portfolio_id DESC").
		Limit(f.PerPage).Offset(f.Offset()).
		Find(&items).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list portfolios")
	}
	return items, total, nil
}

// AdminGet returns the full portfolio including assignments and evaluations.
func (s *PortfolioService) AdminGet(ctx context.Context, actor Actor, id uint) (*PortfolioDetail, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	db := s.db.WithContext(ctx)

	var p models.Portfolio
	err := db.Preload("User").
		Preload("Assignments", func(q *gorm.DB) *gorm.DB { return q.Order("assigned_at ASC") }).
		Preload("Assignments.Evaluator").
		Preload("Evaluations.Evaluator").
		Preload("Evaluations.Scores.Criteria").
		First(&p, "portfolio_id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "load portfolio")
	}
	return portfolioDetail(db, &p, true)
}

// AdminUpdateStatus records an administrator's decision. The notes are written
// in the same transaction as the status.
func (s *PortfolioService) AdminUpdateStatus(ctx context.Context, actor Actor, id uint, in StatusInput) (*models.Portfolio, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !in.Status.IsAdminTarget() {
		return nil, NewValidationError("status", "status must be one of [under_review revision_requested approved rejected]")
	}
	notes := utils.SanitizeOptional(in.AdminNotes)

	var p models.Portfolio
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "portfolio_id = ?", id).Error; err != nil {
			return notFoundOr(err, "load portfolio")
		}
		if !p.Status.AcceptsAdminDecision() {
			return NewBusinessRuleError("The status of a portfolio that is %s cannot be changed.", strings.ToLower(p.Status.Label()))
		}

		old := p.Status
		updates := map[string]interface{}{"status": in.Status}
		if in.AdminNotes != nil {
			updates["admin_notes"] = notes
		}
		if err := tx.Model(&p).Updates(updates).Error; err != nil {
			return err
		}
		if err := recordStatusChange(tx, id, &old, in.Status, actor.UserID, notes); err != nil {
			return err
		}
		return tx.First(&p, "portfolio_id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, []uint{p.UserID}, statusChangeMessage(p, notes))
	return &p, nil
}

func statusChangeMessage(p models.Portfolio, notes *string) Message {
	msg := Message{
		Title:       "Portfolio status updated",
		Body:        fmt.Sprintf("Your portfolio %q is now %s.", p.Title, p.Status.Label()),
		Type:        models.NotificationInfo,
		PortfolioID: &p.PortfolioID,
	}
	switch p.Status {
	case models.PortfolioApproved:
		msg.Title = "Portfolio approved"
		msg.Type = models.NotificationSuccess
	case models.PortfolioRejected:
		msg.Title = "Portfolio rejected"
		msg.Type = models.NotificationError
	case models.PortfolioRevisionRequested:
		msg.Title = "Revision requested"
		msg.Body = fmt.Sprintf("Your portfolio %q needs revision. Please update your documents and resubmit.", p.Title)
		msg.Type = models.NotificationWarning
	}
	if notes != nil {
		msg.Body += " Notes: " + *notes
	}
	return msg
}

// computeCompletion counts required categories covered by at least one document.
func computeCompletion(tx *gorm.DB, portfolioID uint) (Completion, error) {
	required, err := requiredCategoryIDs(tx)
	if err != nil {
		return Completion{}, err
	}
	if len(required) == 0 {
		return newCompletion(0, 0), nil
	}

	var covered int64
	if err := tx.Model(&models.PortfolioDocument{}).
		Where("portfolio_id = ? AND category_id IN ?", portfolioID, required).
		Distinct("category_id").
		Count(&covered).Error; err != nil {
		return Completion{}, errors.Wrap(err, "count covered categories")
	}
	return newCompletion(len(required), int(covered)), nil
}

// Completion returns the required-category coverage of a portfolio.
func (s *PortfolioService) Completion(ctx context.Context, portfolioID uint) (Completion, error) {
	return computeCompletion(s.db.WithContext(ctx), portfolioID)
}

func requiredCategoryIDs(db *gorm.DB) ([]uint, error) {
	var ids []uint
	if err := db.Model(&models.DocumentCategory{}).Where("is_required = ?", true).Pluck("category_id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "load required categories")
	}
	return ids, nil
}

// loadOwnedForUpdate locks the portfolio row and checks the applicant owns it.
func loadOwnedForUpdate(tx *gorm.DB, actor Actor, id uint) (models.Portfolio, error) {
	var p models.Portfolio
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "portfolio_id = ?", id).Error; err != nil {
		return p, notFoundOr(err, "load portfolio")
	}
	if !actor.IsApplicant() || !p.IsOwnedBy(actor.UserID) {
		return p, ErrForbidden
	}
	return p, nil
}

// authorizeView lets owners, administrators and assigned evaluators see a portfolio.
func authorizeView(db *gorm.DB, actor Actor, p models.Portfolio) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsApplicant():
		if p.IsOwnedBy(actor.UserID) {
			return nil
		}
	case actor.IsEvaluator():
		var n int64
		if err := db.Model(&models.PortfolioAssignment{}).
			Where("portfolio_id = ? AND evaluator_id = ?", p.PortfolioID, actor.UserID).
			Count(&n).Error; err != nil {
			return errors.Wrap(err, "check assignment")
		}
		if n > 0 {
			return nil
		}
	}
	return ErrForbidden
}

func recordStatusChange(tx *gorm.DB, portfolioID uint, old *models.PortfolioStatus, next models.PortfolioStatus, by uint, notes *string) error {
	return tx.Create(&models.PortfolioStatusHistory{
		PortfolioID: portfolioID,
		OldStatus:   old,
		NewStatus:   next,
		ChangedBy:   by,
		Notes:       notes,
	}).Error
}

func findCategory(cats []models.DocumentCategory, id uint) *models.DocumentCategory {
	for i := range cats {
		if cats[i].CategoryID == id {
			c := cats[i]
			return &c
		}
	}
	return nil
}

func removeStoredFile(store storage.FileStore, path string) {
	if store == nil || path == "" {
		return
	}
	if err := store.Remove(path); err != nil {
		log.Printf("Warning: failed to remove stored file %s: %v", path, err)
	}
}
