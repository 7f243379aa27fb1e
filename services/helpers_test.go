package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/storage"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared&_foreign_keys=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

type delivery struct {
	UserID uint
	Title  string
}

// recordingChannel captures notifications handed to channels.
type recordingChannel struct {
	mu        sync.Mutex
	delivered []delivery
	err       error
}

func (c *recordingChannel) Name() string { return "recording" }

func (c *recordingChannel) Deliver(_ context.Context, recipient models.User, n models.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivered = append(c.delivered, delivery{UserID: recipient.UserID, Title: n.Title})
	return c.err
}

func (c *recordingChannel) recipients(title string) []uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []uint
	for _, d := range c.delivered {
		if d.Title == title {
			ids = append(ids, d.UserID)
		}
	}
	return ids
}

func seedUser(t *testing.T, db *gorm.DB, role models.Role, email string) models.User {
	t.Helper()
	u := models.User{Name: strings.Split(email, "@")[0], Email: email, Password: "x", Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedCategory(t *testing.T, db *gorm.DB, name string, required bool) models.DocumentCategory {
	t.Helper()
	c := models.DocumentCategory{Name: name, Slug: strings.ToLower(strings.ReplaceAll(name, " ", "-")), IsRequired: required}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedCriteria(t *testing.T, db *gorm.DB, name string, max int) models.RubricCriteria {
	t.Helper()
	c := models.RubricCriteria{Name: name, MaxScore: max, IsActive: true}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedPortfolio(t *testing.T, db *gorm.DB, owner uint, status models.PortfolioStatus) models.Portfolio {
	t.Helper()
	p := models.Portfolio{UserID: owner, Title: fmt.Sprintf("Portfolio of %d", owner), Status: status}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedDocument(t *testing.T, db *gorm.DB, portfolioID, categoryID, uploader uint) models.PortfolioDocument {
	t.Helper()
	d := models.PortfolioDocument{
		PortfolioID:  portfolioID,
		CategoryID:   categoryID,
		OriginalName: "evidence.pdf",
		StoredPath:   fmt.Sprintf("portfolios/%d/seed-%d.pdf", portfolioID, categoryID),
		FileSize:     int64(len(pdfBytes)),
		MimeType:     "application/pdf",
		UploadedBy:   uploader,
	}
	require.NoError(t, db.Create(&d).Error)
	return d
}

func actorOf(u models.User) Actor {
	return Actor{UserID: u.UserID, Role: u.Role}
}

// fixture wires every workflow service against one in-memory database.
type fixture struct {
	db          *gorm.DB
	channel     *recordingChannel
	store       *storage.LocalStore
	notifier    *NotificationService
	portfolios  *PortfolioService
	documents   *DocumentService
	assignments *AssignmentService
	evaluations *EvaluationService

	superAdmin models.User
	admin      models.User
	applicant  models.User
	evaluator  models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	store, err := storage.NewLocalStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	f := &fixture{db: db, channel: &recordingChannel{}, store: store}
	f.notifier = NewNotificationService(db, f.channel)
	f.portfolios = NewPortfolioService(db, f.notifier, store)
	f.documents = NewDocumentService(db, store, store.MaxBytes())
	f.assignments = NewAssignmentService(db, f.notifier)
	f.evaluations = NewEvaluationService(db, f.notifier)

	f.superAdmin = seedUser(t, db, models.RoleSuperAdmin, "root@example.com")
	f.admin = seedUser(t, db, models.RoleAdmin, "admin@example.com")
	f.applicant = seedUser(t, db, models.RoleApplicant, "applicant@example.com")
	f.evaluator = seedUser(t, db, models.RoleEvaluator, "evaluator@example.com")
	return f
}

// completePortfolio returns a draft portfolio with a document in every required category.
func (f *fixture) completePortfolio(t *testing.T, requiredCategories int) models.Portfolio {
	t.Helper()
	p := seedPortfolio(t, f.db, f.applicant.UserID, models.PortfolioDraft)
	for i := 0; i < requiredCategories; i++ {
		c := seedCategory(t, f.db, fmt.Sprintf("Required %d", i+1), true)
		seedDocument(t, f.db, p.PortfolioID, c.CategoryID, f.applicant.UserID)
	}
	return p
}

// underReview submits a complete portfolio and assigns the fixture evaluator.
func (f *fixture) underReview(t *testing.T) (models.Portfolio, models.PortfolioAssignment) {
	t.Helper()
	ctx := context.Background()
	p := f.completePortfolio(t, 1)
	_, err := f.portfolios.Submit(ctx, actorOf(f.applicant), p.PortfolioID)
	require.NoError(t, err)
	a, err := f.assignments.Assign(ctx, actorOf(f.admin), p.PortfolioID, AssignInput{EvaluatorID: f.evaluator.UserID})
	require.NoError(t, err)
	require.NoError(t, f.db.First(&p, p.PortfolioID).Error)
	return p, *a
}

func (f *fixture) reloadPortfolio(t *testing.T, id uint) models.Portfolio {
	t.Helper()
	var p models.Portfolio
	require.NoError(t, f.db.First(&p, "portfolio_id = ?", id).Error)
	return p
}

func pdfUpload(categoryID uint) UploadInput {
	return UploadInput{
		CategoryID: categoryID,
		Filename:   "transcript.pdf",
		Size:       int64(len(pdfBytes)),
		Content:    bytes.NewReader(pdfBytes),
	}
}
