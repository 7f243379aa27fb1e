package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/controllers"
	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/services"
	"eteeap-portfolio-api/storage"
	"eteeap-portfolio-api/utils"
)

const testPassword = "password123"

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type apiFixture struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

// setup points the global config at a fresh in-memory database and builds the full router.
func setup(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared&_foreign_keys=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))

	prevDB, prevConf := config.DB, config.Conf
	config.DB = db
	config.Conf.JWTSecret = "test-secret"
	config.Conf.JWTExpireHours = 1
	t.Cleanup(func() {
		config.DB, config.Conf = prevDB, prevConf
		_ = sqlDB.Close()
	})

	store, err := storage.NewLocalStore(t.TempDir(), 1<<20)
	require.NoError(t, err)
	controllers.Configure(services.NewNotificationService(db), store)

	router := gin.New()
	SetupRoutes(router)
	return &apiFixture{t: t, db: db, router: router}
}

func (f *apiFixture) user(role models.Role, email string) models.User {
	f.t.Helper()
	hash, err := utils.HashPassword(testPassword)
	require.NoError(f.t, err)
	u := models.User{Name: strings.Split(email, "@")[0], Email: email, Password: hash, Role: role}
	require.NoError(f.t, f.db.Create(&u).Error)
	return u
}

func (f *apiFixture) login(email string) string {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/api/v1/login", "", gin.H{"email": email, "password": testPassword})
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Token
}

func (f *apiFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) upload(token string, portfolioID, categoryID uint, filename string, content []byte) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(f.t, err)
	_, err = part.Write(content)
	require.NoError(f.t, err)
	require.NoError(f.t, w.WriteField("category_id", fmt.Sprint(categoryID)))
	require.NoError(f.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/applicant/portfolios/%d/documents", portfolioID), &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func dataID(t *testing.T, rec *httptest.ResponseRecorder, key string) uint {
	t.Helper()
	data, ok := decode(t, rec)["data"].(map[string]interface{})
	require.True(t, ok, rec.Body.String())
	id, ok := data[key].(float64)
	require.True(t, ok, rec.Body.String())
	return uint(id)
}

func TestHealthAndNoRoute(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestLoginAndProfile(t *testing.T) {
	f := setup(t)
	f.user(models.RoleApplicant, "ana@example.com")

	rec := f.do(http.MethodPost, "/api/v1/login", "", gin.H{"email": "ana@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/login", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields, _ := decode(t, rec)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	rec = f.do(http.MethodGet, "/api/v1/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := f.login("ana@example.com")
	rec = f.do(http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user, _ := decode(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "ana@example.com", user["email"])
	assert.NotContains(t, user, "password")
}

func TestRegisterCreatesApplicant(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodPost, "/api/v1/register", "", gin.H{
		"name": "New Applicant", "email": "new@example.com", "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var u models.User
	require.NoError(t, f.db.First(&u, "email = ?", "new@example.com").Error)
	assert.Equal(t, models.RoleApplicant, u.Role)

	rec = f.do(http.MethodPost, "/api/v1/register", "", gin.H{
		"name": "Again", "email": "new@example.com", "password": testPassword,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRoleGroupsAreEnforced(t *testing.T) {
	f := setup(t)
	f.user(models.RoleApplicant, "ana@example.com")
	f.user(models.RoleEvaluator, "eve@example.com")
	applicant := f.login("ana@example.com")
	evaluator := f.login("eve@example.com")

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/v1/admin/portfolios", applicant, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/v1/admin/reports", evaluator, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/v1/evaluator/portfolios", applicant, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/v1/applicant/portfolios", evaluator, gin.H{"title": "x"}).Code)
}

func TestApplicantPortfolioFlow(t *testing.T) {
	f := setup(t)
	ana := f.user(models.RoleApplicant, "ana@example.com")
	f.user(models.RoleApplicant, "ben@example.com")
	admin := f.user(models.RoleAdmin, "admin@example.com")
	cat := models.DocumentCategory{Name: "Transcript", Slug: "transcript", IsRequired: true}
	require.NoError(t, f.db.Create(&cat).Error)

	token := f.login("ana@example.com")

	rec := f.do(http.MethodPost, "/api/v1/applicant/portfolios", token, gin.H{"title": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/applicant/portfolios", token, gin.H{"title": "BS Information Technology"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pid := dataID(t, rec, "portfolio_id")

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/applicant/portfolios/%d/submit", pid), token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields, _ := decode(t, rec)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "documents")

	rec = f.upload(token, pid, cat.CategoryID, "notes.txt", []byte("plain text"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.upload(token, pid, cat.CategoryID, "tor.pdf", pdfBytes)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	docID := dataID(t, rec, "document_id")

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/v1/documents/%d/download", docID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="tor.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, pdfBytes, rec.Body.Bytes())

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/v1/documents/%d/download?preview=1", docID), token, nil)
	assert.Equal(t, `inline; filename="tor.pdf"`, rec.Header().Get("Content-Disposition"))

	other := f.login("ben@example.com")
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, fmt.Sprintf("/api/v1/documents/%d/download", docID), other, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, fmt.Sprintf("/api/v1/applicant/portfolios/%d", pid), other, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/v1/applicant/portfolios/9999", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/applicant/portfolios/abc", token, nil).Code)

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/applicant/portfolios/%d/submit", pid), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/applicant/portfolios/%d/submit", pid), token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPut, fmt.Sprintf("/api/v1/applicant/portfolios/%d", pid), token, gin.H{"title": "Changed"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/notifications", f.login(admin.Email), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "New portfolio submitted")

	var p models.Portfolio
	require.NoError(t, f.db.First(&p, pid).Error)
	assert.Equal(t, models.PortfolioSubmitted, p.Status)
	assert.Equal(t, ana.UserID, p.UserID)
}

func TestAssignEvaluateAndReport(t *testing.T) {
	f := setup(t)
	ana := f.user(models.RoleApplicant, "ana@example.com")
	eve := f.user(models.RoleEvaluator, "eve@example.com")
	f.user(models.RoleAdmin, "admin@example.com")
	crit := models.RubricCriteria{Name: "Work Experience", MaxScore: 10, IsActive: true}
	require.NoError(t, f.db.Create(&crit).Error)
	p := models.Portfolio{UserID: ana.UserID, Title: "BSBA", Status: models.PortfolioSubmitted}
	require.NoError(t, f.db.Create(&p).Error)

	admin := f.login("admin@example.com")
	evaluator := f.login("eve@example.com")

	rec := f.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/portfolios/%d/assign", p.PortfolioID), admin, gin.H{"evaluator_id": ana.UserID})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/portfolios/%d/assign", p.PortfolioID), admin, gin.H{"evaluator_id": eve.UserID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	aid := dataID(t, rec, "assignment_id")

	rec = f.do(http.MethodGet, "/api/v1/evaluator/portfolios", evaluator, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"BSBA"`)

	body := gin.H{"scores": []gin.H{{"criteria_id": crit.CriteriaID, "score": 50}}}
	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/evaluator/portfolios/%d/save", aid), evaluator, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 100, decode(t, rec)["percentage"])

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/evaluator/portfolios/%d/submit", aid), evaluator, gin.H{
		"scores": []gin.H{{"criteria_id": crit.CriteriaID, "score": -1}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/evaluator/portfolios/%d/submit", aid), evaluator, gin.H{
		"scores":           []gin.H{{"criteria_id": crit.CriteriaID, "score": 7}},
		"overall_comments": "Solid experience",
		"recommendation":   "approve",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 70, decode(t, rec)["percentage"])

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/evaluator/portfolios/%d/save", aid), evaluator, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPut, fmt.Sprintf("/api/v1/admin/portfolios/%d/status", p.PortfolioID), admin, gin.H{"status": "draft"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(http.MethodPut, fmt.Sprintf("/api/v1/admin/portfolios/%d/status", p.PortfolioID), admin, gin.H{"status": "approved", "admin_notes": "Welcome"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/admin/reports", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report, _ := decode(t, rec)["data"].(map[string]interface{})
	assert.EqualValues(t, 1, report["submitted_evaluations"])
	assert.EqualValues(t, 70, report["average_percentage"])
}

func TestAdminListPagination(t *testing.T) {
	f := setup(t)
	ana := f.user(models.RoleApplicant, "ana@example.com")
	f.user(models.RoleAdmin, "admin@example.com")
	for i := 0; i < 3; i++ {
		require.NoError(t, f.db.Create(&models.Portfolio{UserID: ana.UserID, Title: fmt.Sprintf("P%d", i), Status: models.PortfolioSubmitted}).Error)
	}
	require.NoError(t, f.db.Create(&models.Portfolio{UserID: ana.UserID, Title: "Hidden draft", Status: models.PortfolioDraft}).Error)

	rec := f.do(http.MethodGet, "/api/v1/admin/portfolios?per_page=2&page=1", f.login("admin@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	pagination, _ := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 3, pagination["total_count"])
	assert.EqualValues(t, 2, pagination["total_pages"])
	assert.Equal(t, true, pagination["has_next"])
	assert.Len(t, body["data"], 2)
}
