package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"eteeap-portfolio-api/middleware"
	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/services"
	"eteeap-portfolio-api/storage"
	"eteeap-portfolio-api/utils"
)

var (
	notifier  *services.NotificationService
	fileStore storage.FileStore
)

// Configure sets the notification fan-out and document store used by the handlers.
func Configure(n *services.NotificationService, store storage.FileStore) {
	notifier = n
	fileStore = store
}

func currentActor(c *gin.Context) (services.Actor, bool) {
	id, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return services.Actor{}, false
	}
	role, _ := c.Get(middleware.ContextRole)
	userID, _ := id.(uint)
	r, _ := role.(models.Role)
	return services.Actor{UserID: userID, Role: r}, userID != 0
}

// mustActor writes a 401 and returns false when there is no authenticated user.
func mustActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
	}
	return actor, ok
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// bindJSON binds the body and reports field errors keyed by JSON name.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if fields := utils.FieldErrors(err); len(fields) > 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": "Validation failed", "fields": fields})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return false
	}
	return true
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	if v, ok := services.AsValidation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": "Validation failed", "fields": v.Fields})
		return
	}
	if b, ok := services.AsBusinessRule(err); ok {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": b.Message})
		return
	}
	switch {
	case services.IsForbidden(err):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": err.Error()})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Resource not found"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid email or password"})
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
	}
}

func paginationMeta(p utils.Pagination, total int64) gin.H {
	totalPages := 0
	if p.PerPage > 0 {
		totalPages = int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	}
	return gin.H{
		"current_page": p.Page,
		"per_page":     p.PerPage,
		"total_count":  total,
		"total_pages":  totalPages,
		"has_next":     int64(p.Page*p.PerPage) < total,
		"has_prev":     p.Page > 1,
	}
}

func notificationService() *services.NotificationService {
	if notifier != nil {
		return notifier
	}
	return services.NewNotificationService(nil)
}
