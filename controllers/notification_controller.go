package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func GetNotifications(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	unreadOnly := strings.TrimSpace(c.Query("unreadOnly"))
	limit, offset := 20, 0
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("limit"))); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("offset"))); err == nil && v >= 0 {
		offset = v
	}

	items, unread, err := notificationService().List(c.Request.Context(), actor.UserID,
		unreadOnly == "1" || strings.EqualFold(unreadOnly, "true"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "items": items, "unread": unread})
}

func MarkNotificationRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	n, err := notificationService().MarkRead(c.Request.Context(), actor.UserID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": n})
}

func MarkAllNotificationsRead(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	updated, err := notificationService().MarkAllRead(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}
