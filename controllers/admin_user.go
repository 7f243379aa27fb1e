package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/services"
	"eteeap-portfolio-api/utils"
)

func ListUsers(c *gin.Context) {
	role := models.Role(c.Query("role"))
	if role != "" && !role.Valid() {
		respondError(c, services.NewValidationError("role", "role is invalid"))
		return
	}
	filter := services.UserFilter{
		Role:       role,
		Search:     c.Query("search"),
		Pagination: utils.ParsePagination(c.Query("page"), c.Query("per_page")),
	}

	users, total, err := services.NewUserService(nil).List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       users,
		"pagination": paginationMeta(filter.Pagination, total),
	})
}

func GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := services.NewUserService(nil).Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

func CreateUser(c *gin.Context) {
	var req services.UserInput
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	user, err := services.NewUserService(nil).Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User created", "data": user})
}

func UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.UserInput
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	user, err := services.NewUserService(nil).Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User updated", "data": user})
}

func DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	if err := services.NewUserService(nil).Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted"})
}
