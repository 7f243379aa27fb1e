package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eteeap-portfolio-api/services"
)

/* ==========================
   Document categories
   ========================== */

func GetCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cat, err := services.NewCategoryService(nil).Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cat})
}

func CreateCategory(c *gin.Context) {
	var req services.CategoryInput
	if !bindJSON(c, &req) {
		return
	}
	cat, err := services.NewCategoryService(nil).Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Document category created", "data": cat})
}

func UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.CategoryInput
	if !bindJSON(c, &req) {
		return
	}
	cat, err := services.NewCategoryService(nil).Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document category updated", "data": cat})
}

// DeleteCategory refuses with 409 while documents are filed under the category.
func DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := services.NewCategoryService(nil).Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document category deleted"})
}

/* ==========================
   Rubric criteria
   ========================== */

func ListCriteria(c *gin.Context) {
	activeOnly := c.Query("active") == "1" || c.Query("active") == "true"
	items, err := services.NewRubricService(nil).List(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

func GetCriteria(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	rc, err := services.NewRubricService(nil).Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rc})
}

func CreateCriteria(c *gin.Context) {
	var req services.CriteriaInput
	if !bindJSON(c, &req) {
		return
	}
	rc, err := services.NewRubricService(nil).Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Rubric criteria created", "data": rc})
}

func UpdateCriteria(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.CriteriaInput
	if !bindJSON(c, &req) {
		return
	}
	rc, err := services.NewRubricService(nil).Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Rubric criteria updated", "data": rc})
}

func DeleteCriteria(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := services.NewRubricService(nil).Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Rubric criteria deleted"})
}

// GetReports returns the admin dashboard aggregates.
func GetReports(c *gin.Context) {
	report, err := services.NewReportService(nil).Build(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
}
