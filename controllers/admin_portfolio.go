package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/services"
	"eteeap-portfolio-api/utils"
)

// AdminListPortfolios lists non-draft portfolios with ?status=, ?search= and paging.
func AdminListPortfolios(c *gin.Context) {
	status := models.PortfolioStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		respondError(c, services.NewValidationError("status", "status is invalid"))
		return
	}
	filter := services.AdminPortfolioFilter{
		Status:     status,
		Search:     c.Query("search"),
		Pagination: utils.ParsePagination(c.Query("page"), c.Query("per_page")),
	}

	items, total, err := portfolioService().AdminList(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       items,
		"pagination": paginationMeta(filter.Pagination, total),
	})
}

// AdminGetPortfolio returns the full portfolio and the evaluators available for assignment.
func AdminGetPortfolio(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	detail, err := portfolioService().AdminGet(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	evaluators, _, err := services.NewUserService(nil).List(c.Request.Context(), services.UserFilter{
		Role:       models.RoleEvaluator,
		Pagination: utils.Pagination{Page: 1, PerPage: utils.MaxPerPage},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": detail, "evaluators": evaluators})
}

func AssignEvaluator(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.AssignInput
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	a, err := services.NewAssignmentService(nil, notifier).Assign(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Evaluator assigned", "data": a})
}

func RemoveAssignment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	assignmentID, ok := parseID(c, "assignment_id")
	if !ok {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	if err := services.NewAssignmentService(nil, notifier).Remove(c.Request.Context(), actor, id, assignmentID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Assignment removed"})
}

// UpdatePortfolioStatus records an admin decision together with its notes.
func UpdatePortfolioStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.StatusInput
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	p, err := portfolioService().AdminUpdateStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Portfolio status updated", "data": p})
}
