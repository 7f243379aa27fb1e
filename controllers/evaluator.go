package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/services"
)

// ListEvaluatorAssignments returns the caller's assignments, optionally by ?status=.
func ListEvaluatorAssignments(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	items, err := services.NewAssignmentService(nil, notifier).
		ListForEvaluator(c.Request.Context(), actor, models.AssignmentStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

// GetEvaluatorAssignment returns the portfolio, rubric and evaluation for one assignment.
func GetEvaluatorAssignment(c *gin.Context) {
	id, ok := parseID(c, "assignment_id")
	if !ok {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	ws, err := services.NewEvaluationService(nil, notifier).Workspace(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ws})
}

func SaveEvaluationDraft(c *gin.Context) {
	saveEvaluation(c, false)
}

func SubmitEvaluation(c *gin.Context) {
	saveEvaluation(c, true)
}

func saveEvaluation(c *gin.Context, submit bool) {
	id, ok := parseID(c, "assignment_id")
	if !ok {
		return
	}
	var req services.EvaluationInput
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	svc := services.NewEvaluationService(nil, notifier)
	var (
		ev  *models.Evaluation
		err error
		msg string
	)
	if submit {
		ev, err = svc.Submit(c.Request.Context(), actor, id, req)
		msg = "Evaluation submitted"
	} else {
		ev, err = svc.SaveDraft(c.Request.Context(), actor, id, req)
		msg = "Evaluation draft saved"
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    msg,
		"data":       ev,
		"percentage": ev.Percentage(),
	})
}
