package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/services"
)

func portfolioService() *services.PortfolioService {
	return services.NewPortfolioService(nil, notifier, fileStore)
}

// ListMyPortfolios returns the applicant's portfolios with completion.
func ListMyPortfolios(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	items, err := portfolioService().ListForApplicant(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

func CreatePortfolio(c *gin.Context) {
	var req services.PortfolioInput
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	p, err := portfolioService().Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Portfolio created", "data": p})
}

// GetPortfolio returns the portfolio with its document checklist.
func GetPortfolio(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	detail, err := portfolioService().Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": detail})
}

func UpdatePortfolio(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.PortfolioInput
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	p, err := portfolioService().Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Portfolio updated", "data": p})
}

func DeletePortfolio(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	if err := portfolioService().Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Portfolio deleted"})
}

// SubmitPortfolio sends a complete portfolio for evaluation.
func SubmitPortfolio(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	p, err := portfolioService().Submit(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Portfolio submitted for evaluation", "data": p})
}

// UploadDocument accepts a multipart "file" with "category_id" and optional "notes".
func UploadDocument(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	maxBytes := config.Conf.UploadMaxBytes
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)
	}

	header, err := c.FormFile("file")
	if err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			respondError(c, services.NewValidationError("file", "the file is too large"))
			return
		}
		respondError(c, services.NewValidationError("file", "this field is required"))
		return
	}
	categoryID, err := strconv.ParseUint(strings.TrimSpace(c.PostForm("category_id")), 10, 64)
	if err != nil {
		respondError(c, services.NewValidationError("category_id", "this field is required"))
		return
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	in := services.UploadInput{
		CategoryID: uint(categoryID),
		Filename:   header.Filename,
		Size:       header.Size,
		Content:    f,
	}
	if notes, ok := c.GetPostForm("notes"); ok {
		in.Notes = &notes
	}

	doc, err := services.NewDocumentService(nil, fileStore, maxBytes).Upload(c.Request.Context(), actor, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Document uploaded", "data": doc})
}

func DeleteDocument(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	documentID, ok := parseID(c, "document_id")
	if !ok {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	if err := services.NewDocumentService(nil, fileStore, 0).Delete(c.Request.Context(), actor, id, documentID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document deleted"})
}
