package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eteeap-portfolio-api/services"
)

// DownloadDocument streams a stored document. preview=1 serves it inline.
func DownloadDocument(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	doc, rc, err := services.NewDocumentService(nil, fileStore, 0).Open(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	disposition := "attachment"
	if c.Query("preview") == "1" {
		disposition = "inline"
	}

	c.DataFromReader(http.StatusOK, doc.FileSize, doc.MimeType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("%s; filename=\"%s\"", disposition, headerFilename(doc.OriginalName)),
	})
}

// ListDocumentCategories returns every category for the upload checklist.
func ListDocumentCategories(c *gin.Context) {
	items, err := services.NewCategoryService(nil).List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

// headerFilename strips characters that would break a quoted header value.
func headerFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
}
