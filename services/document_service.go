package services

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/storage"
	"eteeap-portfolio-api/utils"
)

// UploadInput is one file posted to a portfolio category.
type UploadInput struct {
	CategoryID uint
	Filename   string
	Size       int64
	Content    io.Reader
	Notes      *string
}

type DocumentService struct {
	db       *gorm.DB
	store    storage.FileStore
	maxBytes int64
}

// NewDocumentService wires the document store. maxBytes <= 0 disables the
// size check done before the file is stored.
func NewDocumentService(db *gorm.DB, store storage.FileStore, maxBytes int64) *DocumentService {
	if db == nil {
		db = config.DB
	}
	return &DocumentService{db: db, store: store, maxBytes: maxBytes}
}

// Upload stores the file and then records it against the portfolio. If the
// row cannot be written the stored file is removed again.
func (s *DocumentService) Upload(ctx context.Context, actor Actor, portfolioID uint, in UploadInput) (*models.PortfolioDocument, error) {
	db := s.db.WithContext(ctx)

	var p models.Portfolio
	if err := db.First(&p, "portfolio_id = ?", portfolioID).Error; err != nil {
		return nil, notFoundOr(err, "load portfolio")
	}
	if !actor.IsApplicant() || !p.IsOwnedBy(actor.UserID) {
		return nil, ErrForbidden
	}
	if !p.CanBeEdited() {
		return nil, forbidden("Documents can only be changed while the portfolio is a draft or needs revision.")
	}

	if in.CategoryID == 0 {
		return nil, NewValidationError("category_id", "this field is required")
	}
	var n int64
	if err := db.Model(&models.DocumentCategory{}).Where("category_id = ?", in.CategoryID).Count(&n).Error; err != nil {
		return nil, errors.Wrap(err, "check category")
	}
	if n == 0 {
		return nil, NewValidationError("category_id", "the selected category is invalid")
	}
	if in.Content == nil {
		return nil, NewValidationError("file", "this field is required")
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, NewValidationError("file", tooLargeMessage(s.maxBytes))
	}

	stored, err := s.store.Save(fmt.Sprintf("portfolios/%d", portfolioID), in.Filename, in.Content)
	switch {
	case errors.Is(err, storage.ErrTypeNotAllow):
		return nil, NewValidationError("file", "the file must be a PDF, JPEG, PNG, DOC or DOCX document")
	case errors.Is(err, storage.ErrFileTooLarge):
		return nil, NewValidationError("file", tooLargeMessage(s.maxBytes))
	case err != nil:
		return nil, errors.Wrap(err, "store document")
	}

	doc := models.PortfolioDocument{
		PortfolioID:  portfolioID,
		CategoryID:   in.CategoryID,
		OriginalName: utils.SanitizeInput(in.Filename),
		StoredPath:   stored.Path,
		FileSize:     stored.Size,
		MimeType:     stored.MimeType,
		Notes:        utils.SanitizeOptional(in.Notes),
		UploadedBy:   actor.UserID,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		var locked models.Portfolio
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, "portfolio_id = ?", portfolioID).Error; err != nil {
			return notFoundOr(err, "load portfolio")
		}
		if !locked.CanBeEdited() {
			return forbidden("Documents can only be changed while the portfolio is a draft or needs revision.")
		}
		return tx.Create(&doc).Error
	})
	if err != nil {
		removeStoredFile(s.store, stored.Path)
		if IsForbidden(err) || IsNotFound(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "record document")
	}
	return &doc, nil
}

// Delete removes a document from an editable portfolio. A document that does
// not belong to the portfolio is reported as not found.
func (s *DocumentService) Delete(ctx context.Context, actor Actor, portfolioID, documentID uint) error {
	var doc models.PortfolioDocument
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadOwnedForUpdate(tx, actor, portfolioID)
		if err != nil {
			return err
		}
		if err := tx.First(&doc, "document_id = ? AND portfolio_id = ?", documentID, portfolioID).Error; err != nil {
			return notFoundOr(err, "load document")
		}
		if !p.CanBeEdited() {
			return forbidden("Documents can only be changed while the portfolio is a draft or needs revision.")
		}
		return tx.Delete(&doc).Error
	})
	if err != nil {
		return err
	}
	removeStoredFile(s.store, doc.StoredPath)
	return nil
}

// Open returns the document and its content for anyone who may view the
// parent portfolio. The caller closes the reader.
func (s *DocumentService) Open(ctx context.Context, actor Actor, documentID uint) (*models.PortfolioDocument, io.ReadCloser, error) {
	db := s.db.WithContext(ctx)

	var doc models.PortfolioDocument
	if err := db.First(&doc, "document_id = ?", documentID).Error; err != nil {
		return nil, nil, notFoundOr(err, "load document")
	}
	var p models.Portfolio
	if err := db.First(&p, "portfolio_id = ?", doc.PortfolioID).Error; err != nil {
		return nil, nil, notFoundOr(err, "load portfolio")
	}
	if err := authorizeView(db, actor, p); err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Open(doc.StoredPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "open document")
	}
	return &doc, rc, nil
}

func tooLargeMessage(maxBytes int64) string {
	return fmt.Sprintf("the file may not be greater than %d kilobytes", maxBytes/1024)
}
