package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"ragdesk/models"
	"ragdesk/services/documents"
	"ragdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DocumentService is the ingestion surface used by the document endpoints.
type DocumentService interface {
	SaveUpload(name string, r io.Reader) (string, error)
	IngestFile(ctx context.Context, path string, clean bool, progress documents.ProgressReporter) (models.IngestResult, error)
	ClearAll(ctx context.Context) error
	Stats(ctx context.Context) (models.LibraryStats, error)
}

type DocumentHandler struct {
	svc          DocumentService
	cleanDefault bool
}

func NewDocumentHandler(svc DocumentService, cleanDefault bool) *DocumentHandler {
	return &DocumentHandler{svc: svc, cleanDefault: cleanDefault}
}

// Upload handles POST /api/documents.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "file is required", err.Error())
		return
	}
	defer file.Close()

	clean := h.cleanDefault
	if raw := c.PostForm("clean"); raw != "" {
		if clean, err = strconv.ParseBool(raw); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid input", "clean must be true or false")
			return
		}
	}

	path, err := h.svc.SaveUpload(filepath.Base(header.Filename), io.LimitReader(file, utils.MaxUploadBytes))
	if err != nil {
		getLogger(c).Error("documents: save failed", zap.String("file", header.Filename), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to save document", "")
		return
	}

	result, err := h.svc.IngestFile(c.Request.Context(), path, clean, nil)
	if err != nil {
		var extractErr *documents.ExtractionError
		if errors.As(err, &extractErr) || errors.Is(err, documents.ErrEmptyDocument) {
			utils.JSONError(c, http.StatusUnprocessableEntity, "Error processing document", err.Error())
			return
		}
		getLogger(c).Error("documents: ingest failed", zap.String("file", header.Filename), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Error processing document", "")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Clear handles DELETE /api/documents.
func (h *DocumentHandler) Clear(c *gin.Context) {
	if err := h.svc.ClearAll(c.Request.Context()); err != nil {
		getLogger(c).Error("documents: clear failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to clear documents", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All documents cleared"})
}

// Stats handles GET /api/documents/stats.
func (h *DocumentHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		getLogger(c).Error("documents: stats failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load stats", "")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Health handles GET /health.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm ragdesk", "dependencies": utils.GetHealthStatus()})
}
