package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tieubaoca/docflow/database"
	"github.com/tieubaoca/docflow/service"
	"github.com/tieubaoca/docflow/types"
)

// DocumentHandler serves read and delete access to ingested documents
// and the per-folder ingest aggregates.
type DocumentHandler struct {
	store  database.Store
	ingest *service.IngestService
}

func NewDocumentHandler(store database.Store, ingest *service.IngestService) *DocumentHandler {
	return &DocumentHandler{
		store:  store,
		ingest: ingest,
	}
}

func (h *DocumentHandler) ListDocumentsHandler(c *gin.Context) {
	docs, err := h.store.ListDocuments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   docs,
	})
}

func (h *DocumentHandler) GetDocumentHandler(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid document id",
		})
		return
	}

	doc, err := h.store.GetDocument(c.Request.Context(), id)
	if errors.Is(err, types.ErrNotFound) {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  false,
			Message: "Document not found",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}

	chunks, err := h.store.ListChunksByDocument(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data: gin.H{
			"document": doc,
			"chunks":   chunks,
		},
	})
}

// DeleteDocumentHandler removes a document's rows, vector points, and
// extracted images.
func (h *DocumentHandler) DeleteDocumentHandler(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid document id",
		})
		return
	}

	if err := h.ingest.DeleteDocument(c.Request.Context(), id); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			c.JSON(http.StatusNotFound, types.DataResponse{
				Status:  false,
				Message: "Document not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
	})
}

func (h *DocumentHandler) ListFolderStatusesHandler(c *gin.Context) {
	statuses, err := h.store.ListFolderStatuses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   statuses,
	})
}

// GetFolderStatusHandler looks up one folder by key. The key is a
// relative path and may contain slashes, so it travels as a query
// parameter rather than a path segment.
func (h *DocumentHandler) GetFolderStatusHandler(c *gin.Context) {
	folderKey := c.Query("key")
	if folderKey == "" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "key parameter is required",
		})
		return
	}

	status, err := h.store.GetFolderStatus(c.Request.Context(), folderKey)
	if errors.Is(err, types.ErrNotFound) {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  false,
			Message: "Folder not found",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   status,
	})
}
