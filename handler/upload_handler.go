package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tieubaoca/docflow/service"
	"github.com/tieubaoca/docflow/types"
	"github.com/tieubaoca/docflow/utils"
)

// UploadHandler accepts a multipart file and drops it into the incoming
// stage under a tracking-id filename. The watcher picks it up like any
// other arrival; the client polls /status/{tracking_id} for the outcome.
type UploadHandler struct {
	stages   *service.Stages
	loaders  *service.LoaderRegistry
	tracking *service.TrackingStore
	maxSize  int64
}

func NewUploadHandler(stages *service.Stages, loaders *service.LoaderRegistry, tracking *service.TrackingStore, maxSize int64) *UploadHandler {
	return &UploadHandler{
		stages:   stages,
		loaders:  loaders,
		tracking: tracking,
		maxSize:  maxSize,
	}
}

func (h *UploadHandler) UploadDocumentHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid file",
		})
		return
	}

	if file.Size > h.maxSize {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "File too large",
		})
		return
	}

	originalName := utils.SanitizeFileName(file.Filename)
	if !h.loaders.Supported(originalName) {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: fmt.Sprintf("Unsupported file type: %s", filepath.Ext(originalName)),
		})
		return
	}

	// The stored name is the tracking id so the watcher can correlate
	// status updates without any side channel.
	trackingID := uuid.NewString()
	destPath := filepath.Join(h.stages.Incoming, trackingID+filepath.Ext(originalName))

	if err := c.SaveUploadedFile(file, destPath); err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: "Failed to store file",
		})
		return
	}

	h.tracking.Create(trackingID, originalName, destPath)

	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data: types.UploadResponse{
			TrackingID:   trackingID,
			OriginalName: originalName,
		},
	})
}

// UploadStatusHandler reports the in-memory tracking record for one
// upload. Unknown ids return 404; records do not survive restarts.
func (h *UploadHandler) UploadStatusHandler(c *gin.Context) {
	trackingID := c.Param("tracking_id")

	rec, ok := h.tracking.Get(trackingID)
	if !ok {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  false,
			Message: "Unknown tracking id",
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   rec,
	})
}
