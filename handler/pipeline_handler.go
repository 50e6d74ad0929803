package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tieubaoca/docflow/service"
	"github.com/tieubaoca/docflow/types"
)

// PipelineHandler exposes lifecycle control over the watching pipeline
// and the vector re-index recovery pass.
type PipelineHandler struct {
	controller *service.PipelineController
	ingest     *service.IngestService
}

func NewPipelineHandler(controller *service.PipelineController, ingest *service.IngestService) *PipelineHandler {
	return &PipelineHandler{
		controller: controller,
		ingest:     ingest,
	}
}

func (h *PipelineHandler) StartHandler(c *gin.Context) {
	if err := h.controller.Start(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   h.controller.Status(),
	})
}

func (h *PipelineHandler) StopHandler(c *gin.Context) {
	h.controller.Stop()
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   h.controller.Status(),
	})
}

func (h *PipelineHandler) RestartHandler(c *gin.Context) {
	if err := h.controller.Restart(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   h.controller.Status(),
	})
}

func (h *PipelineHandler) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   h.controller.Status(),
	})
}

// RebuildIndexHandler re-embeds every stored chunk into the active
// collection. Long-running; runs synchronously in the request.
func (h *PipelineHandler) RebuildIndexHandler(c *gin.Context) {
	result := h.ingest.RebuildVectors(c.Request.Context())
	status := http.StatusOK
	if result.Error != "" {
		status = http.StatusInternalServerError
	}
	c.JSON(status, types.DataResponse{
		Status: result.Success,
		Data:   result,
	})
}
