package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tieubaoca/docflow/service"
)

// LogsHandler bridges gin to the websocket log stream.
type LogsHandler struct {
	hub *service.LogHub
}

func NewLogsHandler(hub *service.LogHub) *LogsHandler {
	return &LogsHandler{hub: hub}
}

func (h *LogsHandler) StreamHandler(c *gin.Context) {
	h.hub.HandleStream(c.Writer, c.Request)
}
