// Package handler exposes call origination over HTTP.
package handler

import (
	"net/http"

	"contactcenter_backend/internal/origination/service"
	"contactcenter_backend/internal/origination/transport"
	"contactcenter_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles origination HTTP requests.
type Handler struct {
	svc *service.Service
}

// New creates a new origination handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Originate places a call for an agent.
// POST /api/v1/call/originate
func (h *Handler) Originate(c *gin.Context) {
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	var req transport.OriginateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	callID, err := h.svc.Originate(c.Request.Context(), agentID, req.Destination)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.OriginateResponse{CallID: callID})
}
