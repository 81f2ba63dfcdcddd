// Package handler exposes the dialer core over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"contactcenter_backend/internal/dialer/service"
	"contactcenter_backend/internal/dialer/transport"
	"contactcenter_backend/platform/httpkit"
	"contactcenter_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest    = "invalid request"
	msgInvalidCampaignID = "invalid campaign ID"
	msgInvalidContactID  = "invalid contact ID"
)

// RecycleScheduler defers a recycle pass to a later time.
type RecycleScheduler interface {
	ScheduleRecycle(ctx context.Context, campaignID, qualificationID uuid.UUID, runAt time.Time) error
}

// Handler handles HTTP requests for contact dispatch, disposition and recycling.
type Handler struct {
	svc       *service.Service
	val       *validator.Validator
	scheduler RecycleScheduler
}

// New creates a new dialer handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SetScheduler wires the optional deferred-recycle scheduler.
func (h *Handler) SetScheduler(scheduler RecycleScheduler) {
	h.scheduler = scheduler
}

// LeaseNext hands the next pending contact of a campaign to the caller.
// POST /api/v1/campaigns/:id/contacts/next
// 200 with the lease, or 204 when nothing is pending.
func (h *Handler) LeaseNext(c *gin.Context) {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCampaignID, nil)
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	lease, err := h.svc.LeaseNext(c.Request.Context(), campaignID)
	if httpkit.HandleError(c, err) {
		return
	}
	if lease == nil {
		httpkit.NoContent(c)
		return
	}
	httpkit.OK(c, lease)
}

// Qualify finalizes a contact's outcome.
// POST /api/v1/contacts/:id/qualify
func (h *Handler) Qualify(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidContactID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.QualifyContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	qualificationID, err := uuid.Parse(req.QualificationID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	in := service.RecordOutcomeInput{
		ContactID:       contactID,
		QualificationID: qualificationID,
		CampaignID:      campaignID,
		AgentID:         identity.UserID(),
	}
	if req.StartedAt != nil {
		in.StartedAt = *req.StartedAt
	}
	if req.EndedAt != nil {
		in.EndedAt = *req.EndedAt
	}

	result, err := h.svc.RecordOutcome(c.Request.Context(), in)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Recycle requeues previously qualified contacts, immediately or deferred.
// POST /api/v1/campaigns/:id/recycle
func (h *Handler) Recycle(c *gin.Context) {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCampaignID, nil)
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	var req transport.RecycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	qualificationID, err := uuid.Parse(req.QualificationID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if req.RunAt != nil {
		if h.scheduler == nil {
			httpkit.Error(c, http.StatusBadRequest, "deferred recycling is not configured", nil)
			return
		}
		if err := h.scheduler.ScheduleRecycle(c.Request.Context(), campaignID, qualificationID, *req.RunAt); err != nil {
			httpkit.Error(c, http.StatusInternalServerError, "failed to schedule recycle", nil)
			return
		}
		httpkit.JSON(c, http.StatusAccepted, transport.RecycleResponse{Scheduled: true})
		return
	}

	affected, err := h.svc.Recycle(c.Request.Context(), campaignID, qualificationID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.RecycleResponse{Affected: affected})
}

// Import bulk-loads contacts into a campaign.
// POST /api/v1/campaigns/:id/contacts/import
func (h *Handler) Import(c *gin.Context) {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCampaignID, nil)
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	// The raw body is kept so the import payload can be archived verbatim.
	raw, err := c.GetRawData()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ImportContactsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	rows := make([]service.ImportContactInput, 0, len(req.Contacts))
	for _, row := range req.Contacts {
		rows = append(rows, service.ImportContactInput{
			PhoneNumber:  row.PhoneNumber,
			FirstName:    row.FirstName,
			LastName:     row.LastName,
			PostalCode:   row.PostalCode,
			CustomFields: row.CustomFields,
		})
	}

	count, err := h.svc.ImportContacts(c.Request.Context(), campaignID, rows, raw)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ImportContactsResponse{Imported: count})
}

// GetCampaign returns a campaign snapshot for reconciling reads.
// GET /api/v1/campaigns/:id
func (h *Handler) GetCampaign(c *gin.Context) {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCampaignID, nil)
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	campaign, err := h.svc.GetCampaign(c.Request.Context(), campaignID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, campaign)
}
