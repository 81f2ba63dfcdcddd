// Package dialer provides the campaign contact dispatch bounded context:
// leasing contacts to agents, recording dispositions with quota enforcement,
// and recycling finalized contacts back into the queue.
package dialer

import (
	"contactcenter_backend/internal/dialer/handler"
	"contactcenter_backend/internal/dialer/repository"
	"contactcenter_backend/internal/dialer/service"
	apphttp "contactcenter_backend/internal/http"
	"contactcenter_backend/platform/logger"
	"contactcenter_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the dialer bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the dialer module with all its dependencies.
func NewModule(pool *pgxpool.Pool, pub service.EventPublisher, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, pub, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "dialer"
}

// Service returns the service layer for external use (scheduler worker).
func (m *Module) Service() *service.Service {
	return m.service
}

// SetRecycleScheduler wires the optional deferred-recycle scheduler.
func (m *Module) SetRecycleScheduler(scheduler handler.RecycleScheduler) {
	m.handler.SetScheduler(scheduler)
}

// SetImportArchiver wires optional archival of import payloads.
func (m *Module) SetImportArchiver(archiver service.ImportArchiver) {
	m.service.SetImportArchiver(archiver)
}

// RegisterRoutes mounts dialer routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/campaigns/:id", m.handler.GetCampaign)
	ctx.Protected.POST("/campaigns/:id/contacts/next", m.handler.LeaseNext)
	ctx.Protected.POST("/campaigns/:id/contacts/import", m.handler.Import)
	ctx.Protected.POST("/campaigns/:id/recycle", m.handler.Recycle)
	ctx.Protected.POST("/contacts/:id/qualify", m.handler.Qualify)
}
