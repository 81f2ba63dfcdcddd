// Package origination routes outbound call requests to a dialing strategy
// and delegates signaling to the telephony control collaborator.
package origination

import (
	"contactcenter_backend/internal/http"
	"contactcenter_backend/internal/origination/handler"
	"contactcenter_backend/internal/origination/repository"
	"contactcenter_backend/internal/origination/service"
	"contactcenter_backend/internal/origination/telephony"
	"contactcenter_backend/platform/config"
	"contactcenter_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the call origination module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the origination module.
func NewModule(pool *pgxpool.Pool, cfg config.TelephonyConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)

	// NewClient returns nil without a configured URL; the service then
	// rejects origination attempts instead of dialing nowhere.
	var dialer service.Dialer
	if client := telephony.NewClient(cfg, log); client != nil {
		dialer = client
	}

	svc := service.New(repo, dialer, log)

	return &Module{handler: handler.New(svc)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "origination"
}

// RegisterRoutes mounts origination routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *http.RouterContext) {
	ctx.Protected.POST("/call/originate", m.handler.Originate)
}
