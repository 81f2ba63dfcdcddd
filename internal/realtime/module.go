package realtime

import (
	"context"

	apphttp "contactcenter_backend/internal/http"
	"contactcenter_backend/platform/bus"
	"contactcenter_backend/platform/config"
	"contactcenter_backend/platform/logger"
)

// Module is the realtime gateway module implementing http.Module.
type Module struct {
	hub     *Hub
	gateway *Gateway
	bus     *bus.Bus
}

// NewModule creates and initializes the realtime module.
func NewModule(cfg config.JWTConfig, b *bus.Bus, log *logger.Logger) *Module {
	hub := NewHub(log)
	return &Module{
		hub:     hub,
		gateway: NewGateway(hub, cfg, log),
		bus:     b,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "realtime"
}

// Hub exposes the connection registry for health reporting.
func (m *Module) Hub() *Hub {
	return m.hub
}

// Start launches the hub run loop and attaches the bus relays. Must be called
// before the router starts accepting upgrades.
func (m *Module) Start(ctx context.Context) {
	go m.hub.Run(ctx)
	m.gateway.Subscribe(ctx, m.bus)
}

// RegisterRoutes mounts the upgrade endpoint. The handshake does its own
// token verification, so the route sits on the engine rather than behind the
// bearer-header middleware.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.GET("/ws", m.gateway.Handle)
}
