package realtime

import (
	"context"

	"contactcenter_backend/internal/events"
	"contactcenter_backend/platform/bus"
)

// telephonyAllowList is the fixed set of telephony-origin event types relayed
// into the supervisor room.
var telephonyAllowList = map[string]bool{
	events.TypeNewCall:           true,
	events.TypeCallHangup:        true,
	events.TypeAgentStatusUpdate: true,
}

// domainAllowList is the set of domain mutation hints relayed to every open
// connection so clients know to re-read current state.
var domainAllowList = map[string]bool{
	events.TypeCampaignUpdated:  true,
	events.TypeContactsImported: true,
	events.TypeContactsRecycled: true,
}

// Subscribe attaches the gateway to both bus channels. Events arriving on the
// telephony channel fan out to the supervisor room; domain events fan out to
// everyone. Both are hints only, clients reconcile by re-querying.
func (g *Gateway) Subscribe(ctx context.Context, b *bus.Bus) {
	b.Subscribe(ctx, events.ChannelTelephony, func(_ context.Context, env bus.Envelope) {
		if !telephonyAllowList[env.Type] {
			g.log.Warn("telephony event dropped", "type", env.Type)
			return
		}
		g.hub.BroadcastToRoom(RoomSupervisor, env)
	})

	b.Subscribe(ctx, events.ChannelDomain, func(_ context.Context, env bus.Envelope) {
		if !domainAllowList[env.Type] {
			g.log.Warn("domain event dropped", "type", env.Type)
			return
		}
		g.hub.Broadcast(env)
	})
}
