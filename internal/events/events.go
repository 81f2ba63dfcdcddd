// Package events defines the bus channels and event catalog shared by the
// HTTP layer, the dialer services and the realtime gateway. Payloads travel
// as {type, payload} envelopes (platform/bus); the definitions here keep the
// wire names in one place.
package events

import (
	"github.com/google/uuid"
)

// Bus channels. One carries domain-entity mutations, the other telephony-origin
// events bridged from the telephony collaborator.
const (
	ChannelDomain    = "events:domain"
	ChannelTelephony = "events:telephony"
)

// Domain channel event types.
const (
	TypeCampaignUpdated  = "campaignUpdated"
	TypeContactsImported = "contactsImported"
	TypeContactsRecycled = "contactsRecycled"
)

// Realtime / telephony event types.
const (
	TypeAgentStatusUpdate    = "agentStatusUpdate"
	TypeAgentRaisedHand      = "agentRaisedHand"
	TypeSupervisorMessage    = "supervisorMessage"
	TypeAgentResponseMessage = "agentResponseMessage"
	TypePlanningUpdated      = "planningUpdated"
	TypeNewCall              = "newCall"
	TypeCallHangup           = "callHangup"
)

// AgentStatusPayload is broadcast to the supervisor room whenever an agent's
// availability changes, including the synthesized waiting/disconnected events.
type AgentStatusPayload struct {
	AgentID     uuid.UUID `json:"agentId"`
	DisplayName string    `json:"displayName,omitempty"`
	Status      string    `json:"status"`
}

// Agent status values.
const (
	AgentStatusWaiting      = "waiting"
	AgentStatusDisconnected = "disconnected"
)

// AgentRaisedHandPayload identifies the agent requesting supervisor attention.
type AgentRaisedHandPayload struct {
	AgentID     uuid.UUID `json:"agentId"`
	DisplayName string    `json:"displayName,omitempty"`
}

// SupervisorMessagePayload is a direct operator message to one agent.
type SupervisorMessagePayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// AgentResponsePayload is an agent's reply relayed to the supervisor room.
type AgentResponsePayload struct {
	AgentID     uuid.UUID `json:"agentId"`
	DisplayName string    `json:"displayName,omitempty"`
	Message     string    `json:"message"`
}

// ContactsRecycledPayload reports a completed recycle pass.
type ContactsRecycledPayload struct {
	CampaignID      uuid.UUID `json:"campaignId"`
	QualificationID uuid.UUID `json:"qualificationId"`
	Affected        int64     `json:"affected"`
}

// ContactsImportedPayload reports a completed contact import.
type ContactsImportedPayload struct {
	CampaignID uuid.UUID `json:"campaignId"`
	Imported   int       `json:"imported"`
}
