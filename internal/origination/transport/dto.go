// Package transport defines the origination HTTP request/response shapes.
package transport

// OriginateRequest asks for a call from an agent's station to a destination.
type OriginateRequest struct {
	AgentID     string `json:"agentId" binding:"required,uuid"`
	Destination string `json:"destination" binding:"required"`
}

// OriginateResponse carries the telephony call identifier.
type OriginateResponse struct {
	CallID string `json:"callId"`
}
