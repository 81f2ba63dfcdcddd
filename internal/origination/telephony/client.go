// Package telephony is the HTTP client for the telephony control collaborator.
package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"contactcenter_backend/platform/config"
	"contactcenter_backend/platform/logger"
)

// Client talks to the telephony control service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

// StationCallRequest originates a call from an agent's desk extension.
type StationCallRequest struct {
	Extension   string `json:"extension"`
	Destination string `json:"destination"`
	SiteID      string `json:"siteId"`
}

// PhoneCallRequest first rings the agent's mobile, then bridges it to the
// destination. CallerID carries the agent login so the far end sees the
// campaign identity rather than the mobile number.
type PhoneCallRequest struct {
	MobileNumber string            `json:"mobileNumber"`
	Destination  string            `json:"destination"`
	SiteID       string            `json:"siteId"`
	CallerID     string            `json:"callerId"`
	Variables    map[string]string `json:"variables,omitempty"`
}

type originateResponse struct {
	CallID string `json:"callId"`
}

// NewClient creates a telephony client, or nil when no URL is configured.
func NewClient(cfg config.TelephonyConfig, log *logger.Logger) *Client {
	if cfg.GetTelephonyURL() == "" {
		return nil
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.GetTelephonyURL(), "/"),
		apiKey:  cfg.GetTelephonyAPIKey(),
		http:    &http.Client{Timeout: cfg.GetTelephonyTimeout()},
		log:     log,
	}
}

// OriginateFromStation places a direct-station call and returns the call ID.
func (c *Client) OriginateFromStation(ctx context.Context, req StationCallRequest) (string, error) {
	return c.originate(ctx, "/calls/originate/station", req)
}

// OriginateToPhone places a connect-to-phone call and returns the call ID.
func (c *Client) OriginateToPhone(ctx context.Context, req PhoneCallRequest) (string, error) {
	return c.originate(ctx, "/calls/originate/phone", req)
}

func (c *Client) originate(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal originate payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("telephony request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("telephony service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out originateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode originate response: %w", err)
	}

	c.log.Info("call originated", "callID", out.CallID)
	return out.CallID, nil
}
