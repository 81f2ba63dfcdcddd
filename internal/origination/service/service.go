// Package service routes call origination requests to a dialing strategy.
package service

import (
	"context"
	"errors"

	"contactcenter_backend/internal/origination/repository"
	"contactcenter_backend/internal/origination/telephony"
	"contactcenter_backend/platform/apperr"
	"contactcenter_backend/platform/logger"
	"contactcenter_backend/platform/phone"

	"github.com/google/uuid"
)

// Dialer abstracts the telephony collaborator so strategies can be tested
// without a live telephony service.
type Dialer interface {
	OriginateFromStation(ctx context.Context, req telephony.StationCallRequest) (string, error)
	OriginateToPhone(ctx context.Context, req telephony.PhoneCallRequest) (string, error)
}

// Service picks a dialing strategy per agent and delegates to the telephony
// collaborator.
type Service struct {
	stations repository.Store
	dialer   Dialer
	log      *logger.Logger
}

// New creates the origination service.
func New(stations repository.Store, dialer Dialer, log *logger.Logger) *Service {
	return &Service{
		stations: stations,
		dialer:   dialer,
		log:      log,
	}
}

// Originate places a call for the agent toward the destination and returns
// the call identifier.
//
// Strategy selection: an agent configured to use their mobile as a station,
// with a mobile number on file, is called back on that mobile and bridged to
// the destination (requires a site for trunk selection). Every other agent
// dials straight from their desk extension (requires extension and site).
// Configuration gaps are rejected before any telephony call is attempted.
func (s *Service) Originate(ctx context.Context, agentID uuid.UUID, destination string) (string, error) {
	if s.dialer == nil {
		return "", apperr.Unavailable("telephony control is not configured")
	}

	station, err := s.stations.GetStation(ctx, agentID)
	if errors.Is(err, repository.ErrStationNotFound) {
		return "", apperr.NotFound("agent station not found")
	}
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "load agent station", err)
	}

	destination = phone.NormalizeE164(destination)

	if station.UseMobileStation && station.MobileNumber != "" {
		return s.originateToPhone(ctx, station, destination)
	}

	return s.originateFromStation(ctx, station, destination)
}

func (s *Service) originateToPhone(ctx context.Context, station repository.Station, destination string) (string, error) {
	if station.SiteID == nil {
		return "", apperr.Validation("agent has no site assigned")
	}

	callID, err := s.dialer.OriginateToPhone(ctx, telephony.PhoneCallRequest{
		MobileNumber: phone.NormalizeE164(station.MobileNumber),
		Destination:  destination,
		SiteID:       station.SiteID.String(),
		CallerID:     station.DisplayName,
		Variables: map[string]string{
			"agentId": station.AgentID.String(),
		},
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, "telephony origination failed", err)
	}

	s.log.Info("originated via mobile station", "agentID", station.AgentID, "callID", callID)
	return callID, nil
}

func (s *Service) originateFromStation(ctx context.Context, station repository.Station, destination string) (string, error) {
	if station.Extension == "" {
		return "", apperr.Validation("agent has no extension configured")
	}
	if station.SiteID == nil {
		return "", apperr.Validation("agent has no site assigned")
	}

	callID, err := s.dialer.OriginateFromStation(ctx, telephony.StationCallRequest{
		Extension:   station.Extension,
		Destination: destination,
		SiteID:      station.SiteID.String(),
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, "telephony origination failed", err)
	}

	s.log.Info("originated via desk station", "agentID", station.AgentID, "callID", callID)
	return callID, nil
}
