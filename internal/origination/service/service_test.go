package service

import (
	"context"
	"errors"
	"testing"

	"contactcenter_backend/internal/origination/repository"
	"contactcenter_backend/internal/origination/telephony"
	"contactcenter_backend/platform/apperr"
	"contactcenter_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStations struct {
	stations map[uuid.UUID]repository.Station
}

func (f *fakeStations) GetStation(_ context.Context, agentID uuid.UUID) (repository.Station, error) {
	s, ok := f.stations[agentID]
	if !ok {
		return repository.Station{}, repository.ErrStationNotFound
	}
	return s, nil
}

type fakeDialer struct {
	stationCalls []telephony.StationCallRequest
	phoneCalls   []telephony.PhoneCallRequest
	err          error
}

func (f *fakeDialer) OriginateFromStation(_ context.Context, req telephony.StationCallRequest) (string, error) {
	f.stationCalls = append(f.stationCalls, req)
	return "call-123", f.err
}

func (f *fakeDialer) OriginateToPhone(_ context.Context, req telephony.PhoneCallRequest) (string, error) {
	f.phoneCalls = append(f.phoneCalls, req)
	return "call-456", f.err
}

func newTestService(stations map[uuid.UUID]repository.Station, dialer *fakeDialer) *Service {
	return New(&fakeStations{stations: stations}, dialer, logger.New("development"))
}

func TestOriginateDirectStation(t *testing.T) {
	agentID := uuid.New()
	siteID := uuid.New()
	dialer := &fakeDialer{}
	svc := newTestService(map[uuid.UUID]repository.Station{
		agentID: {AgentID: agentID, DisplayName: "Luc", Extension: "1024", SiteID: &siteID},
	}, dialer)

	callID, err := svc.Originate(context.Background(), agentID, "+33612345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if callID != "call-123" {
		t.Fatalf("unexpected call id %q", callID)
	}
	if len(dialer.stationCalls) != 1 || len(dialer.phoneCalls) != 0 {
		t.Fatalf("expected one direct-station call, got %+v / %+v", dialer.stationCalls, dialer.phoneCalls)
	}
	if got := dialer.stationCalls[0]; got.Extension != "1024" || got.SiteID != siteID.String() {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestOriginateMobileStationPreferred(t *testing.T) {
	agentID := uuid.New()
	siteID := uuid.New()
	dialer := &fakeDialer{}
	svc := newTestService(map[uuid.UUID]repository.Station{
		agentID: {
			AgentID:          agentID,
			DisplayName:      "Luc",
			Extension:        "1024",
			MobileNumber:     "0612345678",
			UseMobileStation: true,
			SiteID:           &siteID,
		},
	}, dialer)

	callID, err := svc.Originate(context.Background(), agentID, "0712345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if callID != "call-456" {
		t.Fatalf("unexpected call id %q", callID)
	}
	if len(dialer.phoneCalls) != 1 || len(dialer.stationCalls) != 0 {
		t.Fatal("expected the connect-to-phone strategy")
	}
	got := dialer.phoneCalls[0]
	if got.MobileNumber != "+33612345678" || got.Destination != "+33712345678" {
		t.Fatalf("expected normalized numbers, got %+v", got)
	}
	if got.CallerID != "Luc" {
		t.Fatalf("expected caller id from agent identity, got %q", got.CallerID)
	}
}

func TestOriginateMobileFlagWithoutNumberFallsBackToStation(t *testing.T) {
	agentID := uuid.New()
	siteID := uuid.New()
	dialer := &fakeDialer{}
	svc := newTestService(map[uuid.UUID]repository.Station{
		agentID: {AgentID: agentID, Extension: "1024", UseMobileStation: true, SiteID: &siteID},
	}, dialer)

	if _, err := svc.Originate(context.Background(), agentID, "+33612345678"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dialer.stationCalls) != 1 {
		t.Fatal("expected fallback to the direct-station strategy")
	}
}

func TestOriginateUnknownAgent(t *testing.T) {
	dialer := &fakeDialer{}
	svc := newTestService(nil, dialer)

	_, err := svc.Originate(context.Background(), uuid.New(), "+33612345678")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(dialer.stationCalls)+len(dialer.phoneCalls) != 0 {
		t.Fatal("expected no telephony call for an unknown agent")
	}
}

func TestOriginateMissingExtension(t *testing.T) {
	agentID := uuid.New()
	siteID := uuid.New()
	dialer := &fakeDialer{}
	svc := newTestService(map[uuid.UUID]repository.Station{
		agentID: {AgentID: agentID, SiteID: &siteID},
	}, dialer)

	_, err := svc.Originate(context.Background(), agentID, "+33612345678")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(dialer.stationCalls)+len(dialer.phoneCalls) != 0 {
		t.Fatal("expected no telephony call without an extension")
	}
}

func TestOriginateMissingSite(t *testing.T) {
	agentID := uuid.New()
	dialer := &fakeDialer{}
	svc := newTestService(map[uuid.UUID]repository.Station{
		agentID: {AgentID: agentID, MobileNumber: "0612345678", UseMobileStation: true},
	}, dialer)

	_, err := svc.Originate(context.Background(), agentID, "+33612345678")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOriginateTelephonyFailureIsUnavailable(t *testing.T) {
	agentID := uuid.New()
	siteID := uuid.New()
	dialer := &fakeDialer{err: errors.New("originate timed out")}
	svc := newTestService(map[uuid.UUID]repository.Station{
		agentID: {AgentID: agentID, Extension: "1024", SiteID: &siteID},
	}, dialer)

	_, err := svc.Originate(context.Background(), agentID, "+33612345678")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if len(dialer.stationCalls) != 1 {
		t.Fatal("expected exactly one attempt, no retry")
	}
}

func TestOriginateWithoutConfiguredDialer(t *testing.T) {
	svc := New(&fakeStations{}, nil, logger.New("development"))

	_, err := svc.Originate(context.Background(), uuid.New(), "+33612345678")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
