// Package service implements the dialer core: contact dispatch, disposition
// recording with quota enforcement, and contact recycling.
package service

import (
	"context"
	"errors"

	"contactcenter_backend/internal/dialer/repository"
	"contactcenter_backend/internal/events"
	"contactcenter_backend/platform/apperr"
	"contactcenter_backend/platform/bus"
	"contactcenter_backend/platform/logger"
	"contactcenter_backend/platform/phone"

	"github.com/google/uuid"
)

// EventPublisher is the slice of the event bus the dialer needs. Publishing
// happens strictly after the originating transaction commits and is
// best-effort: the store remains the single source of truth.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, env bus.Envelope)
}

// ImportArchiver stores the raw payload of a contact import for audit.
type ImportArchiver interface {
	ArchiveImport(ctx context.Context, campaignID uuid.UUID, data []byte) (string, error)
}

// Service is the dialer application service.
type Service struct {
	store    repository.Store
	pub      EventPublisher
	archiver ImportArchiver
	log      *logger.Logger
}

// New creates the dialer service.
func New(store repository.Store, pub EventPublisher, log *logger.Logger) *Service {
	return &Service{store: store, pub: pub, log: log}
}

// SetImportArchiver wires optional archival of import payloads (MinIO).
func (s *Service) SetImportArchiver(archiver ImportArchiver) {
	s.archiver = archiver
}

// LeaseNext hands the next pending contact of the campaign to the caller.
// A nil lease with a nil error means nothing is pending, which is a normal
// outcome for a drained or fully in-flight queue.
func (s *Service) LeaseNext(ctx context.Context, campaignID uuid.UUID) (*repository.ContactLease, error) {
	lease, err := s.store.LeaseNextContact(ctx, campaignID)
	if err != nil {
		return nil, mapStoreErr("dialer.LeaseNext", err)
	}
	return lease, nil
}

// GetCampaign reads a campaign snapshot for reconciling reads.
func (s *Service) GetCampaign(ctx context.Context, id uuid.UUID) (repository.Campaign, error) {
	campaign, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return repository.Campaign{}, mapStoreErr("dialer.GetCampaign", err)
	}
	return campaign, nil
}

// ImportContactInput describes one contact row submitted for import.
type ImportContactInput struct {
	PhoneNumber  string
	FirstName    string
	LastName     string
	PostalCode   string
	CustomFields map[string]string
}

// ImportContacts bulk-loads pending contacts into a campaign. Phone numbers
// are normalized to E.164. When an archiver is wired, the raw submitted
// payload is stored for audit; archival failure does not fail the import.
func (s *Service) ImportContacts(ctx context.Context, campaignID uuid.UUID, rows []ImportContactInput, raw []byte) (int, error) {
	params := make([]repository.NewContactParams, 0, len(rows))
	for _, row := range rows {
		params = append(params, repository.NewContactParams{
			PhoneNumber:  phone.NormalizeE164(row.PhoneNumber),
			FirstName:    row.FirstName,
			LastName:     row.LastName,
			PostalCode:   row.PostalCode,
			CustomFields: row.CustomFields,
		})
	}

	count, err := s.store.InsertContacts(ctx, campaignID, params)
	if err != nil {
		return 0, mapStoreErr("dialer.ImportContacts", err)
	}

	if s.archiver != nil && len(raw) > 0 {
		if key, err := s.archiver.ArchiveImport(ctx, campaignID, raw); err != nil {
			s.log.Warn("import archive failed", "campaignId", campaignID, "error", err)
		} else {
			s.log.Info("import archived", "campaignId", campaignID, "fileKey", key)
		}
	}

	s.publish(ctx, events.ChannelDomain, events.TypeContactsImported, events.ContactsImportedPayload{
		CampaignID: campaignID,
		Imported:   count,
	})

	return count, nil
}

func (s *Service) publish(ctx context.Context, channel, eventType string, payload interface{}) {
	if s.pub == nil {
		return
	}
	env, err := bus.NewEnvelope(eventType, payload)
	if err != nil {
		s.log.BusError(channel, err)
		return
	}
	s.pub.Publish(ctx, channel, env)
}

func mapStoreErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrCampaignNotFound):
		return apperr.NotFound("campaign not found").WithOp(op)
	case errors.Is(err, repository.ErrContactNotFound):
		return apperr.NotFound("contact not found").WithOp(op)
	case errors.Is(err, repository.ErrQualificationNotFound):
		return apperr.NotFound("qualification not found").WithOp(op)
	default:
		return apperr.Wrap(apperr.KindInternal, "storage failure", err).WithOp(op)
	}
}
