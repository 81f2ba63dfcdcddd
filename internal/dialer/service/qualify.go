package service

import (
	"context"
	"time"

	"contactcenter_backend/internal/dialer/repository"
	"contactcenter_backend/internal/events"

	"github.com/google/uuid"
)

// RecordOutcomeInput identifies the disposition being finalized.
type RecordOutcomeInput struct {
	ContactID       uuid.UUID
	QualificationID uuid.UUID
	CampaignID      uuid.UUID
	AgentID         uuid.UUID
	StartedAt       time.Time
	EndedAt         time.Time
}

// RecordOutcomeResult carries the post-commit state for the caller and the
// published campaign snapshot.
type RecordOutcomeResult struct {
	Contact  repository.Contact  `json:"contact"`
	Campaign repository.Campaign `json:"campaign"`
}

// RecordOutcome transactionally finalizes a contact's outcome: it looks up
// the qualification, runs quota enforcement against the campaign (locked for
// update) when the outcome is positive, marks the contact qualified and
// appends one call-history record. All four steps commit or roll back
// together; a campaign-state-changed event is published only after commit.
func (s *Service) RecordOutcome(ctx context.Context, in RecordOutcomeInput) (*RecordOutcomeResult, error) {
	if in.EndedAt.IsZero() {
		in.EndedAt = time.Now()
	}
	if in.StartedAt.IsZero() {
		in.StartedAt = in.EndedAt
	}

	var result RecordOutcomeResult
	err := s.store.WithinTx(ctx, func(tx repository.TxStore) error {
		qualification, err := tx.GetQualification(ctx, in.QualificationID)
		if err != nil {
			return err
		}

		campaign, err := tx.GetCampaignForUpdate(ctx, in.CampaignID)
		if err != nil {
			return err
		}

		contact, err := tx.GetContact(ctx, in.ContactID)
		if err != nil {
			return err
		}

		if qualification.Type == repository.QualificationPositive {
			rules, matched := applyQuota(campaign.QuotaRules, contact)
			if matched {
				if err := tx.UpdateCampaignQuotaRules(ctx, campaign.ID, rules); err != nil {
					return err
				}
				campaign.QuotaRules = rules
			}
		}

		if err := tx.SetContactStatus(ctx, contact.ID, repository.StatusQualified); err != nil {
			return err
		}

		if err := tx.InsertCallHistory(ctx, repository.CallHistoryRecord{
			ContactID:       contact.ID,
			AgentID:         in.AgentID,
			CampaignID:      campaign.ID,
			QualificationID: qualification.ID,
			StartedAt:       in.StartedAt,
			EndedAt:         in.EndedAt,
			DurationSeconds: int(in.EndedAt.Sub(in.StartedAt) / time.Second),
		}); err != nil {
			return err
		}

		contact.Status = repository.StatusQualified
		result = RecordOutcomeResult{Contact: contact, Campaign: campaign}
		return nil
	})
	if err != nil {
		return nil, mapStoreErr("dialer.RecordOutcome", err)
	}

	s.publish(ctx, events.ChannelDomain, events.TypeCampaignUpdated, result.Campaign)

	return &result, nil
}
