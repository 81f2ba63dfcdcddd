package service

import (
	"context"

	"contactcenter_backend/internal/events"

	"github.com/google/uuid"
)

// Recycle resets every contact of the campaign whose most recent outcome is
// the given qualification back to pending, provided the qualification is
// flagged recyclable. Contacts in flight ('called') are never touched and
// re-running the same recycle affects zero rows. Publishes the refreshed
// campaign snapshot and a recycle hint only when something actually changed.
func (s *Service) Recycle(ctx context.Context, campaignID, qualificationID uuid.UUID) (int64, error) {
	affected, err := s.store.Recycle(ctx, campaignID, qualificationID)
	if err != nil {
		return 0, mapStoreErr("dialer.Recycle", err)
	}

	if affected > 0 {
		if campaign, err := s.store.GetCampaign(ctx, campaignID); err != nil {
			s.log.Warn("recycle snapshot read failed", "campaignId", campaignID, "error", err)
		} else {
			s.publish(ctx, events.ChannelDomain, events.TypeCampaignUpdated, campaign)
		}
		s.publish(ctx, events.ChannelDomain, events.TypeContactsRecycled, events.ContactsRecycledPayload{
			CampaignID:      campaignID,
			QualificationID: qualificationID,
			Affected:        affected,
		})
	}

	s.log.Info("recycle complete",
		"campaignId", campaignID,
		"qualificationId", qualificationID,
		"affected", affected,
	)

	return affected, nil
}
