package repository

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence surface consumed by the dialer services.
// The pgx implementation is Repository; tests substitute fakes.
type Store interface {
	// LeaseNextContact claims the next pending contact of a campaign using an
	// exclusive, non-blocking row lock that skips rows already claimed by a
	// concurrent caller, and marks it called within the same transaction.
	// Returns (nil, nil) when no contact is pending — a normal outcome.
	LeaseNextContact(ctx context.Context, campaignID uuid.UUID) (*ContactLease, error)

	// Recycle resets every qualified contact of the campaign whose most recent
	// call-history record references the given recyclable qualification back to
	// pending, as one set-based statement. Returns the number of rows affected.
	Recycle(ctx context.Context, campaignID, qualificationID uuid.UUID) (int64, error)

	// InsertContacts bulk-inserts pending contacts into a campaign.
	InsertContacts(ctx context.Context, campaignID uuid.UUID, rows []NewContactParams) (int, error)

	// GetCampaign reads a campaign snapshot outside any transaction.
	GetCampaign(ctx context.Context, id uuid.UUID) (Campaign, error)

	// WithinTx runs fn inside a single transaction. A non-nil error from fn
	// rolls everything back; otherwise the transaction commits.
	WithinTx(ctx context.Context, fn func(tx TxStore) error) error
}

// TxStore exposes the row-level operations available inside a transaction.
// The qualification recorder composes these into its four-step commit.
type TxStore interface {
	// GetQualification loads outcome reference data.
	GetQualification(ctx context.Context, id uuid.UUID) (Qualification, error)

	// GetCampaignForUpdate loads a campaign and takes an exclusive row lock so
	// concurrent dispositions cannot lose quota-counter updates.
	GetCampaignForUpdate(ctx context.Context, id uuid.UUID) (Campaign, error)

	// GetContact loads a contact row.
	GetContact(ctx context.Context, id uuid.UUID) (Contact, error)

	// UpdateCampaignQuotaRules persists the mutated ordered rule list.
	UpdateCampaignQuotaRules(ctx context.Context, campaignID uuid.UUID, rules []QuotaRule) error

	// SetContactStatus moves a contact to the given status.
	SetContactStatus(ctx context.Context, contactID uuid.UUID, status ContactStatus) error

	// InsertCallHistory appends one immutable audit record.
	InsertCallHistory(ctx context.Context, rec CallHistoryRecord) error
}
