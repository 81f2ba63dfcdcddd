package repository

import (
	"time"

	"github.com/google/uuid"
)

// ContactStatus is the lifecycle position of a contact within one call cycle.
// Status only advances pending → called → qualified; recycling resets
// qualified → pending and stamps a marker into the custom fields.
type ContactStatus string

const (
	StatusPending   ContactStatus = "pending"
	StatusCalled    ContactStatus = "called"
	StatusQualified ContactStatus = "qualified"
)

// QualificationType classifies a call outcome.
type QualificationType string

const (
	QualificationPositive QualificationType = "positive"
	QualificationNegative QualificationType = "negative"
	QualificationNeutral  QualificationType = "neutral"
)

// RecycledAtField is the custom-field key stamped on a contact when a
// recycle pass resets it to pending.
const RecycledAtField = "recycledAt"

// QuotaRule is an ordered condition-plus-counter embedded in a campaign.
// Rules are evaluated in stored order and the first match wins, so the
// slice order is semantically load-bearing and must never be reordered.
type QuotaRule struct {
	ContactField string `json:"contactField"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
	CurrentCount int    `json:"currentCount"`
}

// Quota rule operators.
const (
	OperatorEquals     = "equals"
	OperatorStartsWith = "starts_with"
)

// Campaign is the dialing campaign snapshot the core reads and whose quota
// counters it mutates. Everything else on it is owned by campaign
// administration.
type Campaign struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	DialingMode string      `json:"dialingMode"`
	IsActive    bool        `json:"isActive"`
	QuotaRules  []QuotaRule `json:"quotaRules"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Contact belongs to exactly one campaign for its lifetime.
type Contact struct {
	ID           uuid.UUID         `json:"id"`
	CampaignID   uuid.UUID         `json:"campaignId"`
	PhoneNumber  string            `json:"phoneNumber"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	PostalCode   string            `json:"postalCode"`
	CustomFields map[string]string `json:"customFields"`
	Status       ContactStatus     `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// FieldValue resolves a quota rule's contactField against the contact:
// structured columns first, then the open custom-field map.
func (c Contact) FieldValue(field string) string {
	switch field {
	case "phoneNumber":
		return c.PhoneNumber
	case "firstName":
		return c.FirstName
	case "lastName":
		return c.LastName
	case "postalCode":
		return c.PostalCode
	default:
		return c.CustomFields[field]
	}
}

// Qualification is immutable reference data; read-only to the core.
type Qualification struct {
	ID           uuid.UUID         `json:"id"`
	Code         string            `json:"code"`
	Type         QualificationType `json:"type"`
	IsRecyclable bool              `json:"isRecyclable"`
	GroupName    *string           `json:"groupName,omitempty"`
}

// CallHistoryRecord is one row of the append-only audit log. The most recent
// record by start timestamp determines a contact's current outcome for
// recycling purposes.
type CallHistoryRecord struct {
	ID              uuid.UUID `json:"id"`
	ContactID       uuid.UUID `json:"contactId"`
	AgentID         uuid.UUID `json:"agentId"`
	CampaignID      uuid.UUID `json:"campaignId"`
	QualificationID uuid.UUID `json:"qualificationId"`
	StartedAt       time.Time `json:"startedAt"`
	EndedAt         time.Time `json:"endedAt"`
	DurationSeconds int       `json:"durationSeconds"`
}

// ContactLease is the result of a successful lease: the claimed contact plus
// a snapshot of its owning campaign.
type ContactLease struct {
	Contact  Contact  `json:"contact"`
	Campaign Campaign `json:"campaign"`
}

// NewContactParams describes one contact row for bulk import.
type NewContactParams struct {
	PhoneNumber  string
	FirstName    string
	LastName     string
	PostalCode   string
	CustomFields map[string]string
}
