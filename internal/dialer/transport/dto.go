// Package transport defines the HTTP request/response shapes for the dialer.
package transport

import "time"

// QualifyContactRequest finalizes a contact's outcome.
type QualifyContactRequest struct {
	CampaignID      string     `json:"campaignId" binding:"required,uuid"`
	QualificationID string     `json:"qualificationId" binding:"required,uuid"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
}

// RecycleRequest requeues contacts whose latest outcome matches the
// qualification. When RunAt is set the recycle is deferred to the scheduler.
type RecycleRequest struct {
	QualificationID string     `json:"qualificationId" binding:"required,uuid"`
	RunAt           *time.Time `json:"runAt,omitempty"`
}

// RecycleResponse reports the outcome of a recycle request.
type RecycleResponse struct {
	Affected  int64 `json:"affected"`
	Scheduled bool  `json:"scheduled,omitempty"`
}

// ImportContactRow is one contact submitted for bulk import.
type ImportContactRow struct {
	PhoneNumber  string            `json:"phoneNumber" binding:"required"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	PostalCode   string            `json:"postalCode"`
	CustomFields map[string]string `json:"customFields"`
}

// ImportContactsRequest bulk-loads contacts into a campaign.
type ImportContactsRequest struct {
	Contacts []ImportContactRow `json:"contacts" binding:"required,min=1,dive"`
}

// ImportContactsResponse reports how many contacts were inserted.
type ImportContactsResponse struct {
	Imported int `json:"imported"`
}
