package entity

import (
	"time"

	"github.com/google/uuid"

	"quote-management-api/internal/common"
)

// db model
type QuoteRevision struct {
	Id             uuid.UUID             `json:"id" db:"id"`
	QuoteRequestId uuid.UUID             `json:"quoteRequestId" db:"quote_request_id"`
	VendorId       uuid.UUID             `json:"vendorId" db:"vendor_id"`
	AmountCents    int64                 `json:"amountCents" db:"amount_cents"`
	Description    string                `json:"description" db:"description"`
	Terms          string                `json:"terms" db:"terms"`
	ValidityDays   int                   `json:"validityDays" db:"validity_days"`
	RevisionNumber int                   `json:"revisionNumber" db:"revision_number"`
	Status         common.RevisionStatus `json:"status" db:"status"`
	Notes          string                `json:"-" db:"notes"` // vendor-internal, never shown to client
	ClientNotes    string                `json:"clientNotes" db:"client_notes"`
	CreatedAt      time.Time             `json:"createdAt" db:"created_at"`
	SentAt         *time.Time            `json:"sentAt" db:"sent_at"`
	RespondedAt    *time.Time            `json:"respondedAt" db:"responded_at"`
}

// ExpiresAt is the instant after which a sent revision can no longer be
// accepted or rejected.
func (r *QuoteRevision) ExpiresAt() time.Time {
	return r.CreatedAt.AddDate(0, 0, r.ValidityDays)
}

// Expired reports whether the revision is past its validity window. Only
// sent revisions expire; at the exact boundary instant the revision is
// still valid.
func (r *QuoteRevision) Expired(now time.Time) bool {
	if r.Status != common.RevisionSent {
		return false
	}

	return now.After(r.ExpiresAt())
}

// service + repo input model
type QuoteFields struct {
	AmountCents   int64
	Description   string
	Terms         string
	ValidityDays  int
	InternalNotes string
}

type CreateRevisionInput struct {
	QuoteRequestId string
	VendorId       string
	Fields         QuoteFields
	Status         common.RevisionStatus // draft or sent
}

type CloseRevisionInput struct {
	RevisionId     string
	QuoteRequestId string
	RevisionStatus common.RevisionStatus // accepted or rejected
	RequestStatus  common.RequestStatus  // finalised or rejected
	ClientNotes    string
	ResponderId    string
	RespondedAt    time.Time
}

// controller model
type RevisionOutputModel struct {
	Id             string `json:"id"`
	QuoteRequestId string `json:"quoteRequestId"`
	AmountCents    int64  `json:"amountCents"`
	Description    string `json:"description"`
	Terms          string `json:"terms"`
	ValidityDays   int    `json:"validityDays"`
	RevisionNumber int    `json:"revisionNumber"`
	Status         string `json:"status"`
	Notes          string `json:"notes,omitempty"`
	ClientNotes    string `json:"clientNotes,omitempty"`
	CreatedAt      string `json:"createdAt"`
	ExpiresAt      string `json:"expiresAt,omitempty"`
	RespondedAt    string `json:"respondedAt,omitempty"`
}
