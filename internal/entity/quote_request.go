package entity

import (
	"time"

	"github.com/google/uuid"

	"quote-management-api/internal/common"
)

// db model
type QuoteRequest struct {
	Id               uuid.UUID            `json:"id" db:"id"`
	VendorId         uuid.UUID            `json:"vendorId" db:"vendor_id"`
	RequesterId      uuid.UUID            `json:"requesterId" db:"requester_id"`
	Name             string               `json:"name" db:"name"`
	Email            string               `json:"email" db:"email"`
	Status           common.RequestStatus `json:"status" db:"status"`
	Details          string               `json:"details" db:"details"`
	EventType        string               `json:"eventType" db:"event_type"`
	EventDate        time.Time            `json:"eventDate" db:"event_date"`
	BudgetCents      int64                `json:"budgetCents" db:"budget_cents"`
	QuoteAmountCents int64                `json:"quoteAmountCents" db:"quote_amount_cents"`
	CreatedAt        time.Time            `json:"createdAt" db:"created_at"`
}

// service + repo input model
type CreateQuoteRequestInput struct {
	VendorId    string // given
	RequesterId string // given
	Name        string // given
	Email       string // given
	Details     string // given
	EventType   string // given
	EventDate   time.Time
	BudgetCents int64
	// Status should be set: "pending"
	// Id and CreatedAt set automatically
}

// controller model
type QuoteRequestOutputModel struct {
	Id               string `json:"id"`
	VendorId         string `json:"vendorId"`
	RequesterId      string `json:"requesterId"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Status           string `json:"status"`
	Details          string `json:"details"`
	EventType        string `json:"eventType"`
	EventDate        string `json:"eventDate"`
	BudgetCents      int64  `json:"budgetCents"`
	QuoteAmountCents int64  `json:"quoteAmountCents"`
	CreatedAt        string `json:"createdAt"`
}
