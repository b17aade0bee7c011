package entity

import (
	"time"

	"github.com/google/uuid"

	"quote-management-api/internal/common"
)

type Vendor struct {
	Id        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

// VendorSubscription is a billing record activated by the payment gateway's
// server-to-server notification once the checkout completes.
type VendorSubscription struct {
	Id           uuid.UUID                 `db:"id"`
	VendorId     uuid.UUID                 `db:"vendor_id"`
	Plan         string                    `db:"plan"`
	Status       common.SubscriptionStatus `db:"status"`
	PaymentToken string                    `db:"payment_token"`
	AmountCents  int64                     `db:"amount_cents"`
	CreatedAt    time.Time                 `db:"created_at"`
	ActivatedAt  *time.Time                `db:"activated_at"`
}
