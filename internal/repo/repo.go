package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quote-management-api/internal/common"
	"quote-management-api/internal/entity"
	"quote-management-api/internal/repo/pgdb"
	"quote-management-api/pkg/postgres"
)

type Diagnostics interface {
	Ping() error
}

type Vendor interface {
	GetVendorById(ctx context.Context, id string) (*entity.Vendor, error)
	DoesVendorExistById(ctx context.Context, id string) (bool, error)
}

type QuoteRequest interface {
	CreateQuoteRequest(ctx context.Context, input *entity.CreateQuoteRequestInput) (uuid.UUID, error)
	GetQuoteRequestById(ctx context.Context, id string) (*entity.QuoteRequest, error)
	// GetVendorQuoteRequests lists a vendor's requests newest first. An empty
	// status filters nothing.
	GetVendorQuoteRequests(ctx context.Context, vendorId string, status common.RequestStatus, pg *entity.PaginationInput) ([]entity.QuoteRequest, error)
	GetStalePendingRequests(ctx context.Context, olderThan time.Time, limit int) ([]entity.QuoteRequest, error)
}

type Revision interface {
	// CreateDraft inserts a draft revision. The revision number is assigned
	// at creation as one past the count of revisions ever sent for the
	// request and never changes on draft edits.
	CreateDraft(ctx context.Context, input *entity.CreateRevisionInput) (uuid.UUID, error)
	// CreateSentRevision inserts a revision directly in sent state and, in
	// the same transaction, marks the parent request quoted and caches the
	// amount. Returns the id and the assigned revision number.
	CreateSentRevision(ctx context.Context, input *entity.CreateRevisionInput, sentAt time.Time) (uuid.UUID, int, error)
	GetRevisionById(ctx context.Context, id string) (*entity.QuoteRevision, error)
	// GetActiveRevision returns the single draft or sent revision of the
	// request, or repo_errors.ErrNotFound when every revision is settled.
	GetActiveRevision(ctx context.Context, requestId string) (*entity.QuoteRevision, error)
	GetRequestRevisions(ctx context.Context, requestId string, pg *entity.PaginationInput) ([]entity.QuoteRevision, error)
	// UpdateDraft rewrites the fields of a revision iff it is still a draft.
	UpdateDraft(ctx context.Context, id string, fields *entity.QuoteFields) error
	// PromoteDraft moves a draft to sent, re-deriving the revision number
	// and updating the parent request, all in one transaction. Fails with
	// repo_errors.ErrStaleState when the revision is no longer a draft.
	PromoteDraft(ctx context.Context, id string, fields *entity.QuoteFields, sentAt time.Time) (int, error)
	// ReplaceSentRevision retires a still-outstanding sent revision as
	// superseded and inserts its replacement in one transaction, so a failed
	// re-send leaves the old offer standing. Conditional on the old revision
	// still being sent; returns the new id and revision number.
	ReplaceSentRevision(ctx context.Context, supersededId string, input *entity.CreateRevisionInput, sentAt time.Time) (uuid.UUID, int, error)
	// CloseRevision applies the client's decision: revision status, response
	// stamp, client notes, parent request outcome and the optional feedback
	// comment commit atomically. Conditional on the revision being sent.
	CloseRevision(ctx context.Context, input *entity.CloseRevisionInput) error
}

type Comment interface {
	GetRevisionComments(ctx context.Context, revisionId string) ([]entity.QuoteComment, error)
}

type Subscription interface {
	CreateSubscription(ctx context.Context, vendorId string, plan string, paymentToken string, amountCents int64) (uuid.UUID, error)
	GetSubscriptionByPaymentToken(ctx context.Context, token string) (*entity.VendorSubscription, error)
	// ActivateSubscriptionByToken flips a pending subscription to active
	// exactly once; repo_errors.ErrStaleState on replayed notifications.
	ActivateSubscriptionByToken(ctx context.Context, token string, at time.Time) error
}

type Repositories struct {
	Diagnostics
	Vendor
	QuoteRequest
	Revision
	Comment
	Subscription
}

func NewRepositories(p *postgres.Postgres) *Repositories {
	return &Repositories{
		Diagnostics:  pgdb.NewDiagnosticsRepo(p),
		Vendor:       pgdb.NewVendorRepo(p),
		QuoteRequest: pgdb.NewQuoteRequestRepo(p),
		Revision:     pgdb.NewRevisionRepo(p),
		Comment:      pgdb.NewCommentRepo(p),
		Subscription: pgdb.NewSubscriptionRepo(p),
	}
}
