package service

import (
	"context"

	"github.com/rs/zerolog"

	"quote-management-api/internal/common"
	"quote-management-api/internal/entity"
	"quote-management-api/internal/metrics"
	"quote-management-api/internal/notify"
	"quote-management-api/internal/repo"
)

type Diagnostics interface {
	Ping() error
}

type Quote interface {
	CreateQuoteRequest(ctx context.Context, input *entity.CreateQuoteRequestInput) (*entity.QuoteRequestOutputModel, error)
	GetQuoteRequestById(ctx context.Context, requestId string, actorId string) (*entity.QuoteRequestOutputModel, error)
	ListVendorQuoteRequests(ctx context.Context, vendorId string, status string, pg *entity.PaginationInput) ([]entity.QuoteRequestOutputModel, error)

	CreateOrUpdateDraft(ctx context.Context, requestId string, vendorId string, fields *entity.QuoteFields) (string, error)
	SendQuote(ctx context.Context, requestId string, vendorId string, fields *entity.QuoteFields) (string, error)
	RespondToQuote(ctx context.Context, revisionId string, responderId string, decision common.Decision, feedback string) error

	ActiveRevision(ctx context.Context, requestId string, actorId string) (*entity.RevisionOutputModel, error)
	ListRevisions(ctx context.Context, requestId string, actorId string, pg *entity.PaginationInput) ([]entity.RevisionOutputModel, error)
	ListComments(ctx context.Context, revisionId string, actorId string) ([]entity.CommentOutputModel, error)
}

type Services struct {
	Diagnostics Diagnostics
	Quote       Quote
}

func NewServices(repos *repo.Repositories, dispatcher notify.Dispatcher, log zerolog.Logger, m *metrics.Metrics) *Services {
	return &Services{
		Diagnostics: NewDiagnosticsService(repos),
		Quote:       NewQuoteService(repos, dispatcher, log, m),
	}
}
