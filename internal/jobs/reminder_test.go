package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"quote-management-api/internal/common"
	"quote-management-api/internal/entity"
	"quote-management-api/internal/notify"
	"quote-management-api/internal/repo/repo_errors"
)

type stubRequestRepo struct {
	stale []entity.QuoteRequest
	err   error
}

func (s *stubRequestRepo) CreateQuoteRequest(context.Context, *entity.CreateQuoteRequestInput) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (s *stubRequestRepo) GetQuoteRequestById(context.Context, string) (*entity.QuoteRequest, error) {
	return nil, repo_errors.ErrNotFound
}

func (s *stubRequestRepo) GetVendorQuoteRequests(context.Context, string, common.RequestStatus, *entity.PaginationInput) ([]entity.QuoteRequest, error) {
	return nil, nil
}

func (s *stubRequestRepo) GetStalePendingRequests(_ context.Context, olderThan time.Time, _ int) ([]entity.QuoteRequest, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]entity.QuoteRequest, 0)
	for _, r := range s.stale {
		if r.CreatedAt.Before(olderThan) {
			out = append(out, r)
		}
	}
	return out, nil
}

type stubVendorRepo struct {
	email string
}

func (s *stubVendorRepo) GetVendorById(_ context.Context, id string) (*entity.Vendor, error) {
	return &entity.Vendor{Id: uuid.MustParse(id), Email: s.email}, nil
}

func (s *stubVendorRepo) DoesVendorExistById(context.Context, string) (bool, error) {
	return true, nil
}

type recordingDispatcher struct {
	sent []notify.Payload
}

func (d *recordingDispatcher) Notify(_ common.NotificationKind, payload notify.Payload) {
	d.sent = append(d.sent, payload)
}

func TestSweepNotifiesOnlyStaleRequests(t *testing.T) {
	stale := entity.QuoteRequest{
		Id:          uuid.New(),
		VendorId:    uuid.New(),
		Status:      common.RequestPending,
		EventType:   "wedding",
		BudgetCents: 800000,
		CreatedAt:   time.Now().Add(-72 * time.Hour),
	}
	fresh := entity.QuoteRequest{
		Id:        uuid.New(),
		VendorId:  uuid.New(),
		Status:    common.RequestPending,
		CreatedAt: time.Now().Add(-time.Hour),
	}

	dispatcher := &recordingDispatcher{}
	r := NewReminder(
		&stubRequestRepo{stale: []entity.QuoteRequest{stale, fresh}},
		&stubVendorRepo{email: "vendor@example.com"},
		dispatcher,
		48*time.Hour,
		zerolog.Nop(),
	)

	r.sweep()

	require.Len(t, dispatcher.sent, 1)
	require.Equal(t, stale.Id.String(), dispatcher.sent[0].QuoteRequestId)
	require.Equal(t, "vendor@example.com", dispatcher.sent[0].RecipientEmail)
	require.Equal(t, int64(800000), dispatcher.sent[0].AmountCents)
}

func TestSweepToleratesRepoFailure(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	r := NewReminder(
		&stubRequestRepo{err: context.DeadlineExceeded},
		&stubVendorRepo{},
		dispatcher,
		48*time.Hour,
		zerolog.Nop(),
	)

	r.sweep()

	require.Empty(t, dispatcher.sent)
}
