package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"quote-management-api/internal/common"
	"quote-management-api/internal/entity"
	"quote-management-api/internal/metrics"
	"quote-management-api/internal/notify"
	"quote-management-api/internal/repo"
	"quote-management-api/internal/repo/repo_errors"
)

// fakeStore is an in-memory stand-in for the postgres repositories that
// mirrors their conditional-update semantics.
type fakeStore struct {
	requests  map[string]*entity.QuoteRequest
	revisions map[string]*entity.QuoteRevision
	comments  []entity.QuoteComment
	vendors   map[string]*entity.Vendor

	// injectable failures
	replaceErr     error
	createDraftErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests:  make(map[string]*entity.QuoteRequest),
		revisions: make(map[string]*entity.QuoteRevision),
		vendors:   make(map[string]*entity.Vendor),
	}
}

func (f *fakeStore) addVendor(email string) string {
	id := uuid.New()
	f.vendors[id.String()] = &entity.Vendor{Id: id, Name: "vendor", Email: email, Active: true}
	return id.String()
}

func (f *fakeStore) GetVendorById(_ context.Context, id string) (*entity.Vendor, error) {
	v, ok := f.vendors[id]
	if !ok {
		return nil, repo_errors.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) DoesVendorExistById(_ context.Context, id string) (bool, error) {
	_, ok := f.vendors[id]
	return ok, nil
}

func (f *fakeStore) CreateQuoteRequest(_ context.Context, input *entity.CreateQuoteRequestInput) (uuid.UUID, error) {
	id := uuid.New()
	f.requests[id.String()] = &entity.QuoteRequest{
		Id:          id,
		VendorId:    uuid.MustParse(input.VendorId),
		RequesterId: uuid.MustParse(input.RequesterId),
		Name:        input.Name,
		Email:       input.Email,
		Status:      common.RequestPending,
		Details:     input.Details,
		EventType:   input.EventType,
		EventDate:   input.EventDate,
		BudgetCents: input.BudgetCents,
		CreatedAt:   time.Now(),
	}
	return id, nil
}

func (f *fakeStore) GetQuoteRequestById(_ context.Context, id string) (*entity.QuoteRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, repo_errors.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) GetVendorQuoteRequests(_ context.Context, vendorId string, status common.RequestStatus, _ *entity.PaginationInput) ([]entity.QuoteRequest, error) {
	out := make([]entity.QuoteRequest, 0)
	for _, r := range f.requests {
		if r.VendorId.String() != vendorId {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeStore) GetStalePendingRequests(_ context.Context, olderThan time.Time, _ int) ([]entity.QuoteRequest, error) {
	out := make([]entity.QuoteRequest, 0)
	for _, r := range f.requests {
		if r.Status == common.RequestPending && r.CreatedAt.Before(olderThan) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) sentCount(requestId string) int {
	n := 0
	for _, r := range f.revisions {
		if r.QuoteRequestId.String() == requestId && r.Status != common.RevisionDraft {
			n++
		}
	}
	return n
}

func (f *fakeStore) CreateDraft(_ context.Context, input *entity.CreateRevisionInput) (uuid.UUID, error) {
	if f.createDraftErr != nil {
		return uuid.Nil, f.createDraftErr
	}
	id := uuid.New()
	f.revisions[id.String()] = &entity.QuoteRevision{
		Id:             id,
		QuoteRequestId: uuid.MustParse(input.QuoteRequestId),
		VendorId:       uuid.MustParse(input.VendorId),
		AmountCents:    input.Fields.AmountCents,
		Description:    input.Fields.Description,
		Terms:          input.Fields.Terms,
		ValidityDays:   input.Fields.ValidityDays,
		Notes:          input.Fields.InternalNotes,
		RevisionNumber: f.sentCount(input.QuoteRequestId) + 1,
		Status:         common.RevisionDraft,
		CreatedAt:      time.Now(),
	}
	return id, nil
}

func (f *fakeStore) CreateSentRevision(_ context.Context, input *entity.CreateRevisionInput, sentAt time.Time) (uuid.UUID, int, error) {
	id := uuid.New()
	number := f.sentCount(input.QuoteRequestId) + 1
	f.revisions[id.String()] = &entity.QuoteRevision{
		Id:             id,
		QuoteRequestId: uuid.MustParse(input.QuoteRequestId),
		VendorId:       uuid.MustParse(input.VendorId),
		AmountCents:    input.Fields.AmountCents,
		Description:    input.Fields.Description,
		Terms:          input.Fields.Terms,
		ValidityDays:   input.Fields.ValidityDays,
		Notes:          input.Fields.InternalNotes,
		RevisionNumber: number,
		Status:         common.RevisionSent,
		CreatedAt:      time.Now(),
		SentAt:         &sentAt,
	}
	request := f.requests[input.QuoteRequestId]
	request.Status = common.RequestQuoted
	request.QuoteAmountCents = input.Fields.AmountCents
	return id, number, nil
}

func (f *fakeStore) GetRevisionById(_ context.Context, id string) (*entity.QuoteRevision, error) {
	r, ok := f.revisions[id]
	if !ok {
		return nil, repo_errors.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) GetActiveRevision(_ context.Context, requestId string) (*entity.QuoteRevision, error) {
	for _, r := range f.revisions {
		if r.QuoteRequestId.String() == requestId &&
			(r.Status == common.RevisionDraft || r.Status == common.RevisionSent) {
			return r, nil
		}
	}
	return nil, repo_errors.ErrNotFound
}

func (f *fakeStore) GetRequestRevisions(_ context.Context, requestId string, _ *entity.PaginationInput) ([]entity.QuoteRevision, error) {
	out := make([]entity.QuoteRevision, 0)
	for _, r := range f.revisions {
		if r.QuoteRequestId.String() == requestId {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RevisionNumber > out[j].RevisionNumber })
	return out, nil
}

func (f *fakeStore) UpdateDraft(_ context.Context, id string, fields *entity.QuoteFields) error {
	r, ok := f.revisions[id]
	if !ok || r.Status != common.RevisionDraft {
		return repo_errors.ErrStaleState
	}
	r.AmountCents = fields.AmountCents
	r.Description = fields.Description
	r.Terms = fields.Terms
	r.ValidityDays = fields.ValidityDays
	r.Notes = fields.InternalNotes
	return nil
}

func (f *fakeStore) PromoteDraft(_ context.Context, id string, fields *entity.QuoteFields, sentAt time.Time) (int, error) {
	r, ok := f.revisions[id]
	if !ok || r.Status != common.RevisionDraft {
		return 0, repo_errors.ErrStaleState
	}
	r.AmountCents = fields.AmountCents
	r.Description = fields.Description
	r.Terms = fields.Terms
	r.ValidityDays = fields.ValidityDays
	r.Notes = fields.InternalNotes
	r.RevisionNumber = f.sentCount(r.QuoteRequestId.String()) + 1
	r.Status = common.RevisionSent
	r.SentAt = &sentAt
	request := f.requests[r.QuoteRequestId.String()]
	request.Status = common.RequestQuoted
	request.QuoteAmountCents = fields.AmountCents
	return r.RevisionNumber, nil
}

// ReplaceSentRevision mirrors the transactional repo: on any failure nothing
// is mutated, so the old offer keeps standing.
func (f *fakeStore) ReplaceSentRevision(ctx context.Context, supersededId string, input *entity.CreateRevisionInput, sentAt time.Time) (uuid.UUID, int, error) {
	old, ok := f.revisions[supersededId]
	if !ok || old.Status != common.RevisionSent {
		return uuid.Nil, 0, repo_errors.ErrStaleState
	}
	if f.replaceErr != nil {
		return uuid.Nil, 0, f.replaceErr
	}
	old.Status = common.RevisionSuperseded
	return f.CreateSentRevision(ctx, input, sentAt)
}

func (f *fakeStore) CloseRevision(_ context.Context, input *entity.CloseRevisionInput) error {
	r, ok := f.revisions[input.RevisionId]
	if !ok || r.Status != common.RevisionSent {
		return repo_errors.ErrStaleState
	}
	r.Status = input.RevisionStatus
	r.ClientNotes = input.ClientNotes
	respondedAt := input.RespondedAt
	r.RespondedAt = &respondedAt
	f.requests[input.QuoteRequestId].Status = input.RequestStatus
	if input.ClientNotes != "" {
		f.comments = append(f.comments, entity.QuoteComment{
			Id:         uuid.New(),
			RevisionId: uuid.MustParse(input.RevisionId),
			AuthorId:   uuid.MustParse(input.ResponderId),
			Body:       input.ClientNotes,
			Internal:   false,
			CreatedAt:  time.Now(),
		})
	}
	return nil
}

func (f *fakeStore) GetRevisionComments(_ context.Context, revisionId string) ([]entity.QuoteComment, error) {
	out := make([]entity.QuoteComment, 0)
	for _, c := range f.comments {
		if c.RevisionId.String() == revisionId {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) activeCount(requestId string) int {
	n := 0
	for _, r := range f.revisions {
		if r.QuoteRequestId.String() == requestId &&
			(r.Status == common.RevisionDraft || r.Status == common.RevisionSent) {
			n++
		}
	}
	return n
}

type recordedNotification struct {
	kind    common.NotificationKind
	payload notify.Payload
}

type recordingDispatcher struct {
	sent []recordedNotification
}

func (d *recordingDispatcher) Notify(kind common.NotificationKind, payload notify.Payload) {
	d.sent = append(d.sent, recordedNotification{kind: kind, payload: payload})
}

func (d *recordingDispatcher) kinds() []common.NotificationKind {
	out := make([]common.NotificationKind, 0, len(d.sent))
	for _, n := range d.sent {
		out = append(out, n.kind)
	}
	return out
}

type testEnv struct {
	svc         *QuoteService
	store       *fakeStore
	dispatcher  *recordingDispatcher
	vendorId    string
	requesterId string
	requestId   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newFakeStore()
	dispatcher := &recordingDispatcher{}
	repos := &repo.Repositories{
		QuoteRequest: store,
		Revision:     store,
		Vendor:       store,
		Comment:      store,
	}
	svc := NewQuoteService(repos, dispatcher, zerolog.Nop(), metrics.New(prometheus.NewRegistry()))

	vendorId := store.addVendor("vendor@example.com")
	requesterId := uuid.NewString()
	out, err := svc.CreateQuoteRequest(context.Background(), &entity.CreateQuoteRequestInput{
		VendorId:    vendorId,
		RequesterId: requesterId,
		Name:        "Thandi M",
		Email:       "client@example.com",
		Details:     "150 guests, outdoor ceremony",
		EventType:   "wedding",
		EventDate:   time.Now().AddDate(0, 3, 0),
		BudgetCents: 800000,
	})
	require.NoError(t, err)

	return &testEnv{
		svc:         svc,
		store:       store,
		dispatcher:  dispatcher,
		vendorId:    vendorId,
		requesterId: requesterId,
		requestId:   out.Id,
	}
}

func fields(amountCents int64, description string) *entity.QuoteFields {
	return &entity.QuoteFields{
		AmountCents:  amountCents,
		Description:  description,
		Terms:        "50% deposit",
		ValidityDays: 7,
	}
}

func TestCreateQuoteRequestUnknownVendor(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateQuoteRequest(context.Background(), &entity.CreateQuoteRequestInput{
		VendorId:    uuid.NewString(),
		RequesterId: env.requesterId,
		Name:        "Someone",
		Email:       "someone@example.com",
		EventType:   "birthday",
		EventDate:   time.Now(),
	})

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "vendor", notFound.Resource)
}

func TestSendQuoteFirstRevision(t *testing.T) {
	env := newTestEnv(t)

	revisionId, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)

	revision := env.store.revisions[revisionId]
	require.Equal(t, 1, revision.RevisionNumber)
	require.Equal(t, common.RevisionSent, revision.Status)
	require.NotNil(t, revision.SentAt)

	request := env.store.requests[env.requestId]
	require.Equal(t, common.RequestQuoted, request.Status)
	require.Equal(t, int64(500000), request.QuoteAmountCents)

	require.Equal(t, []common.NotificationKind{common.NotifyQuoteCreatedClient}, env.dispatcher.kinds())
	require.Equal(t, "client@example.com", env.dispatcher.sent[0].payload.RecipientEmail)
	require.Equal(t, int64(500000), env.dispatcher.sent[0].payload.AmountCents)
}

func TestSendQuoteValidation(t *testing.T) {
	env := newTestEnv(t)

	var validation *ValidationError

	_, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(0, "Venue package"))
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "amount", validation.Field)

	_, err = env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(500000, ""))
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "description", validation.Field)

	require.Empty(t, env.dispatcher.sent)
	require.Equal(t, common.RequestPending, env.store.requests[env.requestId].Status)
}

func TestSendQuoteOwnership(t *testing.T) {
	env := newTestEnv(t)
	otherVendor := env.store.addVendor("other@example.com")

	var authErr *AuthorizationError

	_, err := env.svc.SendQuote(context.Background(), env.requestId, otherVendor, fields(500000, "Venue package"))
	require.ErrorAs(t, err, &authErr)

	_, err = env.svc.CreateOrUpdateDraft(context.Background(), env.requestId, otherVendor, fields(500000, "Venue package"))
	require.ErrorAs(t, err, &authErr)
}

func TestDraftUpsert(t *testing.T) {
	env := newTestEnv(t)

	firstId, err := env.svc.CreateOrUpdateDraft(context.Background(), env.requestId, env.vendorId, fields(400000, "First pass"))
	require.NoError(t, err)

	secondId, err := env.svc.CreateOrUpdateDraft(context.Background(), env.requestId, env.vendorId, fields(450000, "Second pass"))
	require.NoError(t, err)
	require.Equal(t, firstId, secondId, "draft edits must reuse the existing draft")

	revision := env.store.revisions[firstId]
	require.Equal(t, common.RevisionDraft, revision.Status)
	require.Equal(t, int64(450000), revision.AmountCents)
	require.Equal(t, 1, revision.RevisionNumber, "draft edits never consume a new revision number")

	// drafts are invisible: no notification, request untouched
	require.Empty(t, env.dispatcher.sent)
	require.Equal(t, common.RequestPending, env.store.requests[env.requestId].Status)
}

func TestDraftPromotionConsumesNoExtraSlot(t *testing.T) {
	env := newTestEnv(t)

	draftId, err := env.svc.CreateOrUpdateDraft(context.Background(), env.requestId, env.vendorId, fields(400000, "Draft"))
	require.NoError(t, err)

	sentId, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(400000, "Venue package"))
	require.NoError(t, err)
	require.Equal(t, draftId, sentId, "send must promote the existing draft")
	require.Equal(t, 1, env.store.revisions[sentId].RevisionNumber,
		"promotion must yield the same number a direct send would have")
	require.Equal(t, []common.NotificationKind{common.NotifyQuoteCreatedClient}, env.dispatcher.kinds())
}

func TestDraftBlockedWhileQuoteOutstanding(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)

	_, err = env.svc.CreateOrUpdateDraft(context.Background(), env.requestId, env.vendorId, fields(400000, "New draft"))
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, ReasonNotActive, stateErr.Reason)
}

func TestSendQuoteTwiceIncreasesNumbers(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)
	second, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(450000, "Venue package, revised"))
	require.NoError(t, err)
	third, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(420000, "Final offer"))
	require.NoError(t, err)

	require.Equal(t, 1, env.store.revisions[first].RevisionNumber)
	require.Equal(t, 2, env.store.revisions[second].RevisionNumber)
	require.Equal(t, 3, env.store.revisions[third].RevisionNumber)

	// earlier offers are superseded, only the newest is active
	require.Equal(t, common.RevisionSuperseded, env.store.revisions[first].Status)
	require.Equal(t, common.RevisionSuperseded, env.store.revisions[second].Status)
	require.Equal(t, 1, env.store.activeCount(env.requestId))

	// the request always surfaces the latest sent amount
	require.Equal(t, int64(420000), env.store.requests[env.requestId].QuoteAmountCents)

	require.Equal(t, []common.NotificationKind{
		common.NotifyQuoteCreatedClient,
		common.NotifyQuoteRevisedClient,
		common.NotifyQuoteRevisedClient,
	}, env.dispatcher.kinds())
}

func TestRespondAcceptFinalisesRequest(t *testing.T) {
	env := newTestEnv(t)

	revisionId, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)

	err = env.svc.RespondToQuote(context.Background(), revisionId, env.requesterId, common.DecisionAccept, "see you in June")
	require.NoError(t, err)

	revision := env.store.revisions[revisionId]
	require.Equal(t, common.RevisionAccepted, revision.Status)
	require.NotNil(t, revision.RespondedAt)
	require.Equal(t, "see you in June", revision.ClientNotes)

	// request-level vocabulary differs from the revision's on purpose
	require.Equal(t, common.RequestFinalised, env.store.requests[env.requestId].Status)

	require.Len(t, env.store.comments, 1)
	require.False(t, env.store.comments[0].Internal)

	last := env.dispatcher.sent[len(env.dispatcher.sent)-1]
	require.Equal(t, common.NotifyQuoteAcceptedVendor, last.kind)
	require.Equal(t, "vendor@example.com", last.payload.RecipientEmail)
}

func TestRejectThenRequote(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)

	err = env.svc.RespondToQuote(context.Background(), first, env.requesterId, common.DecisionReject, "too expensive")
	require.NoError(t, err)

	require.Equal(t, common.RevisionRejected, env.store.revisions[first].Status)
	require.Equal(t, common.RequestRejected, env.store.requests[env.requestId].Status)
	require.Len(t, env.store.comments, 1)
	require.Equal(t, "too expensive", env.store.comments[0].Body)
	require.Equal(t, common.NotifyQuoteRejectedVendor, env.dispatcher.sent[len(env.dispatcher.sent)-1].kind)

	second, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(400000, "Venue package, trimmed"))
	require.NoError(t, err)

	require.Equal(t, 2, env.store.revisions[second].RevisionNumber)
	require.Equal(t, common.RequestQuoted, env.store.requests[env.requestId].Status)
	require.Equal(t, int64(400000), env.store.requests[env.requestId].QuoteAmountCents)
	require.Equal(t, common.NotifyQuoteRevisedClient, env.dispatcher.sent[len(env.dispatcher.sent)-1].kind)
}

func TestRejectRequiresFeedback(t *testing.T) {
	env := newTestEnv(t)

	revisionId, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)
	notifications := len(env.dispatcher.sent)

	err = env.svc.RespondToQuote(context.Background(), revisionId, env.requesterId, common.DecisionReject, "")
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "feedback", validation.Field)

	// nothing moved
	require.Equal(t, common.RevisionSent, env.store.revisions[revisionId].Status)
	require.Equal(t, common.RequestQuoted, env.store.requests[env.requestId].Status)
	require.Empty(t, env.store.comments)
	require.Len(t, env.dispatcher.sent, notifications)
}

func TestRespondTwiceFails(t *testing.T) {
	env := newTestEnv(t)

	revisionId, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)

	require.NoError(t, env.svc.RespondToQuote(context.Background(), revisionId, env.requesterId, common.DecisionAccept, ""))

	err = env.svc.RespondToQuote(context.Background(), revisionId, env.requesterId, common.DecisionAccept, "")
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, ReasonAlreadyResponded, stateErr.Reason)
}

func TestRespondAuthorization(t *testing.T) {
	env := newTestEnv(t)

	revisionId, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)

	err = env.svc.RespondToQuote(context.Background(), revisionId, uuid.NewString(), common.DecisionAccept, "")
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestRespondToExpiredQuote(t *testing.T) {
	env := newTestEnv(t)

	revisionId, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)

	// backdate past the validity window
	env.store.revisions[revisionId].CreatedAt = time.Now().AddDate(0, 0, -10)

	err = env.svc.RespondToQuote(context.Background(), revisionId, env.requesterId, common.DecisionAccept, "")
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, ReasonExpired, stateErr.Reason)
	require.Equal(t, common.RevisionSent, env.store.revisions[revisionId].Status)
}

func TestRespondToSupersededQuote(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)
	_, err = env.svc.SendQuote(context.Background(), env.requestId, env.vendorId, fields(450000, "Venue package, revised"))
	require.NoError(t, err)

	err = env.svc.RespondToQuote(context.Background(), first, env.requesterId, common.DecisionAccept, "")
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, ReasonNotActive, stateErr.Reason)
}

func TestActiveRevision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	active, err := env.svc.ActiveRevision(ctx, env.requestId, env.vendorId)
	require.NoError(t, err)
	require.Nil(t, active, "no revisions yet")

	revisionId, err := env.svc.SendQuote(ctx, env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)

	active, err = env.svc.ActiveRevision(ctx, env.requestId, env.vendorId)
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, revisionId, active.Id)

	require.NoError(t, env.svc.RespondToQuote(ctx, revisionId, env.requesterId, common.DecisionAccept, ""))

	active, err = env.svc.ActiveRevision(ctx, env.requestId, env.vendorId)
	require.NoError(t, err)
	require.Nil(t, active, "settled revisions are not active")
}

func TestActiveRevisionInvariantHeldAcrossOperations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreateOrUpdateDraft(ctx, env.requestId, env.vendorId, fields(400000, "Draft"))
	require.NoError(t, err)
	require.Equal(t, 1, env.store.activeCount(env.requestId))

	_, err = env.svc.SendQuote(ctx, env.requestId, env.vendorId, fields(400000, "Offer"))
	require.NoError(t, err)
	require.Equal(t, 1, env.store.activeCount(env.requestId))

	second, err := env.svc.SendQuote(ctx, env.requestId, env.vendorId, fields(380000, "Offer, revised"))
	require.NoError(t, err)
	require.Equal(t, 1, env.store.activeCount(env.requestId))

	require.NoError(t, env.svc.RespondToQuote(ctx, second, env.requesterId, common.DecisionReject, "still too much"))
	require.Equal(t, 0, env.store.activeCount(env.requestId))
}

func TestResendFailureLeavesOfferStanding(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.SendQuote(ctx, env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)
	notifications := len(env.dispatcher.sent)

	env.store.replaceErr = errors.New("insert failed")
	_, err = env.svc.SendQuote(ctx, env.requestId, env.vendorId, fields(450000, "Venue package, revised"))
	require.Error(t, err)

	// the replacement never committed, so the client still has the offer
	require.Equal(t, common.RevisionSent, env.store.revisions[first].Status)
	require.Equal(t, 1, env.store.activeCount(env.requestId))
	require.Equal(t, int64(500000), env.store.requests[env.requestId].QuoteAmountCents)
	require.Len(t, env.dispatcher.sent, notifications)

	// and can still respond to it
	require.NoError(t, env.svc.RespondToQuote(ctx, first, env.requesterId, common.DecisionAccept, ""))
}

func TestDraftCreationRaceReportsNotActive(t *testing.T) {
	env := newTestEnv(t)

	// the loser of two concurrent first drafts hits the unique index on
	// active revisions after its own active check passed
	env.store.createDraftErr = repo_errors.ErrStaleState

	_, err := env.svc.CreateOrUpdateDraft(context.Background(), env.requestId, env.vendorId, fields(400000, "Draft"))
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, ReasonNotActive, stateErr.Reason)
}

func TestFinalisedRequestCannotBeRequoted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	revisionId, err := env.svc.SendQuote(ctx, env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)
	require.NoError(t, env.svc.RespondToQuote(ctx, revisionId, env.requesterId, common.DecisionAccept, ""))

	var stateErr *InvalidStateError

	_, err = env.svc.SendQuote(ctx, env.requestId, env.vendorId, fields(450000, "Another offer"))
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, ReasonAlreadyResponded, stateErr.Reason)

	_, err = env.svc.CreateOrUpdateDraft(ctx, env.requestId, env.vendorId, fields(450000, "Another draft"))
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, ReasonAlreadyResponded, stateErr.Reason)

	// the closed deal is untouched
	require.Equal(t, common.RequestFinalised, env.store.requests[env.requestId].Status)
	require.Equal(t, int64(500000), env.store.requests[env.requestId].QuoteAmountCents)
}

func TestRejectedRequestCanBeRequoted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.SendQuote(ctx, env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)
	require.NoError(t, env.svc.RespondToQuote(ctx, first, env.requesterId, common.DecisionReject, "too expensive"))

	second, err := env.svc.SendQuote(ctx, env.requestId, env.vendorId, fields(400000, "Venue package, trimmed"))
	require.NoError(t, err)
	require.Equal(t, 2, env.store.revisions[second].RevisionNumber)
	require.Equal(t, common.RequestQuoted, env.store.requests[env.requestId].Status)
}

func TestInternalCommentsVisibleToVendorOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	revisionId, err := env.svc.SendQuote(ctx, env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)
	require.NoError(t, env.svc.RespondToQuote(ctx, revisionId, env.requesterId, common.DecisionAccept, "looks good"))

	env.store.comments = append(env.store.comments, entity.QuoteComment{
		Id:         uuid.New(),
		RevisionId: uuid.MustParse(revisionId),
		AuthorId:   uuid.MustParse(env.vendorId),
		Body:       "margin is tight on this one",
		Internal:   true,
		CreatedAt:  time.Now(),
	})

	vendorView, err := env.svc.ListComments(ctx, revisionId, env.vendorId)
	require.NoError(t, err)
	require.Len(t, vendorView, 2)

	clientView, err := env.svc.ListComments(ctx, revisionId, env.requesterId)
	require.NoError(t, err)
	require.Len(t, clientView, 1)
	require.Equal(t, "looks good", clientView[0].Body)
}

func TestInternalNotesHiddenFromRequester(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := fields(500000, "Venue package")
	f.InternalNotes = "client haggles, start high"
	_, err := env.svc.SendQuote(ctx, env.requestId, env.vendorId, f)
	require.NoError(t, err)

	vendorView, err := env.svc.ListRevisions(ctx, env.requestId, env.vendorId, entity.NewPaginationInput(10, 0))
	require.NoError(t, err)
	require.Equal(t, "client haggles, start high", vendorView[0].Notes)

	clientView, err := env.svc.ListRevisions(ctx, env.requestId, env.requesterId, entity.NewPaginationInput(10, 0))
	require.NoError(t, err)
	require.Empty(t, clientView[0].Notes)
}

func TestListVendorQuoteRequestsStatusFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pending, err := env.svc.ListVendorQuoteRequests(ctx, env.vendorId, "pending", entity.NewPaginationInput(10, 0))
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = env.svc.ListVendorQuoteRequests(ctx, env.vendorId, "bogus", entity.NewPaginationInput(10, 0))
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "status", validation.Field)
}

func TestCloseRevisionRaceReportsAlreadyResponded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	revisionId, err := env.svc.SendQuote(ctx, env.requestId, env.vendorId, fields(500000, "Venue package"))
	require.NoError(t, err)

	require.NoError(t, env.svc.RespondToQuote(ctx, revisionId, env.requesterId, common.DecisionAccept, ""))

	// the loser of two concurrent responses hits the conditional update after
	// the revision has already left sent
	err = env.store.CloseRevision(ctx, &entity.CloseRevisionInput{
		RevisionId:     revisionId,
		QuoteRequestId: env.requestId,
		RevisionStatus: common.RevisionRejected,
		RequestStatus:  common.RequestRejected,
		ResponderId:    env.requesterId,
		RespondedAt:    time.Now(),
	})
	require.True(t, errors.Is(err, repo_errors.ErrStaleState))
}
