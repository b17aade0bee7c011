package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"quote-management-api/internal/common"
	"quote-management-api/internal/entity"
	"quote-management-api/internal/metrics"
	"quote-management-api/internal/notify"
	"quote-management-api/internal/repo"
	"quote-management-api/internal/repo/repo_errors"
)

const defaultValidityDays = 7

// QuoteService owns the quote negotiation lifecycle: request intake, vendor
// drafts, sending priced revisions, client responses and the notifications
// that follow each committed transition.
type QuoteService struct {
	requestRepo  repo.QuoteRequest
	revisionRepo repo.Revision
	vendorRepo   repo.Vendor
	commentRepo  repo.Comment
	dispatcher   notify.Dispatcher
	log          zerolog.Logger
	metrics      *metrics.Metrics
}

func NewQuoteService(repos *repo.Repositories, dispatcher notify.Dispatcher, log zerolog.Logger, m *metrics.Metrics) *QuoteService {
	return &QuoteService{
		requestRepo:  repos.QuoteRequest,
		revisionRepo: repos.Revision,
		vendorRepo:   repos.Vendor,
		commentRepo:  repos.Comment,
		dispatcher:   dispatcher,
		log:          log.With().Str("component", "quote").Logger(),
		metrics:      m,
	}
}

func (s *QuoteService) CreateQuoteRequest(ctx context.Context, input *entity.CreateQuoteRequestInput) (*entity.QuoteRequestOutputModel, error) {
	exists, err := s.vendorRepo.DoesVendorExistById(ctx, input.VendorId)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &NotFoundError{Resource: "vendor"}
	}

	id, err := s.requestRepo.CreateQuoteRequest(ctx, input)
	if err != nil {
		return nil, err
	}

	request, err := s.requestRepo.GetQuoteRequestById(ctx, id.String())
	if err != nil {
		return nil, err
	}

	s.metrics.Transition("create-request")

	return mapQuoteRequest(request), nil
}

// ownedRequest fetches the request and checks that the acting vendor owns it.
func (s *QuoteService) ownedRequest(ctx context.Context, requestId string, vendorId string) (*entity.QuoteRequest, error) {
	request, err := s.requestRepo.GetQuoteRequestById(ctx, requestId)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, &NotFoundError{Resource: "quote request"}
		}

		return nil, err
	}

	if request.VendorId.String() != vendorId {
		return nil, &AuthorizationError{Resource: "quote request"}
	}

	return request, nil
}

func normalizeFields(fields *entity.QuoteFields) *entity.QuoteFields {
	f := *fields
	if f.ValidityDays <= 0 {
		f.ValidityDays = defaultValidityDays
	}

	return &f
}

// CreateOrUpdateDraft amends the request's existing draft in place, or
// creates one when none exists. Drafts are invisible to the client and fire
// no notification. A revision already sent and awaiting a response blocks
// new drafts; re-quoting over it goes through SendQuote.
func (s *QuoteService) CreateOrUpdateDraft(ctx context.Context, requestId string, vendorId string, fields *entity.QuoteFields) (string, error) {
	request, err := s.ownedRequest(ctx, requestId, vendorId)
	if err != nil {
		return "", err
	}
	if request.Status == common.RequestFinalised {
		return "", &InvalidStateError{Reason: ReasonAlreadyResponded}
	}

	f := normalizeFields(fields)

	active, err := s.revisionRepo.GetActiveRevision(ctx, requestId)
	if err != nil && !errors.Is(err, repo_errors.ErrNotFound) {
		return "", err
	}

	if active != nil {
		if active.Status == common.RevisionSent {
			return "", &InvalidStateError{Reason: ReasonNotActive}
		}

		if err := s.revisionRepo.UpdateDraft(ctx, active.Id.String(), f); err != nil {
			if errors.Is(err, repo_errors.ErrStaleState) {
				return "", &InvalidStateError{Reason: ReasonNotActive}
			}

			return "", err
		}

		s.metrics.Transition("update-draft")

		return active.Id.String(), nil
	}

	id, err := s.revisionRepo.CreateDraft(ctx, &entity.CreateRevisionInput{
		QuoteRequestId: requestId,
		VendorId:       vendorId,
		Fields:         *f,
		Status:         common.RevisionDraft,
	})
	if err != nil {
		if errors.Is(err, repo_errors.ErrStaleState) {
			return "", &InvalidStateError{Reason: ReasonNotActive}
		}

		return "", err
	}

	s.metrics.Transition("create-draft")

	return id.String(), nil
}

// SendQuote makes a priced offer visible to the client. An existing draft is
// promoted in place; a still-outstanding sent revision is superseded by the
// new offer. The parent request flips to quoted with the latest amount
// cached, and the client is notified after the transition commits.
func (s *QuoteService) SendQuote(ctx context.Context, requestId string, vendorId string, fields *entity.QuoteFields) (string, error) {
	request, err := s.ownedRequest(ctx, requestId, vendorId)
	if err != nil {
		return "", err
	}
	// an accepted quote closed the deal; rejection is the only outcome a
	// vendor may quote over again
	if request.Status == common.RequestFinalised {
		return "", &InvalidStateError{Reason: ReasonAlreadyResponded}
	}

	if fields.AmountCents <= 0 {
		return "", &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if fields.Description == "" {
		return "", &ValidationError{Field: "description", Reason: "must not be empty"}
	}

	f := normalizeFields(fields)
	sentAt := time.Now().UTC()

	active, err := s.revisionRepo.GetActiveRevision(ctx, requestId)
	if err != nil && !errors.Is(err, repo_errors.ErrNotFound) {
		return "", err
	}

	var revisionId string
	var revisionNumber int
	switch {
	case active == nil:
		id, number, err := s.revisionRepo.CreateSentRevision(ctx, &entity.CreateRevisionInput{
			QuoteRequestId: requestId,
			VendorId:       vendorId,
			Fields:         *f,
			Status:         common.RevisionSent,
		}, sentAt)
		if err != nil {
			return "", err
		}
		revisionId, revisionNumber = id.String(), number

	case active.Status == common.RevisionDraft:
		number, err := s.revisionRepo.PromoteDraft(ctx, active.Id.String(), f, sentAt)
		if err != nil {
			if errors.Is(err, repo_errors.ErrStaleState) {
				return "", &InvalidStateError{Reason: ReasonNotActive}
			}

			return "", err
		}
		revisionId, revisionNumber = active.Id.String(), number

	default: // a sent revision is outstanding; the new offer replaces it
		id, number, err := s.revisionRepo.ReplaceSentRevision(ctx, active.Id.String(), &entity.CreateRevisionInput{
			QuoteRequestId: requestId,
			VendorId:       vendorId,
			Fields:         *f,
			Status:         common.RevisionSent,
		}, sentAt)
		if err != nil {
			if errors.Is(err, repo_errors.ErrStaleState) {
				return "", &InvalidStateError{Reason: ReasonNotActive}
			}

			return "", err
		}
		revisionId, revisionNumber = id.String(), number
	}

	s.metrics.Transition("send-quote")

	kind := common.NotifyQuoteCreatedClient
	if revisionNumber > 1 {
		kind = common.NotifyQuoteRevisedClient
	}
	s.dispatcher.Notify(kind, notify.Payload{
		QuoteRequestId: requestId,
		RevisionId:     revisionId,
		AmountCents:    f.AmountCents,
		Message:        f.Description,
		RecipientEmail: request.Email,
	})

	return revisionId, nil
}

// RespondToQuote records the client's accept or reject decision on a sent
// revision. Rejection requires feedback. On accept the request becomes
// finalised (the request-level vocabulary differs from the revision's
// accepted on purpose); on reject both drop to rejected. Non-empty feedback
// becomes a client-visible comment, and the vendor is notified after the
// transition commits.
func (s *QuoteService) RespondToQuote(ctx context.Context, revisionId string, responderId string, decision common.Decision, feedback string) error {
	if !common.ValidDecision(decision) {
		return &ValidationError{Field: "decision", Reason: "must be accept or reject"}
	}
	if decision == common.DecisionReject && feedback == "" {
		return &ValidationError{Field: "feedback", Reason: "feedback required to reject"}
	}

	revision, err := s.revisionRepo.GetRevisionById(ctx, revisionId)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return &NotFoundError{Resource: "revision"}
		}

		return err
	}

	request, err := s.requestRepo.GetQuoteRequestById(ctx, revision.QuoteRequestId.String())
	if err != nil {
		return err
	}

	if request.RequesterId.String() != responderId {
		return &AuthorizationError{Resource: "revision"}
	}

	now := time.Now().UTC()
	switch {
	case revision.Status.Terminal():
		return &InvalidStateError{Reason: ReasonAlreadyResponded}
	case revision.Status != common.RevisionSent:
		return &InvalidStateError{Reason: ReasonNotActive}
	case revision.Expired(now):
		return &InvalidStateError{Reason: ReasonExpired}
	}

	revisionStatus := common.RevisionAccepted
	requestStatus := common.RequestFinalised
	if decision == common.DecisionReject {
		revisionStatus = common.RevisionRejected
		requestStatus = common.RequestRejected
	}

	err = s.revisionRepo.CloseRevision(ctx, &entity.CloseRevisionInput{
		RevisionId:     revisionId,
		QuoteRequestId: revision.QuoteRequestId.String(),
		RevisionStatus: revisionStatus,
		RequestStatus:  requestStatus,
		ClientNotes:    feedback,
		ResponderId:    responderId,
		RespondedAt:    now,
	})
	if err != nil {
		if errors.Is(err, repo_errors.ErrStaleState) {
			return &InvalidStateError{Reason: ReasonAlreadyResponded}
		}

		return err
	}

	s.metrics.Transition("respond-" + string(decision))

	kind := common.NotifyQuoteAcceptedVendor
	if decision == common.DecisionReject {
		kind = common.NotifyQuoteRejectedVendor
	}
	payload := notify.Payload{
		QuoteRequestId: revision.QuoteRequestId.String(),
		RevisionId:     revisionId,
		AmountCents:    revision.AmountCents,
		Message:        feedback,
	}
	if vendor, err := s.vendorRepo.GetVendorById(ctx, revision.VendorId.String()); err == nil {
		payload.RecipientEmail = vendor.Email
	} else {
		s.log.Warn().Err(err).Str("vendorId", revision.VendorId.String()).Msg("vendor lookup for notification failed")
	}
	s.dispatcher.Notify(kind, payload)

	return nil
}

// actorRequest fetches the request and checks that the actor is one of the
// two parties.
func (s *QuoteService) actorRequest(ctx context.Context, requestId string, actorId string) (*entity.QuoteRequest, error) {
	request, err := s.requestRepo.GetQuoteRequestById(ctx, requestId)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, &NotFoundError{Resource: "quote request"}
		}

		return nil, err
	}

	if request.VendorId.String() != actorId && request.RequesterId.String() != actorId {
		return nil, &AuthorizationError{Resource: "quote request"}
	}

	return request, nil
}

func (s *QuoteService) GetQuoteRequestById(ctx context.Context, requestId string, actorId string) (*entity.QuoteRequestOutputModel, error) {
	request, err := s.actorRequest(ctx, requestId, actorId)
	if err != nil {
		return nil, err
	}

	return mapQuoteRequest(request), nil
}

func (s *QuoteService) ListVendorQuoteRequests(ctx context.Context, vendorId string, status string, pg *entity.PaginationInput) ([]entity.QuoteRequestOutputModel, error) {
	filter := common.RequestStatus(status)
	if status != "" && !common.ValidRequestStatus(filter) {
		return nil, &ValidationError{Field: "status", Reason: "unknown status value"}
	}

	requests, err := s.requestRepo.GetVendorQuoteRequests(ctx, vendorId, filter, pg)
	if err != nil {
		return nil, err
	}

	return mapQuoteRequests(requests), nil
}

// ActiveRevision returns the request's single draft or sent revision, or nil
// when every revision is settled. Vendor-internal notes are stripped unless
// the vendor is asking.
func (s *QuoteService) ActiveRevision(ctx context.Context, requestId string, actorId string) (*entity.RevisionOutputModel, error) {
	request, err := s.actorRequest(ctx, requestId, actorId)
	if err != nil {
		return nil, err
	}

	revision, err := s.revisionRepo.GetActiveRevision(ctx, requestId)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return mapRevision(revision, actorId == request.VendorId.String()), nil
}

func (s *QuoteService) ListRevisions(ctx context.Context, requestId string, actorId string, pg *entity.PaginationInput) ([]entity.RevisionOutputModel, error) {
	request, err := s.actorRequest(ctx, requestId, actorId)
	if err != nil {
		return nil, err
	}

	revisions, err := s.revisionRepo.GetRequestRevisions(ctx, requestId, pg)
	if err != nil {
		return nil, err
	}

	return mapRevisions(revisions, actorId == request.VendorId.String()), nil
}

func (s *QuoteService) ListComments(ctx context.Context, revisionId string, actorId string) ([]entity.CommentOutputModel, error) {
	revision, err := s.revisionRepo.GetRevisionById(ctx, revisionId)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, &NotFoundError{Resource: "revision"}
		}

		return nil, err
	}

	request, err := s.actorRequest(ctx, revision.QuoteRequestId.String(), actorId)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.GetRevisionComments(ctx, revisionId)
	if err != nil {
		return nil, err
	}

	isVendor := actorId == request.VendorId.String()
	out := make([]entity.CommentOutputModel, 0)
	for _, c := range comments {
		if c.Internal && !isVendor {
			continue
		}
		out = append(out, *mapComment(&c))
	}

	return out, nil
}
