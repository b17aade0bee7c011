package service

import (
	"time"

	"quote-management-api/internal/common"
	"quote-management-api/internal/entity"
)

func mapQuoteRequest(r *entity.QuoteRequest) *entity.QuoteRequestOutputModel {
	return &entity.QuoteRequestOutputModel{
		Id:               r.Id.String(),
		VendorId:         r.VendorId.String(),
		RequesterId:      r.RequesterId.String(),
		Name:             r.Name,
		Email:            r.Email,
		Status:           string(r.Status),
		Details:          r.Details,
		EventType:        r.EventType,
		EventDate:        r.EventDate.Format(time.RFC3339),
		BudgetCents:      r.BudgetCents,
		QuoteAmountCents: r.QuoteAmountCents,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
}

func mapQuoteRequests(requests []entity.QuoteRequest) []entity.QuoteRequestOutputModel {
	s := make([]entity.QuoteRequestOutputModel, 0)
	for _, r := range requests {
		s = append(s, *mapQuoteRequest(&r))
	}

	return s
}

func mapRevision(r *entity.QuoteRevision, includeNotes bool) *entity.RevisionOutputModel {
	out := &entity.RevisionOutputModel{
		Id:             r.Id.String(),
		QuoteRequestId: r.QuoteRequestId.String(),
		AmountCents:    r.AmountCents,
		Description:    r.Description,
		Terms:          r.Terms,
		ValidityDays:   r.ValidityDays,
		RevisionNumber: r.RevisionNumber,
		Status:         string(r.Status),
		ClientNotes:    r.ClientNotes,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
	if includeNotes {
		out.Notes = r.Notes
	}
	if r.Status == common.RevisionSent {
		out.ExpiresAt = r.ExpiresAt().Format(time.RFC3339)
	}
	if r.RespondedAt != nil {
		out.RespondedAt = r.RespondedAt.Format(time.RFC3339)
	}

	return out
}

func mapRevisions(revisions []entity.QuoteRevision, includeNotes bool) []entity.RevisionOutputModel {
	s := make([]entity.RevisionOutputModel, 0)
	for _, r := range revisions {
		s = append(s, *mapRevision(&r, includeNotes))
	}

	return s
}

func mapComment(c *entity.QuoteComment) *entity.CommentOutputModel {
	return &entity.CommentOutputModel{
		Id:        c.Id.String(),
		AuthorId:  c.AuthorId.String(),
		Body:      c.Body,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}
