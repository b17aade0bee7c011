package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quote-management-api/internal/common"
	"quote-management-api/internal/entity"
	"quote-management-api/internal/repo/repo_errors"
	"quote-management-api/pkg/postgres"
)

const quoteRequestColumns = "id, vendor_id, requester_id, name, email, status, details, event_type, event_date, budget_cents, quote_amount_cents, created_at"

type QuoteRequestRepo struct {
	*postgres.Postgres
}

func NewQuoteRequestRepo(pgdb *postgres.Postgres) *QuoteRequestRepo {
	return &QuoteRequestRepo{pgdb}
}

func (r *QuoteRequestRepo) CreateQuoteRequest(ctx context.Context, input *entity.CreateQuoteRequestInput) (uuid.UUID, error) {
	createSql, args, _ := r.SqlBuilder.
		Insert("quote_request").
		Columns("vendor_id", "requester_id", "name", "email", "status", "details", "event_type", "event_date", "budget_cents").
		Values(input.VendorId, input.RequesterId, input.Name, input.Email, common.RequestPending, input.Details, input.EventType, input.EventDate, input.BudgetCents).
		Suffix("RETURNING id").
		ToSql()

	var requestId uuid.UUID
	if err := r.Database.QueryRowContext(ctx, createSql, args...).Scan(&requestId); err != nil {
		return uuid.Nil, err
	}

	return requestId, nil
}

func scanQuoteRequest(row interface{ Scan(...any) error }) (*entity.QuoteRequest, error) {
	var request entity.QuoteRequest
	var status string
	err := row.Scan(&request.Id, &request.VendorId, &request.RequesterId, &request.Name,
		&request.Email, &status, &request.Details, &request.EventType, &request.EventDate,
		&request.BudgetCents, &request.QuoteAmountCents, &request.CreatedAt)
	if err != nil {
		return nil, err
	}

	// unknown status values never leave the persistence boundary
	request.Status = common.RequestStatus(status)
	if !common.ValidRequestStatus(request.Status) {
		return nil, fmt.Errorf("quote request %s has unknown status %q", request.Id, status)
	}

	return &request, nil
}

func (r *QuoteRequestRepo) GetQuoteRequestById(ctx context.Context, id string) (*entity.QuoteRequest, error) {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}

	getSql, args, _ := r.SqlBuilder.
		Select(quoteRequestColumns).
		From("quote_request").
		Where("id = ?", uuidForm).
		ToSql()

	request, err := scanQuoteRequest(r.Database.QueryRowContext(ctx, getSql, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	return request, nil
}

func (r *QuoteRequestRepo) GetVendorQuoteRequests(ctx context.Context, vendorId string, status common.RequestStatus, pg *entity.PaginationInput) ([]entity.QuoteRequest, error) {
	uuidForm, err := uuid.Parse(vendorId)
	if err != nil {
		return nil, err
	}

	query := r.SqlBuilder.
		Select(quoteRequestColumns).
		From("quote_request").
		Where("vendor_id = ?", uuidForm).
		OrderBy("created_at DESC").
		Offset(uint64(pg.Offset)).
		Limit(uint64(pg.Limit))
	if status != "" {
		query = query.Where("status = ?", status)
	}
	listSql, args, _ := query.ToSql()

	rows, err := r.Database.QueryContext(ctx, listSql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]entity.QuoteRequest, 0)
	for rows.Next() {
		request, err := scanQuoteRequest(rows)
		if err != nil {
			return requests, err
		}
		requests = append(requests, *request)
	}
	if err = rows.Err(); err != nil {
		return requests, err
	}

	return requests, nil
}

func (r *QuoteRequestRepo) GetStalePendingRequests(ctx context.Context, olderThan time.Time, limit int) ([]entity.QuoteRequest, error) {
	listSql, args, _ := r.SqlBuilder.
		Select(quoteRequestColumns).
		From("quote_request").
		Where("status = ?", common.RequestPending).
		Where("created_at < ?", olderThan).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		ToSql()

	rows, err := r.Database.QueryContext(ctx, listSql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]entity.QuoteRequest, 0)
	for rows.Next() {
		request, err := scanQuoteRequest(rows)
		if err != nil {
			return requests, err
		}
		requests = append(requests, *request)
	}
	if err = rows.Err(); err != nil {
		return requests, err
	}

	return requests, nil
}
