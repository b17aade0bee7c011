package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"quote-management-api/internal/common"
	"quote-management-api/internal/entity"
	"quote-management-api/internal/repo/repo_errors"
	"quote-management-api/pkg/postgres"
)

const revisionColumns = "id, quote_request_id, vendor_id, amount_cents, description, terms, validity_days, revision_number, status, notes, client_notes, created_at, sent_at, responded_at"

// sentCountExpr counts the revisions of a request that have ever been sent
// (everything but drafts: sent, superseded and the terminal states).
const sentCountExpr = "(select count(*) + 1 from quote_revision r2 where r2.quote_request_id = ? and r2.status <> ?)"

const uniqueViolationCode = "23505"

type RevisionRepo struct {
	*postgres.Postgres
}

func NewRevisionRepo(pgdb *postgres.Postgres) *RevisionRepo {
	return &RevisionRepo{pgdb}
}

func (r *RevisionRepo) CreateDraft(ctx context.Context, input *entity.CreateRevisionInput) (uuid.UUID, error) {
	requestUuid, err := uuid.Parse(input.QuoteRequestId)
	if err != nil {
		return uuid.Nil, err
	}

	createSql, args, _ := r.SqlBuilder.
		Insert("quote_revision").
		Columns("quote_request_id", "vendor_id", "amount_cents", "description", "terms", "validity_days", "notes", "status", "revision_number").
		Values(requestUuid, input.VendorId, input.Fields.AmountCents, input.Fields.Description,
			input.Fields.Terms, input.Fields.ValidityDays, input.Fields.InternalNotes,
			common.RevisionDraft, squirrel.Expr(sentCountExpr, requestUuid, common.RevisionDraft)).
		Suffix("RETURNING id").
		ToSql()

	var revisionId uuid.UUID
	if err := r.Database.QueryRowContext(ctx, createSql, args...).Scan(&revisionId); err != nil {
		// the loser of two concurrent first drafts hits the partial unique
		// index on active revisions
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
			return uuid.Nil, repo_errors.ErrStaleState
		}

		return uuid.Nil, err
	}

	return revisionId, nil
}

func (r *RevisionRepo) CreateSentRevision(ctx context.Context, input *entity.CreateRevisionInput, sentAt time.Time) (uuid.UUID, int, error) {
	requestUuid, err := uuid.Parse(input.QuoteRequestId)
	if err != nil {
		return uuid.Nil, 0, err
	}

	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, 0, err
	}

	createSql, args, _ := r.SqlBuilder.
		Insert("quote_revision").
		Columns("quote_request_id", "vendor_id", "amount_cents", "description", "terms", "validity_days", "notes", "status", "sent_at", "revision_number").
		Values(requestUuid, input.VendorId, input.Fields.AmountCents, input.Fields.Description,
			input.Fields.Terms, input.Fields.ValidityDays, input.Fields.InternalNotes,
			common.RevisionSent, sentAt, squirrel.Expr(sentCountExpr, requestUuid, common.RevisionDraft)).
		Suffix("RETURNING id, revision_number").
		RunWith(tx).
		ToSql()

	var revisionId uuid.UUID
	var revisionNumber int
	if err = tx.QueryRowContext(ctx, createSql, args...).Scan(&revisionId, &revisionNumber); err != nil {
		if e := tx.Rollback(); e != nil {
			return uuid.Nil, 0, e
		}

		return uuid.Nil, 0, err
	}

	if err = markRequestQuoted(ctx, tx, r.SqlBuilder, requestUuid, input.Fields.AmountCents); err != nil {
		if e := tx.Rollback(); e != nil {
			return uuid.Nil, 0, e
		}

		return uuid.Nil, 0, err
	}

	if err = tx.Commit(); err != nil {
		return uuid.Nil, 0, err
	}

	return revisionId, revisionNumber, nil
}

func markRequestQuoted(ctx context.Context, tx *sql.Tx, builder squirrel.StatementBuilderType, requestId uuid.UUID, amountCents int64) error {
	updateSql, args, _ := builder.
		Update("quote_request").
		Set("status", common.RequestQuoted).
		Set("quote_amount_cents", amountCents).
		Where("id = ?", requestId).
		RunWith(tx).
		ToSql()

	_, err := tx.ExecContext(ctx, updateSql, args...)

	return err
}

func scanRevision(row interface{ Scan(...any) error }) (*entity.QuoteRevision, error) {
	var revision entity.QuoteRevision
	var status string
	var clientNotes sql.NullString
	var sentAt, respondedAt sql.NullTime
	err := row.Scan(&revision.Id, &revision.QuoteRequestId, &revision.VendorId,
		&revision.AmountCents, &revision.Description, &revision.Terms, &revision.ValidityDays,
		&revision.RevisionNumber, &status, &revision.Notes, &clientNotes,
		&revision.CreatedAt, &sentAt, &respondedAt)
	if err != nil {
		return nil, err
	}

	revision.Status = common.RevisionStatus(status)
	if !common.ValidRevisionStatus(revision.Status) {
		return nil, fmt.Errorf("revision %s has unknown status %q", revision.Id, status)
	}
	if clientNotes.Valid {
		revision.ClientNotes = clientNotes.String
	}
	if sentAt.Valid {
		revision.SentAt = &sentAt.Time
	}
	if respondedAt.Valid {
		revision.RespondedAt = &respondedAt.Time
	}

	return &revision, nil
}

func (r *RevisionRepo) GetRevisionById(ctx context.Context, id string) (*entity.QuoteRevision, error) {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}

	getSql, args, _ := r.SqlBuilder.
		Select(revisionColumns).
		From("quote_revision").
		Where("id = ?", uuidForm).
		ToSql()

	revision, err := scanRevision(r.Database.QueryRowContext(ctx, getSql, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	return revision, nil
}

func (r *RevisionRepo) GetActiveRevision(ctx context.Context, requestId string) (*entity.QuoteRevision, error) {
	uuidForm, err := uuid.Parse(requestId)
	if err != nil {
		return nil, err
	}

	getSql, args, _ := r.SqlBuilder.
		Select(revisionColumns).
		From("quote_revision").
		Where("quote_request_id = ?", uuidForm).
		Where(squirrel.Eq{"status": []common.RevisionStatus{common.RevisionDraft, common.RevisionSent}}).
		ToSql()

	revision, err := scanRevision(r.Database.QueryRowContext(ctx, getSql, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	return revision, nil
}

func (r *RevisionRepo) GetRequestRevisions(ctx context.Context, requestId string, pg *entity.PaginationInput) ([]entity.QuoteRevision, error) {
	uuidForm, err := uuid.Parse(requestId)
	if err != nil {
		return nil, err
	}

	listSql, args, _ := r.SqlBuilder.
		Select(revisionColumns).
		From("quote_revision").
		Where("quote_request_id = ?", uuidForm).
		OrderBy("revision_number DESC", "created_at DESC").
		Offset(uint64(pg.Offset)).
		Limit(uint64(pg.Limit)).
		ToSql()

	rows, err := r.Database.QueryContext(ctx, listSql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	revisions := make([]entity.QuoteRevision, 0)
	for rows.Next() {
		revision, err := scanRevision(rows)
		if err != nil {
			return revisions, err
		}
		revisions = append(revisions, *revision)
	}
	if err = rows.Err(); err != nil {
		return revisions, err
	}

	return revisions, nil
}

func (r *RevisionRepo) UpdateDraft(ctx context.Context, id string, fields *entity.QuoteFields) error {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return err
	}

	updateSql, args, _ := r.SqlBuilder.
		Update("quote_revision").
		Set("amount_cents", fields.AmountCents).
		Set("description", fields.Description).
		Set("terms", fields.Terms).
		Set("validity_days", fields.ValidityDays).
		Set("notes", fields.InternalNotes).
		Where("id = ?", uuidForm).
		Where("status = ?", common.RevisionDraft).
		ToSql()

	result, err := r.Database.ExecContext(ctx, updateSql, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repo_errors.ErrStaleState
	}

	return nil
}

func (r *RevisionRepo) PromoteDraft(ctx context.Context, id string, fields *entity.QuoteFields, sentAt time.Time) (int, error) {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return 0, err
	}

	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	// the revision number is re-derived at send time, so promoting a draft
	// consumes the same numbering slot a direct send would have
	promoteSql, args, _ := r.SqlBuilder.
		Update("quote_revision").
		Set("status", common.RevisionSent).
		Set("amount_cents", fields.AmountCents).
		Set("description", fields.Description).
		Set("terms", fields.Terms).
		Set("validity_days", fields.ValidityDays).
		Set("notes", fields.InternalNotes).
		Set("sent_at", sentAt).
		Set("revision_number", squirrel.Expr("(select count(*) + 1 from quote_revision r2 where r2.quote_request_id = quote_revision.quote_request_id and r2.status <> ? and r2.id <> quote_revision.id)", common.RevisionDraft)).
		Where("id = ?", uuidForm).
		Where("status = ?", common.RevisionDraft).
		Suffix("RETURNING quote_request_id, revision_number").
		RunWith(tx).
		ToSql()

	var requestId uuid.UUID
	var revisionNumber int
	if err = tx.QueryRowContext(ctx, promoteSql, args...).Scan(&requestId, &revisionNumber); err != nil {
		if e := tx.Rollback(); e != nil {
			return 0, e
		}
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repo_errors.ErrStaleState
		}

		return 0, err
	}

	if err = markRequestQuoted(ctx, tx, r.SqlBuilder, requestId, fields.AmountCents); err != nil {
		if e := tx.Rollback(); e != nil {
			return 0, e
		}

		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	return revisionNumber, nil
}

func (r *RevisionRepo) ReplaceSentRevision(ctx context.Context, supersededId string, input *entity.CreateRevisionInput, sentAt time.Time) (uuid.UUID, int, error) {
	supersededUuid, err := uuid.Parse(supersededId)
	if err != nil {
		return uuid.Nil, 0, err
	}
	requestUuid, err := uuid.Parse(input.QuoteRequestId)
	if err != nil {
		return uuid.Nil, 0, err
	}

	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, 0, err
	}

	supersedeSql, args, _ := r.SqlBuilder.
		Update("quote_revision").
		Set("status", common.RevisionSuperseded).
		Where("id = ?", supersededUuid).
		Where("status = ?", common.RevisionSent).
		RunWith(tx).
		ToSql()

	result, err := tx.ExecContext(ctx, supersedeSql, args...)
	if err != nil {
		if e := tx.Rollback(); e != nil {
			return uuid.Nil, 0, e
		}

		return uuid.Nil, 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		if e := tx.Rollback(); e != nil {
			return uuid.Nil, 0, e
		}

		return uuid.Nil, 0, err
	}
	if affected == 0 {
		if e := tx.Rollback(); e != nil {
			return uuid.Nil, 0, e
		}

		return uuid.Nil, 0, repo_errors.ErrStaleState
	}

	createSql, args, _ := r.SqlBuilder.
		Insert("quote_revision").
		Columns("quote_request_id", "vendor_id", "amount_cents", "description", "terms", "validity_days", "notes", "status", "sent_at", "revision_number").
		Values(requestUuid, input.VendorId, input.Fields.AmountCents, input.Fields.Description,
			input.Fields.Terms, input.Fields.ValidityDays, input.Fields.InternalNotes,
			common.RevisionSent, sentAt, squirrel.Expr(sentCountExpr, requestUuid, common.RevisionDraft)).
		Suffix("RETURNING id, revision_number").
		RunWith(tx).
		ToSql()

	var revisionId uuid.UUID
	var revisionNumber int
	if err = tx.QueryRowContext(ctx, createSql, args...).Scan(&revisionId, &revisionNumber); err != nil {
		if e := tx.Rollback(); e != nil {
			return uuid.Nil, 0, e
		}

		return uuid.Nil, 0, err
	}

	if err = markRequestQuoted(ctx, tx, r.SqlBuilder, requestUuid, input.Fields.AmountCents); err != nil {
		if e := tx.Rollback(); e != nil {
			return uuid.Nil, 0, e
		}

		return uuid.Nil, 0, err
	}

	if err = tx.Commit(); err != nil {
		return uuid.Nil, 0, err
	}

	return revisionId, revisionNumber, nil
}

func (r *RevisionRepo) CloseRevision(ctx context.Context, input *entity.CloseRevisionInput) error {
	revisionUuid, err := uuid.Parse(input.RevisionId)
	if err != nil {
		return err
	}
	requestUuid, err := uuid.Parse(input.QuoteRequestId)
	if err != nil {
		return err
	}

	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	closeSql, args, _ := r.SqlBuilder.
		Update("quote_revision").
		Set("status", input.RevisionStatus).
		Set("client_notes", input.ClientNotes).
		Set("responded_at", input.RespondedAt).
		Where("id = ?", revisionUuid).
		Where("status = ?", common.RevisionSent).
		RunWith(tx).
		ToSql()

	result, err := tx.ExecContext(ctx, closeSql, args...)
	if err != nil {
		if e := tx.Rollback(); e != nil {
			return e
		}

		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		if e := tx.Rollback(); e != nil {
			return e
		}

		return err
	}
	if affected == 0 {
		if e := tx.Rollback(); e != nil {
			return e
		}

		return repo_errors.ErrStaleState
	}

	outcomeSql, args, _ := r.SqlBuilder.
		Update("quote_request").
		Set("status", input.RequestStatus).
		Where("id = ?", requestUuid).
		RunWith(tx).
		ToSql()

	if _, err = tx.ExecContext(ctx, outcomeSql, args...); err != nil {
		if e := tx.Rollback(); e != nil {
			return e
		}

		return err
	}

	if input.ClientNotes != "" {
		commentSql, args, _ := r.SqlBuilder.
			Insert("quote_comment").
			Columns("revision_id", "author_id", "body", "internal").
			Values(revisionUuid, input.ResponderId, input.ClientNotes, false).
			RunWith(tx).
			ToSql()

		if _, err = tx.ExecContext(ctx, commentSql, args...); err != nil {
			if e := tx.Rollback(); e != nil {
				return e
			}

			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	return nil
}
