package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"quote-management-api/internal/common"
	"quote-management-api/internal/entity"
	"quote-management-api/internal/repo/repo_errors"
	"quote-management-api/pkg/postgres"
)

type SubscriptionRepo struct {
	*postgres.Postgres
}

func NewSubscriptionRepo(pgdb *postgres.Postgres) *SubscriptionRepo {
	return &SubscriptionRepo{pgdb}
}

func (r *SubscriptionRepo) CreateSubscription(ctx context.Context, vendorId string, plan string, paymentToken string, amountCents int64) (uuid.UUID, error) {
	vendorUuid, err := uuid.Parse(vendorId)
	if err != nil {
		return uuid.Nil, err
	}

	createSql, args, _ := r.SqlBuilder.
		Insert("vendor_subscription").
		Columns("vendor_id", "plan", "status", "payment_token", "amount_cents").
		Values(vendorUuid, plan, common.SubscriptionPending, paymentToken, amountCents).
		Suffix("RETURNING id").
		ToSql()

	var subscriptionId uuid.UUID
	if err := r.Database.QueryRowContext(ctx, createSql, args...).Scan(&subscriptionId); err != nil {
		return uuid.Nil, err
	}

	return subscriptionId, nil
}

func (r *SubscriptionRepo) GetSubscriptionByPaymentToken(ctx context.Context, token string) (*entity.VendorSubscription, error) {
	getSql, args, _ := r.SqlBuilder.
		Select("id", "vendor_id", "plan", "status", "payment_token", "amount_cents", "created_at", "activated_at").
		From("vendor_subscription").
		Where("payment_token = ?", token).
		ToSql()

	var subscription entity.VendorSubscription
	var activatedAt sql.NullTime
	row := r.Database.QueryRowContext(ctx, getSql, args...)
	err := row.Scan(&subscription.Id, &subscription.VendorId, &subscription.Plan,
		&subscription.Status, &subscription.PaymentToken, &subscription.AmountCents,
		&subscription.CreatedAt, &activatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}
	if activatedAt.Valid {
		subscription.ActivatedAt = &activatedAt.Time
	}

	return &subscription, nil
}

func (r *SubscriptionRepo) ActivateSubscriptionByToken(ctx context.Context, token string, at time.Time) error {
	activateSql, args, _ := r.SqlBuilder.
		Update("vendor_subscription").
		Set("status", common.SubscriptionActive).
		Set("activated_at", at).
		Where("payment_token = ?", token).
		Where("status = ?", common.SubscriptionPending).
		ToSql()

	result, err := r.Database.ExecContext(ctx, activateSql, args...)
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
