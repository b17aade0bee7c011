package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"quote-management-api/internal/entity"
	"quote-management-api/internal/repo/repo_errors"
	"quote-management-api/pkg/postgres"
)

type VendorRepo struct {
	*postgres.Postgres
}

func NewVendorRepo(pgdb *postgres.Postgres) *VendorRepo {
	return &VendorRepo{pgdb}
}

func (r *VendorRepo) GetVendorById(ctx context.Context, id string) (*entity.Vendor, error) {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}

	getVendorSql, args, _ := r.SqlBuilder.
		Select("id", "name", "email", "active", "created_at").
		From("vendor").
		Where("id = ?", uuidForm).
		ToSql()

	var vendor entity.Vendor
	var createdAt time.Time
	row := r.Database.QueryRowContext(ctx, getVendorSql, args...)
	err = row.Scan(&vendor.Id, &vendor.Name, &vendor.Email, &vendor.Active, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}
	vendor.CreatedAt = createdAt

	return &vendor, nil
}

func (r *VendorRepo) DoesVendorExistById(ctx context.Context, id string) (bool, error) {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return false, err
	}

	sqlReq, args, _ := r.SqlBuilder.
		Select("id").
		From("vendor").
		Where("id = ?", uuidForm).
		ToSql()

	var uid uuid.UUID
	err = r.Database.QueryRowContext(ctx, sqlReq, args...).Scan(&uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}
