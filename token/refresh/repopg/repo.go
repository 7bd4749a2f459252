// Package pgrefreshrepo provides a PostgreSQL-backed implementation of
// refresh.Repo over dbx.DBTX. TakeByHash relies on a single
// DELETE ... RETURNING statement for its atomicity, so no surrounding
// transaction is needed for redemption.
package pgrefreshrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	pkgerrors "github.com/pkg/errors"

	"github.com/jrsteele09/go-identity-server/internal/dbx"
	"github.com/jrsteele09/go-identity-server/token/refresh"
)

var _ refresh.Repo = (*PostgresRepo)(nil)

type PostgresRepo struct {
	db dbx.DBTX
}

func NewPostgresRepo(db dbx.DBTX) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Insert(ctx context.Context, record *refresh.StoredRefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token_hash, user_id, device, issued_at, expires_at, chain_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		record.TokenHash, record.UserID, record.Device,
		record.IssuedAt, record.ExpiresAt, record.ChainExpiresAt)
	if err != nil {
		return pkgerrors.Wrap(err, "[PostgresRepo.Insert] insert refresh token")
	}
	return nil
}

func (r *PostgresRepo) TakeByHash(ctx context.Context, tokenHash string) (*refresh.StoredRefreshToken, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE token_hash = $1
		RETURNING token_hash, user_id, device, issued_at, expires_at, chain_expires_at
	`
	record := &refresh.StoredRefreshToken{}
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&record.TokenHash, &record.UserID, &record.Device,
		&record.IssuedAt, &record.ExpiresAt, &record.ChainExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, refresh.ErrTokenNotFound
		}
		return nil, pkgerrors.Wrap(err, "[PostgresRepo.TakeByHash] delete returning")
	}
	return record, nil
}

func (r *PostgresRepo) DeleteByHash(ctx context.Context, tokenHash string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE token_hash = $1
	`
	tag, err := r.db.Exec(ctx, query, tokenHash)
	if err != nil {
		return pkgerrors.Wrap(err, "[PostgresRepo.DeleteByHash] delete refresh token")
	}
	if tag.RowsAffected() == 0 {
		return refresh.ErrTokenNotFound
	}
	return nil
}

func (r *PostgresRepo) DeleteByUserID(ctx context.Context, userID string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1
	`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return pkgerrors.Wrap(err, "[PostgresRepo.DeleteByUserID] delete refresh tokens")
	}
	return nil
}

func (r *PostgresRepo) ListByUserID(ctx context.Context, userID string) ([]*refresh.StoredRefreshToken, error) {
	query := `
		SELECT token_hash, user_id, device, issued_at, expires_at, chain_expires_at
		FROM refresh_tokens
		WHERE user_id = $1
		ORDER BY issued_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[PostgresRepo.ListByUserID] select refresh tokens")
	}
	defer rows.Close()

	records := make([]*refresh.StoredRefreshToken, 0)
	for rows.Next() {
		record := &refresh.StoredRefreshToken{}
		if err := rows.Scan(
			&record.TokenHash, &record.UserID, &record.Device,
			&record.IssuedAt, &record.ExpiresAt, &record.ChainExpiresAt); err != nil {
			return nil, pkgerrors.Wrap(err, "[PostgresRepo.ListByUserID] scan refresh token")
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "[PostgresRepo.ListByUserID] rows")
	}
	return records, nil
}
