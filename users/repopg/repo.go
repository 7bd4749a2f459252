// Package pguserrepo provides a PostgreSQL-backed implementation of
// users.UserRepo over dbx.DBTX.
package pguserrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"

	"github.com/jrsteele09/go-identity-server/internal/dbx"
	"github.com/jrsteele09/go-identity-server/users"
)

const uniqueViolation = "23505"

var _ users.UserRepo = (*PostgresRepo)(nil)

type PostgresRepo struct {
	db dbx.DBTX
}

func NewPostgresRepo(db dbx.DBTX) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, user *users.User) error {
	query := `
		INSERT INTO users (id, email, display_name, password_hash, roles, active, email_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.DisplayName, user.PasswordHash,
		rolesToText(user.Roles), user.Active, user.EmailVerified, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return users.ErrEmailTaken
		}
		return pkgerrors.Wrap(err, "[PostgresRepo.Create] insert user")
	}

	for _, p := range user.Providers {
		if err := r.LinkProvider(ctx, user.ID, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, user *users.User) error {
	query := `
		UPDATE users
		SET email = $2, display_name = $3, password_hash = $4, roles = $5, active = $6, email_verified = $7
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.DisplayName, user.PasswordHash,
		rolesToText(user.Roles), user.Active, user.EmailVerified)
	if err != nil {
		return pkgerrors.Wrap(err, "[PostgresRepo.Update] update user")
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getOne(ctx, `WHERE u.email = $1`, email)
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getOne(ctx, `WHERE u.id = $1`, id)
}

func (r *PostgresRepo) GetByProvider(ctx context.Context, providerName, subject string) (*users.User, error) {
	query := `
		SELECT user_id FROM user_providers
		WHERE provider = $1 AND subject = $2
	`
	var userID string
	if err := r.db.QueryRow(ctx, query, providerName, subject).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "[PostgresRepo.GetByProvider] lookup provider identity")
	}
	return r.GetByID(ctx, userID)
}

func (r *PostgresRepo) LinkProvider(ctx context.Context, userID string, identity users.ProviderIdentity) error {
	query := `
		INSERT INTO user_providers (provider, subject, user_id, linked_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider, subject) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, identity.Provider, identity.Subject, userID, identity.LinkedAt); err != nil {
		return pkgerrors.Wrap(err, "[PostgresRepo.LinkProvider] insert provider identity")
	}
	return nil
}

func (r *PostgresRepo) getOne(ctx context.Context, where string, arg any) (*users.User, error) {
	query := `
		SELECT u.id, u.email, u.display_name, u.password_hash, u.roles, u.active, u.email_verified, u.created_at
		FROM users u ` + where

	user := &users.User{}
	var roles []string
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash,
		&roles, &user.Active, &user.EmailVerified, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "[PostgresRepo.getOne] select user")
	}
	for _, role := range roles {
		user.Roles = append(user.Roles, users.RoleType(role))
	}

	providerQuery := `
		SELECT provider, subject, linked_at
		FROM user_providers
		WHERE user_id = $1
		ORDER BY linked_at
	`
	rows, err := r.db.Query(ctx, providerQuery, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[PostgresRepo.getOne] select provider identities")
	}
	defer rows.Close()

	for rows.Next() {
		var p users.ProviderIdentity
		if err := rows.Scan(&p.Provider, &p.Subject, &p.LinkedAt); err != nil {
			return nil, pkgerrors.Wrap(err, "[PostgresRepo.getOne] scan provider identity")
		}
		user.Providers = append(user.Providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "[PostgresRepo.getOne] provider identity rows")
	}
	return user, nil
}

func rolesToText(roles []users.RoleType) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
