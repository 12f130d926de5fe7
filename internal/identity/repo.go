package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/psweb/psweb/internal/shared"
)

// Repository loads user accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const userColumns = `id, email, password_hash, role, COALESCE(fiscal_id, 0), is_active, created_at, updated_at`

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *repository) FindByID(ctx context.Context, id int64) (*User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *repository) scanOne(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.FiscalID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
