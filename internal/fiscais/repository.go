package fiscais

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/psweb/psweb/internal/shared"
)

// Repository exposes fiscal persistence.
type Repository interface {
	List(ctx context.Context) ([]Fiscal, error)
	Get(ctx context.Context, id int64) (Fiscal, error)
	Create(ctx context.Context, f Fiscal) (Fiscal, error)
	Update(ctx context.Context, id int64, f Fiscal) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Fiscal, error) {
	rows, err := r.db.Query(ctx, `SELECT id, nome, chave, telefone, criado_em, atualizado_em FROM fiscais`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Fiscal
	for rows.Next() {
		var f Fiscal
		if err := rows.Scan(&f.ID, &f.Nome, &f.Chave, &f.Telefone, &f.CriadoEm, &f.AtualizadoEm); err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Fiscal, error) {
	var f Fiscal
	err := r.db.QueryRow(ctx, `SELECT id, nome, chave, telefone, criado_em, atualizado_em FROM fiscais WHERE id = $1`, id).
		Scan(&f.ID, &f.Nome, &f.Chave, &f.Telefone, &f.CriadoEm, &f.AtualizadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Fiscal{}, shared.ErrNotFound
		}
		return Fiscal{}, err
	}
	return f, nil
}

func (r *repository) Create(ctx context.Context, f Fiscal) (Fiscal, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO fiscais (nome, chave, telefone) VALUES ($1, $2, $3) RETURNING id, criado_em, atualizado_em`,
		f.Nome, f.Chave, f.Telefone).Scan(&f.ID, &f.CriadoEm, &f.AtualizadoEm)
	return f, err
}

func (r *repository) Update(ctx context.Context, id int64, f Fiscal) error {
	tag, err := r.db.Exec(ctx, `UPDATE fiscais SET nome = $1, chave = $2, telefone = $3, atualizado_em = NOW() WHERE id = $4`,
		f.Nome, f.Chave, f.Telefone, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM fiscais WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
