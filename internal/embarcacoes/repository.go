package embarcacoes

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/psweb/psweb/internal/shared"
)

// Repository exposes vessel persistence.
type Repository interface {
	List(ctx context.Context) ([]Embarcacao, error)
	Get(ctx context.Context, id int64) (Embarcacao, error)
	Create(ctx context.Context, e Embarcacao) (Embarcacao, error)
	Update(ctx context.Context, id int64, e Embarcacao) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Embarcacao, error) {
	rows, err := r.db.Query(ctx, `SELECT id, nome, tipo, primeira_entrada_porto, criada_em, atualizada_em FROM embarcacoes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Embarcacao
	for rows.Next() {
		e, err := scanEmbarcacao(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Embarcacao, error) {
	row := r.db.QueryRow(ctx, `SELECT id, nome, tipo, primeira_entrada_porto, criada_em, atualizada_em FROM embarcacoes WHERE id = $1`, id)
	e, err := scanEmbarcacao(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Embarcacao{}, shared.ErrNotFound
		}
		return Embarcacao{}, err
	}
	return e, nil
}

func (r *repository) Create(ctx context.Context, e Embarcacao) (Embarcacao, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO embarcacoes (nome, tipo, primeira_entrada_porto) VALUES ($1, $2, $3) RETURNING id, criada_em, atualizada_em`,
		e.Nome, e.Tipo, nullableDate(e.PrimeiraEntradaPorto)).Scan(&e.ID, &e.CriadaEm, &e.AtualizadaEm)
	return e, err
}

func (r *repository) Update(ctx context.Context, id int64, e Embarcacao) error {
	tag, err := r.db.Exec(ctx, `UPDATE embarcacoes SET nome = $1, tipo = $2, primeira_entrada_porto = $3, atualizada_em = NOW() WHERE id = $4`,
		e.Nome, e.Tipo, nullableDate(e.PrimeiraEntradaPorto), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM embarcacoes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanEmbarcacao(row pgx.Row) (Embarcacao, error) {
	var e Embarcacao
	var entrada *time.Time
	if err := row.Scan(&e.ID, &e.Nome, &e.Tipo, &entrada, &e.CriadaEm, &e.AtualizadaEm); err != nil {
		return Embarcacao{}, err
	}
	if entrada != nil {
		e.PrimeiraEntradaPorto = *entrada
	}
	return e, nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
