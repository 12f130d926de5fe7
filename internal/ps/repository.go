package ps

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/psweb/psweb/internal/platform/db"
)

// uniqueDraftConstraint is the partial unique index enforcing one RASCUNHO
// per disembarking fiscal. The service pre-checks, the index decides.
const uniqueDraftConstraint = "ps_um_rascunho_por_fiscal"

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds a pgx-backed RepositoryPort.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{db: pool}
}

const psColumns = `id, numero, ano, status, embarcacao_id, COALESCE(fiscal_embarcando_id, 0),
	fiscal_desembarcando_id, periodo_inicio, periodo_fim, data_emissao,
	atividades, pendencias, observacoes, COALESCE(documento_path, ''), criada_em, atualizada_em`

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *repository) Get(ctx context.Context, id int64) (PassagemServico, error) {
	row := r.db.QueryRow(ctx, `SELECT `+psColumns+` FROM passagens_servico WHERE id = $1`, id)
	p, err := scanPassagem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PassagemServico{}, ErrNotFound
		}
		return PassagemServico{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, filtro Filtro) ([]PassagemServico, error) {
	query := `SELECT ` + psColumns + ` FROM passagens_servico WHERE 1=1`
	args := []any{}
	if filtro.FiscalID != 0 {
		args = append(args, filtro.FiscalID)
		query += ` AND (fiscal_desembarcando_id = $1 OR fiscal_embarcando_id = $1)`
	}
	if filtro.Inicio != nil {
		args = append(args, *filtro.Inicio)
		query += ` AND periodo_fim >= $` + strconv.Itoa(len(args))
	}
	if filtro.Fim != nil {
		args = append(args, *filtro.Fim)
		query += ` AND periodo_inicio <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY data_emissao DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []PassagemServico
	for rows.Next() {
		p, err := scanPassagem(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *repository) TemRascunho(ctx context.Context, fiscalID int64) (bool, error) {
	var existe bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM passagens_servico WHERE fiscal_desembarcando_id = $1 AND status = $2)`,
		fiscalID, StatusRascunho).Scan(&existe)
	return existe, err
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) Insert(ctx context.Context, p PassagemServico) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO passagens_servico
			(numero, ano, status, embarcacao_id, fiscal_embarcando_id, fiscal_desembarcando_id,
			 periodo_inicio, periodo_fim, data_emissao, atividades, pendencias, observacoes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		p.Numero, p.Ano, p.Status, p.EmbarcacaoID, nullableID(p.FiscalEmbarcandoID), p.FiscalDesembarcandoID,
		p.PeriodoInicio, p.PeriodoFim, p.DataEmissao, p.Atividades, p.Pendencias, p.Observacoes).Scan(&id)
	if err != nil {
		return 0, mapUniqueViolation(err)
	}
	return id, nil
}

func (t *txRepository) UpdateEditaveis(ctx context.Context, p PassagemServico) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE passagens_servico
		 SET fiscal_embarcando_id = $1, atividades = $2, pendencias = $3, observacoes = $4, atualizada_em = NOW()
		 WHERE id = $5`,
		nullableID(p.FiscalEmbarcandoID), p.Atividades, p.Pendencias, p.Observacoes, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) Finalizar(ctx context.Context, id int64, documentoPath string) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE passagens_servico
		 SET status = $1, documento_path = $2, atualizada_em = NOW()
		 WHERE id = $3 AND status = $4`,
		StatusFinalizada, documentoPath, id, StatusRascunho)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) Delete(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM passagens_servico WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPassagem(row pgx.Row) (PassagemServico, error) {
	var p PassagemServico
	err := row.Scan(&p.ID, &p.Numero, &p.Ano, &p.Status, &p.EmbarcacaoID, &p.FiscalEmbarcandoID,
		&p.FiscalDesembarcandoID, &p.PeriodoInicio, &p.PeriodoFim, &p.DataEmissao,
		&p.Atividades, &p.Pendencias, &p.Observacoes, &p.DocumentoPath, &p.CriadaEm, &p.AtualizadaEm)
	if err != nil {
		return PassagemServico{}, err
	}
	p.PeriodoInicio = p.PeriodoInicio.UTC()
	p.PeriodoFim = p.PeriodoFim.UTC()
	p.DataEmissao = p.DataEmissao.UTC()
	return p, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == uniqueDraftConstraint {
		return ErrDraftAlreadyExists
	}
	return err
}

func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

