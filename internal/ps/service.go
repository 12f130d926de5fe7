package ps

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/psweb/psweb/internal/embarcacoes"
	"github.com/psweb/psweb/internal/fiscais"
	"github.com/psweb/psweb/internal/shared"
)

// Filtro narrows a listing. FiscalID zero means no participant scoping; a
// non-nil Inicio/Fim keeps only PS whose period overlaps the range.
type Filtro struct {
	Inicio   *time.Time
	Fim      *time.Time
	FiscalID int64
}

// RepositoryPort describes the persistence operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (PassagemServico, error)
	List(ctx context.Context, filtro Filtro) ([]PassagemServico, error)
	TemRascunho(ctx context.Context, fiscalID int64) (bool, error)
}

// TxRepository groups the mutations that run inside a transaction.
type TxRepository interface {
	Insert(ctx context.Context, p PassagemServico) (int64, error)
	UpdateEditaveis(ctx context.Context, p PassagemServico) error
	Finalizar(ctx context.Context, id int64, documentoPath string) error
	Delete(ctx context.Context, id int64) error
}

// EmbarcacaoPort is the vessel lookup collaborator. Read-through: no
// caching, so anchor-date corrections apply to the very next creation.
type EmbarcacaoPort interface {
	Get(ctx context.Context, id int64) (embarcacoes.Embarcacao, error)
}

// FiscalPort is the operator lookup collaborator.
type FiscalPort interface {
	Get(ctx context.Context, id int64) (fiscais.Fiscal, error)
}

// DocumentoPort renders and stores the handover document of a PS, returning
// the storage path. Implementations must bound their own timeout.
type DocumentoPort interface {
	Gerar(ctx context.Context, det Detalhe) (string, error)
}

// AuditPort records irreversible actions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates the PS lifecycle. Every mutating operation re-derives
// its permission from current state; whatever a client pre-checked is
// advisory only.
type Service struct {
	repo        RepositoryPort
	embarcacoes EmbarcacaoPort
	fiscais     FiscalPort
	documentos  DocumentoPort
	audit       AuditPort
	now         func() time.Time
}

// NewService constructs the PS service.
func NewService(repo RepositoryPort, emb EmbarcacaoPort, fis FiscalPort, docs DocumentoPort, audit AuditPort) *Service {
	return &Service{
		repo:        repo,
		embarcacoes: emb,
		fiscais:     fis,
		documentos:  docs,
		audit:       audit,
		now:         time.Now,
	}
}

// CriarInput describes the creation payload. The disembarking fiscal is the
// requester; the embarking one is assigned later via Atualizar.
type CriarInput struct {
	EmbarcacaoID int64
}

// Campos lists the editable fields of a draft. Nil pointers leave the field
// untouched. The vessel reference is write-once and deliberately absent.
type Campos struct {
	FiscalEmbarcandoID *int64
	Atividades         *string
	Pendencias         *string
	Observacoes        *string
}

// Listar returns the PS the acting fiscal participates in, newest emission
// first, optionally narrowed to a period range.
func (s *Service) Listar(ctx context.Context, ator Ator, inicio, fim *time.Time) ([]Detalhe, error) {
	items, err := s.repo.List(ctx, Filtro{Inicio: inicio, Fim: fim, FiscalID: ator.FiscalID})
	if err != nil {
		return nil, err
	}
	return s.detalhar(ctx, items)
}

// Obter fetches one PS with display data attached.
func (s *Service) Obter(ctx context.Context, ator Ator, id int64) (Detalhe, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Detalhe{}, err
	}
	dets, err := s.detalhar(ctx, []PassagemServico{p})
	if err != nil {
		return Detalhe{}, err
	}
	return dets[0], nil
}

// Criar opens a new RASCUNHO owned by the acting fiscal, deriving period,
// emission date and Number/Year label from the vessel's anchor date.
func (s *Service) Criar(ctx context.Context, ator Ator, input CriarInput) (PassagemServico, error) {
	if ator.FiscalID == 0 {
		return PassagemServico{}, &ForbiddenError{Reason: ReasonRoleRequired}
	}
	if input.EmbarcacaoID == 0 {
		return PassagemServico{}, &ValidationError{Field: "embarcacao_id"}
	}

	existe, err := s.repo.TemRascunho(ctx, ator.FiscalID)
	if err != nil {
		return PassagemServico{}, err
	}
	if existe {
		return PassagemServico{}, ErrDraftAlreadyExists
	}

	emb, err := s.embarcacoes.Get(ctx, input.EmbarcacaoID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return PassagemServico{}, &ValidationError{Field: "embarcacao_id"}
		}
		return PassagemServico{}, err
	}

	ciclo, err := ProximoCiclo(emb.PrimeiraEntradaPorto, s.now())
	if err != nil {
		return PassagemServico{}, err
	}

	nova := PassagemServico{
		Numero:                ciclo.Numero,
		Ano:                   ciclo.Ano,
		Status:                StatusRascunho,
		EmbarcacaoID:          emb.ID,
		FiscalDesembarcandoID: ator.FiscalID,
		PeriodoInicio:         ciclo.PeriodoInicio,
		PeriodoFim:            ciclo.PeriodoFim,
		DataEmissao:           ciclo.DataEmissao,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.Insert(ctx, nova)
		if err != nil {
			return err
		}
		nova.ID = id
		return nil
	})
	if err != nil {
		return PassagemServico{}, err
	}
	s.registrarAuditoria(ctx, ator, "PS_CRIAR", nova.ID, map[string]any{"rotulo": nova.Rotulo(), "embarcacao_id": nova.EmbarcacaoID})
	return nova, nil
}

// Atualizar mutates the editable fields of a draft. The permission is
// re-evaluated here no matter what the caller already checked.
func (s *Service) Atualizar(ctx context.Context, ator Ator, id int64, campos Campos) (PassagemServico, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return PassagemServico{}, err
	}
	if err := PodeEditar(p, ator.FiscalID, s.now()); err != nil {
		return PassagemServico{}, err
	}

	if campos.FiscalEmbarcandoID != nil {
		if *campos.FiscalEmbarcandoID != 0 {
			if _, err := s.fiscais.Get(ctx, *campos.FiscalEmbarcandoID); err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return PassagemServico{}, &ValidationError{Field: "fiscal_embarcando_id"}
				}
				return PassagemServico{}, err
			}
		}
		p.FiscalEmbarcandoID = *campos.FiscalEmbarcandoID
	}
	if campos.Atividades != nil {
		p.Atividades = *campos.Atividades
	}
	if campos.Pendencias != nil {
		p.Pendencias = *campos.Pendencias
	}
	if campos.Observacoes != nil {
		p.Observacoes = *campos.Observacoes
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateEditaveis(ctx, p)
	})
	if err != nil {
		return PassagemServico{}, err
	}
	return p, nil
}

// Finalizar makes the draft irreversible. The document is generated first;
// only on success are the status and the document path committed together,
// so a failed generation leaves the PS a RASCUNHO and a crash never yields
// a FINALIZADA without a retrievable document.
func (s *Service) Finalizar(ctx context.Context, ator Ator, id int64) (PassagemServico, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return PassagemServico{}, err
	}
	if err := PodeEditar(p, ator.FiscalID, s.now()); err != nil {
		return PassagemServico{}, err
	}

	dets, err := s.detalhar(ctx, []PassagemServico{p})
	if err != nil {
		return PassagemServico{}, err
	}
	path, err := s.documentos.Gerar(ctx, dets[0])
	if err != nil {
		if errors.Is(err, ErrDependencyFailure) {
			return PassagemServico{}, err
		}
		return PassagemServico{}, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.Finalizar(ctx, id, path)
	})
	if err != nil {
		return PassagemServico{}, err
	}
	p.Status = StatusFinalizada
	p.DocumentoPath = path
	s.registrarAuditoria(ctx, ator, "PS_FINALIZAR", id, map[string]any{"rotulo": p.Rotulo(), "documento": path})
	return p, nil
}

// Copiar seeds a new RASCUNHO from a finalized PS. The new draft belongs to
// the copying (embarking) fiscal, stays on the same vessel and re-derives a
// fresh cycle from the vessel's anchor date rather than the source's dates.
func (s *Service) Copiar(ctx context.Context, ator Ator, id int64) (PassagemServico, error) {
	src, err := s.repo.Get(ctx, id)
	if err != nil {
		return PassagemServico{}, err
	}
	if err := PodeCopiar(src, ator.FiscalID); err != nil {
		return PassagemServico{}, err
	}

	existe, err := s.repo.TemRascunho(ctx, ator.FiscalID)
	if err != nil {
		return PassagemServico{}, err
	}
	if existe {
		return PassagemServico{}, ErrDraftAlreadyExists
	}

	emb, err := s.embarcacoes.Get(ctx, src.EmbarcacaoID)
	if err != nil {
		return PassagemServico{}, err
	}
	ciclo, err := ProximoCiclo(emb.PrimeiraEntradaPorto, s.now())
	if err != nil {
		return PassagemServico{}, err
	}

	nova := PassagemServico{
		Numero:                ciclo.Numero,
		Ano:                   ciclo.Ano,
		Status:                StatusRascunho,
		EmbarcacaoID:          src.EmbarcacaoID,
		FiscalDesembarcandoID: ator.FiscalID,
		PeriodoInicio:         ciclo.PeriodoInicio,
		PeriodoFim:            ciclo.PeriodoFim,
		DataEmissao:           ciclo.DataEmissao,
		Atividades:            src.Atividades,
		Pendencias:            src.Pendencias,
		Observacoes:           src.Observacoes,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.Insert(ctx, nova)
		if err != nil {
			return err
		}
		nova.ID = id
		return nil
	})
	if err != nil {
		return PassagemServico{}, err
	}
	s.registrarAuditoria(ctx, ator, "PS_COPIAR", nova.ID, map[string]any{"origem": src.ID, "rotulo": nova.Rotulo()})
	return nova, nil
}

// Excluir removes a draft owned by the acting fiscal.
func (s *Service) Excluir(ctx context.Context, ator Ator, id int64) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := PodeEditar(p, ator.FiscalID, s.now()); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.Delete(ctx, id)
	})
}

// ListarAdmin returns every PS, unscoped. Administrator role required.
func (s *Service) ListarAdmin(ctx context.Context, ator Ator) ([]Detalhe, error) {
	if !ator.Admin {
		return nil, &ForbiddenError{Reason: ReasonRoleRequired}
	}
	items, err := s.repo.List(ctx, Filtro{})
	if err != nil {
		return nil, err
	}
	return s.detalhar(ctx, items)
}

// ExcluirAdmin removes any draft regardless of owner or edit window.
// Finalized records are refused: the audit trail survives administrators.
func (s *Service) ExcluirAdmin(ctx context.Context, ator Ator, id int64) error {
	if !ator.Admin {
		return &ForbiddenError{Reason: ReasonRoleRequired}
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := PodeExcluirAdmin(p); err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.registrarAuditoria(ctx, ator, "PS_EXCLUIR_ADMIN", id, map[string]any{"rotulo": p.Rotulo(), "fiscal_desembarcando": p.FiscalDesembarcandoID})
	return nil
}

// detalhar joins vessel and fiscal display names onto the records. Lookups
// run concurrently over the distinct ids; a missing reference leaves the
// name blank instead of failing the read.
func (s *Service) detalhar(ctx context.Context, items []PassagemServico) ([]Detalhe, error) {
	embNomes := make(map[int64]string)
	fisNomes := make(map[int64]string)
	for _, p := range items {
		embNomes[p.EmbarcacaoID] = ""
		if p.FiscalEmbarcandoID != 0 {
			fisNomes[p.FiscalEmbarcandoID] = ""
		}
		if p.FiscalDesembarcandoID != 0 {
			fisNomes[p.FiscalDesembarcandoID] = ""
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for id := range embNomes {
		g.Go(func() error {
			e, err := s.embarcacoes.Get(gctx, id)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil
				}
				return err
			}
			mu.Lock()
			embNomes[id] = e.Nome
			mu.Unlock()
			return nil
		})
	}
	for id := range fisNomes {
		g.Go(func() error {
			f, err := s.fiscais.Get(gctx, id)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil
				}
				return err
			}
			mu.Lock()
			fisNomes[id] = f.Nome
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dets := make([]Detalhe, 0, len(items))
	for _, p := range items {
		dets = append(dets, Detalhe{
			PassagemServico:         p,
			EmbarcacaoNome:          embNomes[p.EmbarcacaoID],
			FiscalEmbarcandoNome:    fisNomes[p.FiscalEmbarcandoID],
			FiscalDesembarcandoNome: fisNomes[p.FiscalDesembarcandoID],
		})
	}
	return dets, nil
}

func (s *Service) registrarAuditoria(ctx context.Context, ator Ator, acao string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: ator.UserID, Action: acao, Entity: "passagem_servico", EntityID: fmt.Sprintf("%d", id), Meta: meta})
}
