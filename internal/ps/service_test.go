package ps

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/psweb/psweb/internal/embarcacoes"
	"github.com/psweb/psweb/internal/fiscais"
	"github.com/psweb/psweb/internal/shared"
)

type memRepo struct {
	mu    sync.Mutex
	seq   int64
	itens map[int64]PassagemServico
}

func newMemRepo() *memRepo {
	return &memRepo{itens: make(map[int64]PassagemServico)}
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) Get(_ context.Context, id int64) (PassagemServico, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.itens[id]
	if !ok {
		return PassagemServico{}, ErrNotFound
	}
	return p, nil
}

func (m *memRepo) List(_ context.Context, filtro Filtro) ([]PassagemServico, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PassagemServico
	for _, p := range m.itens {
		if filtro.FiscalID != 0 && p.FiscalDesembarcandoID != filtro.FiscalID && p.FiscalEmbarcandoID != filtro.FiscalID {
			continue
		}
		if filtro.Inicio != nil && p.PeriodoFim.Before(*filtro.Inicio) {
			continue
		}
		if filtro.Fim != nil && p.PeriodoInicio.After(*filtro.Fim) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memRepo) TemRascunho(_ context.Context, fiscalID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.itens {
		if p.Status == StatusRascunho && p.FiscalDesembarcandoID == fiscalID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Insert(_ context.Context, p PassagemServico) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existente := range m.itens {
		if existente.Status == StatusRascunho && existente.FiscalDesembarcandoID == p.FiscalDesembarcandoID {
			return 0, ErrDraftAlreadyExists
		}
	}
	m.seq++
	p.ID = m.seq
	m.itens[p.ID] = p
	return p.ID, nil
}

func (m *memRepo) UpdateEditaveis(_ context.Context, p PassagemServico) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	atual, ok := m.itens[p.ID]
	if !ok {
		return ErrNotFound
	}
	atual.FiscalEmbarcandoID = p.FiscalEmbarcandoID
	atual.Atividades = p.Atividades
	atual.Pendencias = p.Pendencias
	atual.Observacoes = p.Observacoes
	m.itens[p.ID] = atual
	return nil
}

func (m *memRepo) Finalizar(_ context.Context, id int64, documentoPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.itens[id]
	if !ok || p.Status != StatusRascunho {
		return ErrNotFound
	}
	p.Status = StatusFinalizada
	p.DocumentoPath = documentoPath
	m.itens[id] = p
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.itens[id]; !ok {
		return ErrNotFound
	}
	delete(m.itens, id)
	return nil
}

type memEmbarcacoes struct {
	itens map[int64]embarcacoes.Embarcacao
}

func (m *memEmbarcacoes) Get(_ context.Context, id int64) (embarcacoes.Embarcacao, error) {
	e, ok := m.itens[id]
	if !ok {
		return embarcacoes.Embarcacao{}, shared.ErrNotFound
	}
	return e, nil
}

type memFiscais struct {
	itens map[int64]fiscais.Fiscal
}

func (m *memFiscais) Get(_ context.Context, id int64) (fiscais.Fiscal, error) {
	f, ok := m.itens[id]
	if !ok {
		return fiscais.Fiscal{}, shared.ErrNotFound
	}
	return f, nil
}

type stubDocs struct {
	gerar func(ctx context.Context, det Detalhe) (string, error)
}

func (s *stubDocs) Gerar(ctx context.Context, det Detalhe) (string, error) {
	if s.gerar == nil {
		return "/docs/ps.pdf", nil
	}
	return s.gerar(ctx, det)
}

type memAudit struct {
	logs []shared.AuditLog
}

func (m *memAudit) Record(_ context.Context, log shared.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

type fixture struct {
	svc   *Service
	repo  *memRepo
	docs  *stubDocs
	audit *memAudit
}

func novaFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemRepo()
	docs := &stubDocs{}
	audit := &memAudit{}
	emb := &memEmbarcacoes{itens: map[int64]embarcacoes.Embarcacao{
		1: {ID: 1, Nome: "Netuno IV", PrimeiraEntradaPorto: dia(2024, time.January, 1)},
		2: {ID: 2, Nome: "Sem Ancora"},
	}}
	fis := &memFiscais{itens: map[int64]fiscais.Fiscal{
		7: {ID: 7, Nome: "Fiscal Sete"},
		8: {ID: 8, Nome: "Fiscal Oito"},
		9: {ID: 9, Nome: "Fiscal Nove"},
	}}
	svc := NewService(repo, emb, fis, docs, audit)
	svc.now = func() time.Time { return dia(2024, time.March, 5) }
	return &fixture{svc: svc, repo: repo, docs: docs, audit: audit}
}

var (
	fiscal7 = Ator{UserID: 70, FiscalID: 7}
	fiscal8 = Ator{UserID: 80, FiscalID: 8}
	fiscal9 = Ator{UserID: 90, FiscalID: 9}
	admin   = Ator{UserID: 1, Admin: true}
)

func TestCriarDerivaCicloDaAncora(t *testing.T) {
	f := novaFixture(t)

	p, err := f.svc.Criar(context.Background(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)

	require.Equal(t, StatusRascunho, p.Status)
	require.EqualValues(t, 7, p.FiscalDesembarcandoID)
	require.Zero(t, p.FiscalEmbarcandoID)
	// hoje 2024-03-05, ancora 2024-01-01: ciclo corrente 2024-02-26..2024-03-10
	require.Equal(t, dia(2024, time.February, 26), p.PeriodoInicio)
	require.Equal(t, dia(2024, time.March, 10), p.PeriodoFim)
	require.Equal(t, dia(2024, time.March, 11), p.DataEmissao)
	require.Equal(t, "6/2024", p.Rotulo())

	require.Len(t, f.audit.logs, 1)
	require.Equal(t, "PS_CRIAR", f.audit.logs[0].Action)
}

func TestCriarSemVinculoDeFiscal(t *testing.T) {
	f := novaFixture(t)

	_, err := f.svc.Criar(context.Background(), Ator{UserID: 99}, CriarInput{EmbarcacaoID: 1})
	require.Equal(t, ReasonRoleRequired, Reason(err))
}

func TestCriarSegundoRascunho(t *testing.T) {
	f := novaFixture(t)

	_, err := f.svc.Criar(context.Background(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)

	_, err = f.svc.Criar(context.Background(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.ErrorIs(t, err, ErrDraftAlreadyExists)
}

func TestCriarEmbarcacaoSemAncora(t *testing.T) {
	f := novaFixture(t)

	_, err := f.svc.Criar(context.Background(), fiscal7, CriarInput{EmbarcacaoID: 2})
	require.ErrorIs(t, err, ErrMissingAnchorDate)
}

func TestCriarEmbarcacaoInexistente(t *testing.T) {
	f := novaFixture(t)

	_, err := f.svc.Criar(context.Background(), fiscal7, CriarInput{EmbarcacaoID: 404})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "embarcacao_id", ve.Field)
}

func TestAtualizarCamposEditaveis(t *testing.T) {
	f := novaFixture(t)
	p, err := f.svc.Criar(context.Background(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)

	embarcando := int64(9)
	atividades := "ronda diaria concluida"
	atual, err := f.svc.Atualizar(context.Background(), fiscal7, p.ID, Campos{
		FiscalEmbarcandoID: &embarcando,
		Atividades:         &atividades,
	})
	require.NoError(t, err)
	require.EqualValues(t, 9, atual.FiscalEmbarcandoID)
	require.Equal(t, atividades, atual.Atividades)

	salvo, err := f.repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.EqualValues(t, 9, salvo.FiscalEmbarcandoID)
}

func TestAtualizarFiscalEmbarcandoInexistente(t *testing.T) {
	f := novaFixture(t)
	p, err := f.svc.Criar(context.Background(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)

	embarcando := int64(404)
	_, err = f.svc.Atualizar(context.Background(), fiscal7, p.ID, Campos{FiscalEmbarcandoID: &embarcando})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "fiscal_embarcando_id", ve.Field)

	salvo, err := f.repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Zero(t, salvo.FiscalEmbarcandoID)
}

func TestAtualizarPorOutroFiscal(t *testing.T) {
	f := novaFixture(t)
	p, err := f.svc.Criar(context.Background(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)

	texto := "tentativa alheia"
	_, err = f.svc.Atualizar(context.Background(), fiscal8, p.ID, Campos{Atividades: &texto})
	require.Equal(t, ReasonWrongOwner, Reason(err))
}

func TestAtualizarForaDaJanela(t *testing.T) {
	f := novaFixture(t)
	p, err := f.svc.Criar(context.Background(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)

	// periodo_fim 2024-03-10, prazo 2024-03-11 meia-noite + 24h
	f.svc.now = func() time.Time { return time.Date(2024, time.March, 12, 0, 1, 0, 0, time.UTC) }
	texto := "tarde demais"
	_, err = f.svc.Atualizar(context.Background(), fiscal7, p.ID, Campos{Atividades: &texto})
	require.Equal(t, ReasonOutsideWindow, Reason(err))
}

func TestFinalizarGravaStatusEDocumentoJuntos(t *testing.T) {
	f := novaFixture(t)
	p, err := f.svc.Criar(context.Background(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)

	fin, err := f.svc.Finalizar(context.Background(), fiscal7, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFinalizada, fin.Status)
	require.Equal(t, "/docs/ps.pdf", fin.DocumentoPath)

	texto := "nao deve passar"
	_, err = f.svc.Atualizar(context.Background(), fiscal7, p.ID, Campos{Atividades: &texto})
	require.Equal(t, ReasonWrongStatus, Reason(err))
}

func TestFinalizarFalhaDeGeracaoMantemRascunho(t *testing.T) {
	f := novaFixture(t)
	p, err := f.svc.Criar(context.Background(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)

	f.docs.gerar = func(context.Context, Detalhe) (string, error) {
		return "", context.DeadlineExceeded
	}
	_, err = f.svc.Finalizar(context.Background(), fiscal7, p.ID)
	require.ErrorIs(t, err, ErrDependencyFailure)

	salvo, err := f.repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRascunho, salvo.Status)
	require.Empty(t, salvo.DocumentoPath)
}

func finalizadaCom(t *testing.T, f *fixture, dono Ator, embarcando int64) PassagemServico {
	t.Helper()
	p, err := f.svc.Criar(context.Background(), dono, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)
	id := embarcando
	texto := "pendencia de bordo"
	_, err = f.svc.Atualizar(context.Background(), dono, p.ID, Campos{FiscalEmbarcandoID: &id, Pendencias: &texto})
	require.NoError(t, err)
	fin, err := f.svc.Finalizar(context.Background(), dono, p.ID)
	require.NoError(t, err)
	return fin
}

func TestCopiarSemeiaNovoRascunho(t *testing.T) {
	f := novaFixture(t)
	origem := finalizadaCom(t, f, fiscal7, 9)

	// a copia acontece ja no periodo seguinte ao da origem
	f.svc.now = func() time.Time { return dia(2024, time.March, 19) }

	nova, err := f.svc.Copiar(context.Background(), fiscal9, origem.ID)
	require.NoError(t, err)

	require.NotEqual(t, origem.ID, nova.ID)
	require.Equal(t, StatusRascunho, nova.Status)
	require.EqualValues(t, 9, nova.FiscalDesembarcandoID)
	require.Zero(t, nova.FiscalEmbarcandoID)
	require.Equal(t, origem.EmbarcacaoID, nova.EmbarcacaoID)
	require.Equal(t, origem.Pendencias, nova.Pendencias)
	require.Empty(t, nova.DocumentoPath)
	// ciclo recalculado da ancora no momento da copia, nao herdado da origem
	require.NotEqual(t, origem.PeriodoInicio, nova.PeriodoInicio)
	require.Equal(t, dia(2024, time.March, 11), nova.PeriodoInicio)
	require.Equal(t, dia(2024, time.March, 24), nova.PeriodoFim)
	require.Equal(t, dia(2024, time.March, 25), nova.DataEmissao)
	require.Equal(t, origem.Numero+1, nova.Numero)
}

func TestCopiarPorQuemNaoEmbarca(t *testing.T) {
	f := novaFixture(t)
	origem := finalizadaCom(t, f, fiscal7, 9)

	_, err := f.svc.Copiar(context.Background(), fiscal8, origem.ID)
	require.Equal(t, ReasonWrongOwner, Reason(err))
}

func TestCopiarRascunho(t *testing.T) {
	f := novaFixture(t)
	p, err := f.svc.Criar(context.Background(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)

	_, err = f.svc.Copiar(context.Background(), fiscal9, p.ID)
	require.Equal(t, ReasonWrongStatus, Reason(err))
}

func TestCopiarComRascunhoPendente(t *testing.T) {
	f := novaFixture(t)
	origem := finalizadaCom(t, f, fiscal7, 9)

	_, err := f.svc.Criar(context.Background(), fiscal9, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)

	_, err = f.svc.Copiar(context.Background(), fiscal9, origem.ID)
	require.ErrorIs(t, err, ErrDraftAlreadyExists)
}

func TestExcluirPeloDono(t *testing.T) {
	f := novaFixture(t)
	p, err := f.svc.Criar(context.Background(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)

	require.NoError(t, f.svc.Excluir(context.Background(), fiscal7, p.ID))

	_, err = f.repo.Get(context.Background(), p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExcluirAdmin(t *testing.T) {
	f := novaFixture(t)
	p, err := f.svc.Criar(context.Background(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)

	// admin sem papel e negado antes de qualquer leitura
	err = f.svc.ExcluirAdmin(context.Background(), fiscal8, p.ID)
	require.Equal(t, ReasonRoleRequired, Reason(err))

	require.NoError(t, f.svc.ExcluirAdmin(context.Background(), admin, p.ID))
	_, err = f.repo.Get(context.Background(), p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExcluirAdminFinalizada(t *testing.T) {
	f := novaFixture(t)
	origem := finalizadaCom(t, f, fiscal7, 9)

	err := f.svc.ExcluirAdmin(context.Background(), admin, origem.ID)
	require.Equal(t, ReasonWrongStatus, Reason(err))
}

func TestListarEscopoDoFiscal(t *testing.T) {
	f := novaFixture(t)
	finalizadaCom(t, f, fiscal7, 9)
	_, err := f.svc.Criar(context.Background(), fiscal8, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)

	doSete, err := f.svc.Listar(context.Background(), fiscal7, nil, nil)
	require.NoError(t, err)
	require.Len(t, doSete, 1)
	require.Equal(t, "Netuno IV", doSete[0].EmbarcacaoNome)
	require.Equal(t, "Fiscal Sete", doSete[0].FiscalDesembarcandoNome)
	require.Equal(t, "Fiscal Nove", doSete[0].FiscalEmbarcandoNome)

	doNove, err := f.svc.Listar(context.Background(), fiscal9, nil, nil)
	require.NoError(t, err)
	require.Len(t, doNove, 1)

	tudo, err := f.svc.ListarAdmin(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, tudo, 2)
}

func TestListarAdminSemPapel(t *testing.T) {
	f := novaFixture(t)

	_, err := f.svc.ListarAdmin(context.Background(), fiscal7)
	require.Equal(t, ReasonRoleRequired, Reason(err))
	require.True(t, errors.Is(err, ErrForbidden))
}
