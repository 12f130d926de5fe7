package embarcacoes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memRepo struct {
	itens []Embarcacao
}

func (m *memRepo) List(context.Context) ([]Embarcacao, error) {
	out := make([]Embarcacao, len(m.itens))
	copy(out, m.itens)
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id int64) (Embarcacao, error) {
	for _, e := range m.itens {
		if e.ID == id {
			return e, nil
		}
	}
	return Embarcacao{}, ErrValidation
}

func (m *memRepo) Create(_ context.Context, e Embarcacao) (Embarcacao, error) {
	e.ID = int64(len(m.itens) + 1)
	m.itens = append(m.itens, e)
	return e, nil
}

func (m *memRepo) Update(context.Context, int64, Embarcacao) error { return nil }
func (m *memRepo) Delete(context.Context, int64) error             { return nil }

func TestListOrdenaComColacaoPtBR(t *testing.T) {
	repo := &memRepo{itens: []Embarcacao{
		{ID: 1, Nome: "Vitória Régia"},
		{ID: 2, Nome: "Bravo"},
		{ID: 3, Nome: "âncora"},
		{ID: 4, Nome: "Ágata"},
	}}
	svc := NewService(repo)

	list, err := svc.List(context.Background())
	require.NoError(t, err)

	nomes := make([]string, 0, len(list))
	for _, e := range list {
		nomes = append(nomes, e.Nome)
	}
	require.Equal(t, []string{"Ágata", "âncora", "Bravo", "Vitória Régia"}, nomes)
}

func TestCreateNormaliza(t *testing.T) {
	svc := NewService(&memRepo{})

	e, err := svc.Create(context.Background(), Embarcacao{
		Nome:                 "  Netuno IV  ",
		Tipo:                 " PSV ",
		PrimeiraEntradaPorto: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, "Netuno IV", e.Nome)
	require.Equal(t, "PSV", e.Tipo)

	_, err = svc.Create(context.Background(), Embarcacao{Nome: "   "})
	require.ErrorIs(t, err, ErrValidation)
}
