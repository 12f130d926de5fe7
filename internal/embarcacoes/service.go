package embarcacoes

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrValidation indicates invalid vessel input.
var ErrValidation = errors.New("embarcacoes: invalid input")

// Service wraps vessel business rules.
type Service struct {
	repo    Repository
	colator *collate.Collator
}

// NewService constructs the vessel service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, colator: collate.New(language.BrazilianPortuguese, collate.IgnoreCase)}
}

// List returns vessels ordered by name with pt-BR collation so accented
// names sort where a reader expects them.
func (s *Service) List(ctx context.Context) ([]Embarcacao, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.colator.Sort(sortByNome(list))
	return list, nil
}

// Get fetches one vessel.
func (s *Service) Get(ctx context.Context, id int64) (Embarcacao, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and persists a vessel.
func (s *Service) Create(ctx context.Context, e Embarcacao) (Embarcacao, error) {
	e.Nome = strings.TrimSpace(e.Nome)
	e.Tipo = strings.TrimSpace(e.Tipo)
	if e.Nome == "" {
		return Embarcacao{}, ErrValidation
	}
	return s.repo.Create(ctx, e)
}

// Update replaces the mutable vessel fields.
func (s *Service) Update(ctx context.Context, id int64, e Embarcacao) error {
	e.Nome = strings.TrimSpace(e.Nome)
	e.Tipo = strings.TrimSpace(e.Tipo)
	if e.Nome == "" {
		return ErrValidation
	}
	return s.repo.Update(ctx, id, e)
}

// Delete removes a vessel.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

type sortByNome []Embarcacao

func (s sortByNome) Len() int           { return len(s) }
func (s sortByNome) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s sortByNome) Bytes(i int) []byte { return []byte(s[i].Nome) }
