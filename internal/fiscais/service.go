package fiscais

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrValidation indicates invalid fiscal input.
var ErrValidation = errors.New("fiscais: invalid input")

// Service wraps fiscal business rules.
type Service struct {
	repo    Repository
	colator *collate.Collator
}

// NewService constructs the fiscal service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, colator: collate.New(language.BrazilianPortuguese, collate.IgnoreCase)}
}

// List returns fiscais ordered by name with pt-BR collation.
func (s *Service) List(ctx context.Context) ([]Fiscal, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.colator.Sort(sortByNome(list))
	return list, nil
}

// Get fetches one fiscal.
func (s *Service) Get(ctx context.Context, id int64) (Fiscal, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and persists a fiscal. The chave is the 4-character key
// operators sign documents with.
func (s *Service) Create(ctx context.Context, f Fiscal) (Fiscal, error) {
	if err := normalize(&f); err != nil {
		return Fiscal{}, err
	}
	return s.repo.Create(ctx, f)
}

// Update replaces the mutable fiscal fields.
func (s *Service) Update(ctx context.Context, id int64, f Fiscal) error {
	if err := normalize(&f); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, f)
}

// Delete removes a fiscal.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func normalize(f *Fiscal) error {
	f.Nome = strings.TrimSpace(f.Nome)
	f.Chave = strings.ToUpper(strings.TrimSpace(f.Chave))
	f.Telefone = strings.TrimSpace(f.Telefone)
	if f.Nome == "" || len(f.Chave) != 4 {
		return ErrValidation
	}
	return nil
}

type sortByNome []Fiscal

func (s sortByNome) Len() int           { return len(s) }
func (s sortByNome) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s sortByNome) Bytes(i int) []byte { return []byte(s[i].Nome) }
