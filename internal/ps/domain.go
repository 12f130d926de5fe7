// Package ps implements the lifecycle of a Passagem de Serviço: the shift
// handover record shared by the embarking and disembarking fiscais of a
// vessel across a fixed 14-day operational period.
package ps

import (
	"errors"
	"fmt"
	"time"
)

// PS lifecycle statuses. Deletion removes the record, there is no
// tombstone status.
type Status string

const (
	StatusRascunho   Status = "RASCUNHO"
	StatusFinalizada Status = "FINALIZADA"
)

// PassagemServico is the authoritative handover record. Display names of the
// vessel and fiscais are joined at read time, never stored here.
type PassagemServico struct {
	ID                    int64
	Numero                int
	Ano                   int
	Status                Status
	EmbarcacaoID          int64
	FiscalEmbarcandoID    int64 // zero until the embarking fiscal is assigned
	FiscalDesembarcandoID int64 // owner and author of the draft
	PeriodoInicio         time.Time
	PeriodoFim            time.Time
	DataEmissao           time.Time
	Atividades            string
	Pendencias            string
	Observacoes           string
	DocumentoPath         string
	CriadaEm              time.Time
	AtualizadaEm          time.Time
}

// Rotulo returns the human-readable Number/Year label, e.g. "7/2024".
func (p PassagemServico) Rotulo() string {
	return fmt.Sprintf("%d/%d", p.Numero, p.Ano)
}

// Detalhe carries a PS together with the display data joined from the
// reference entities.
type Detalhe struct {
	PassagemServico
	EmbarcacaoNome          string
	FiscalEmbarcandoNome    string
	FiscalDesembarcandoNome string
}

// Ator identifies the requester for permission checks. It is resolved fresh
// for every request by the identity layer and passed explicitly, never held
// in package state.
type Ator struct {
	UserID   int64
	FiscalID int64
	Admin    bool
}

var (
	// ErrNotFound indicates the PS does not exist.
	ErrNotFound = errors.New("ps: not found")
	// ErrDraftAlreadyExists indicates the fiscal already owns a RASCUNHO.
	ErrDraftAlreadyExists = errors.New("ps: draft already exists for fiscal")
	// ErrMissingAnchorDate indicates the vessel has no first port entry date.
	ErrMissingAnchorDate = errors.New("ps: missing anchor date")
	// ErrDependencyFailure indicates an external collaborator failed or timed out.
	ErrDependencyFailure = errors.New("ps: dependency failure")
	// ErrForbidden is the class matched by every ForbiddenError.
	ErrForbidden = errors.New("ps: forbidden")
)

// ForbiddenReason discriminates why a transition was denied. The UI relies on
// these to explain the denial, so they must never collapse into one value.
type ForbiddenReason string

const (
	ReasonWrongStatus   ForbiddenReason = "WRONG_STATUS"
	ReasonOutsideWindow ForbiddenReason = "OUTSIDE_WINDOW"
	ReasonWrongOwner    ForbiddenReason = "WRONG_OWNER"
	ReasonRoleRequired  ForbiddenReason = "ROLE_REQUIRED"
)

// ForbiddenError is returned for every guarded transition that fails.
type ForbiddenError struct {
	Reason ForbiddenReason
}

func (e *ForbiddenError) Error() string {
	return "ps: forbidden: " + string(e.Reason)
}

// Is lets callers match any denial with errors.Is(err, ErrForbidden).
func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "ps: invalid field " + e.Field
}

// Reason extracts the ForbiddenReason from err, or "" when err is not a
// denial.
func Reason(err error) ForbiddenReason {
	var fe *ForbiddenError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ""
}
