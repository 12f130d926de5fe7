package ps

import "time"

// JanelaEdicao is the grace period after the end of the covered period during
// which the owning fiscal may still mutate the draft. Compared against the
// full timestamp: the deadline is periodo_fim (midnight) + 24h, exact.
const JanelaEdicao = 24 * time.Hour

// PrazoEdicao returns the instant after which the draft can no longer be
// edited.
func PrazoEdicao(p PassagemServico) time.Time {
	return truncarDia(p.PeriodoFim).Add(JanelaEdicao)
}

// PodeEditar is the editability predicate guarding update, finalize and
// owner delete. It must hold at the moment of the request; callers never
// cache the answer.
func PodeEditar(p PassagemServico, fiscalID int64, agora time.Time) error {
	if p.Status != StatusRascunho {
		return &ForbiddenError{Reason: ReasonWrongStatus}
	}
	if fiscalID == 0 || fiscalID != p.FiscalDesembarcandoID {
		return &ForbiddenError{Reason: ReasonWrongOwner}
	}
	if agora.After(PrazoEdicao(p)) {
		return &ForbiddenError{Reason: ReasonOutsideWindow}
	}
	return nil
}

// PodeCopiar guards the FINALIZADA -> new RASCUNHO transition. Only the
// embarking fiscal of a finalized PS may seed the next draft from it.
func PodeCopiar(p PassagemServico, fiscalID int64) error {
	if p.Status != StatusFinalizada {
		return &ForbiddenError{Reason: ReasonWrongStatus}
	}
	if fiscalID == 0 || fiscalID != p.FiscalEmbarcandoID {
		return &ForbiddenError{Reason: ReasonWrongOwner}
	}
	return nil
}

// PodeExcluirAdmin guards the administrative delete. Ownership and the edit
// window are deliberately not checked; status is. Finalized records stay
// immutable even for administrators.
func PodeExcluirAdmin(p PassagemServico) error {
	if p.Status != StatusRascunho {
		return &ForbiddenError{Reason: ReasonWrongStatus}
	}
	return nil
}
