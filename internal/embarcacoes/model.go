// Package embarcacoes holds the vessel reference data consumed by the PS
// lifecycle. A PS only references a vessel by id; the anchor date kept here
// is the origin of every numbering cycle.
package embarcacoes

import "time"

// Embarcacao is a vessel.
type Embarcacao struct {
	ID                   int64
	Nome                 string
	Tipo                 string
	PrimeiraEntradaPorto time.Time // zero when not yet recorded
	CriadaEm             time.Time
	AtualizadaEm         time.Time
}
