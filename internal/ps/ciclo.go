package ps

import "time"

// CicloDias is the fixed length of an operational period.
const CicloDias = 14

// Ciclo is the outcome of the numbering calculation: the 14-day period a new
// PS covers, its emission date and its Number/Year label.
type Ciclo struct {
	PeriodoInicio time.Time
	PeriodoFim    time.Time
	DataEmissao   time.Time
	Numero        int
	Ano           int
}

// ProximoCiclo computes the cycle of the next PS for a vessel anchored at
// primeiraEntrada, as seen from hoje. Pure: identical inputs always yield
// identical output.
//
// Cycles are contiguous 14-day windows counted from the anchor date. The
// emission date is the start of the cycle after the one hoje falls in. The
// sequence number restarts every calendar year, re-anchored at
// max(anchor, Jan 1 of the emission year). All arithmetic is day-granular.
func ProximoCiclo(primeiraEntrada, hoje time.Time) (Ciclo, error) {
	if primeiraEntrada.IsZero() {
		return Ciclo{}, ErrMissingAnchorDate
	}

	ancora := truncarDia(primeiraEntrada)
	dia := truncarDia(hoje)

	ciclos := divPiso(diasEntre(ancora, dia), CicloDias)
	inicio := ancora.AddDate(0, 0, ciclos*CicloDias)
	fim := inicio.AddDate(0, 0, CicloDias-1)

	// hoje can already belong to the cycle after the naive computation when
	// the division truncated toward an earlier window.
	if dia.After(fim) {
		inicio = inicio.AddDate(0, 0, CicloDias)
		fim = fim.AddDate(0, 0, CicloDias)
	}

	emissao := inicio.AddDate(0, 0, CicloDias)
	ano := emissao.Year()

	reancora := ancora
	if janeiro := time.Date(ano, time.January, 1, 0, 0, 0, 0, time.UTC); janeiro.After(reancora) {
		reancora = janeiro
	}
	numero := divPiso(diasEntre(reancora, emissao), CicloDias) + 1
	// An anchor set in the future places the emission before the re-anchor
	// and would drive the count below zero. A vessel's first label is 1.
	if numero < 1 {
		numero = 1
	}

	return Ciclo{
		PeriodoInicio: inicio,
		PeriodoFim:    fim,
		DataEmissao:   emissao,
		Numero:        numero,
		Ano:           ano,
	}, nil
}

// truncarDia drops the time-of-day component, normalising to UTC midnight so
// day differences are exact multiples of 24h.
func truncarDia(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func diasEntre(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func divPiso(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
