// Package fiscais holds the operator (fiscal) reference data. A fiscal may
// appear on a PS as the embarking or the disembarking party.
package fiscais

import "time"

// Fiscal is an operator.
type Fiscal struct {
	ID           int64
	Nome         string
	Chave        string // 4-character identification key
	Telefone     string
	CriadoEm     time.Time
	AtualizadoEm time.Time
}
