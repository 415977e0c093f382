package entity

import "time"

// Contato é o cliente/fornecedor referenciado por uma NF-e.
// Criado uma única vez quando aparece pela primeira vez em uma nota;
// extrações seguintes não reatualizam o snapshot.
type Contato struct {
	ID         int64
	Nome       string
	Documento  string
	Email      string
	TipoPessoa string // F=Física, J=Jurídica
	Municipio  string
	UF         string
	ExtraidoEm time.Time
}
