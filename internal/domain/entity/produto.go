package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Produto é um produto do catálogo Bling. Codigo é único; a política de
// criação é a mesma dos contatos: uma vez inserido, não é reatualizado.
type Produto struct {
	ID                 int64
	Codigo             string
	Nome               string
	PrecoVenda         decimal.Decimal
	PrecoCusto         decimal.Decimal
	CategoriaID        int64
	CategoriaDescricao string
	ExtraidoEm         time.Time
}
