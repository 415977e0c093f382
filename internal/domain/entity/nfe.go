package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// NFe representa o cabeçalho de uma nota fiscal extraída do Bling.
// O ID é o id remoto (estável, nunca gerado localmente). Os campos Contato*
// são um snapshot desnormalizado no momento da extração, não uma referência
// viva à tabela de contatos.
type NFe struct {
	ID               int64
	Numero           string
	DataEmissao      *time.Time
	Situacao         int
	ContatoID        int64
	ContatoNome      string
	ContatoDocumento string
	ContatoMunicipio string
	ContatoUF        string
	TotalProdutos    decimal.Decimal
	TotalNota        decimal.Decimal
	TotalDescontos   decimal.Decimal
	ExtraidoEm       time.Time
}

// NFeItem é uma linha de item da nota. Única por (nfe_id, codigo_produto);
// dentro de um mesmo lote de reinserção, uma chave repetida acumula
// quantidade/valor_total/valor_desconto em vez de sobrescrever.
type NFeItem struct {
	ID               int64
	NFeID            int64
	CodigoProduto    string
	DescricaoProduto string
	Quantidade       decimal.Decimal
	ValorUnitario    decimal.Decimal
	ValorTotal       decimal.Decimal
	ValorDesconto    decimal.Decimal
	UnidadeMedida    string
}

// NFePagamento é uma parcela de pagamento da nota (única só pelo id serial).
// TipoPagamento: 1=Dinheiro, 2=Cheque, 3=CC, 4=CD, 15=Boleto, 17=PIX.
type NFePagamento struct {
	ID            int64
	NFeID         int64
	TipoPagamento int
	Valor         decimal.Decimal
}
