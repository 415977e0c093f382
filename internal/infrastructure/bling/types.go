package bling

import "github.com/shopspring/decimal"

// Payloads da API Bling v3. Só os campos que o coletor consome; o resto do
// JSON é ignorado pelo decoder.

// NFeResumo é um registro da listagem GET /nfe.
type NFeResumo struct {
	ID          int64         `json:"id"`
	Numero      string        `json:"numero"`
	DataEmissao string        `json:"dataEmissao"`
	Situacao    int           `json:"situacao"`
	Contato     ContatoResumo `json:"contato"`
}

// ContatoResumo snapshot do contato embutido na listagem de NF-e.
type ContatoResumo struct {
	ID              int64    `json:"id"`
	Nome            string   `json:"nome"`
	NumeroDocumento string   `json:"numeroDocumento"`
	Endereco        Endereco `json:"endereco"`
}

// Endereco campos de endereço usados pelo coletor.
type Endereco struct {
	Municipio string `json:"municipio"`
	UF        string `json:"uf"`
}

// NFeDetalhe é a resposta de GET /nfe/{id}.
type NFeDetalhe struct {
	Data NFeDetalheData `json:"data"`
}

// NFeDetalheData é o corpo do detalhe na variante simplificada do payload
// (itens e parcelas no topo de data). A variante com documento fiscal
// embutido não é interpretada; ver Simplificada.
type NFeDetalheData struct {
	ID        int64           `json:"id"`
	ValorNota decimal.Decimal `json:"valorNota"`
	Contato   ContatoResumo   `json:"contato"`
	Itens     []ItemDetalhe   `json:"itens"`
	Parcelas  []Parcela       `json:"parcelas"`
}

// Simplificada informa se o payload está na variante que o coletor sabe
// normalizar. Um detalhe sem itens, parcelas e valor é tratado como formato
// desconhecido e vira erro de mapeamento do registro.
func (d NFeDetalheData) Simplificada() bool {
	return len(d.Itens) > 0 || len(d.Parcelas) > 0 || !d.ValorNota.IsZero()
}

// ItemDetalhe é uma linha de item de data.itens[].
type ItemDetalhe struct {
	Codigo     string          `json:"codigo"`
	Descricao  string          `json:"descricao"`
	Unidade    string          `json:"unidade"`
	Quantidade decimal.Decimal `json:"quantidade"`
	Valor      decimal.Decimal `json:"valor"`
	ValorTotal decimal.Decimal `json:"valorTotal"`
}

// Parcela é uma parcela de pagamento de data.parcelas[].
type Parcela struct {
	FormaPagamento FormaPagamento  `json:"formaPagamento"`
	Valor          decimal.Decimal `json:"valor"`
}

// FormaPagamento identifica o meio de pagamento da parcela.
type FormaPagamento struct {
	ID int `json:"id"`
}

// ContatoDetalhe é a resposta de GET /contatos/{id}.
type ContatoDetalhe struct {
	Data ContatoDetalheData `json:"data"`
}

// ContatoDetalheData corpo do detalhe do contato.
type ContatoDetalheData struct {
	ID              int64           `json:"id"`
	Nome            string          `json:"nome"`
	NumeroDocumento string          `json:"numeroDocumento"`
	Email           string          `json:"email"`
	Tipo            string          `json:"tipo"` // F=Física, J=Jurídica
	Endereco        ContatoEndereco `json:"endereco"`
}

// ContatoEndereco agrupa o endereço geral do contato.
type ContatoEndereco struct {
	Geral Endereco `json:"geral"`
}

// Produto é um registro de GET /produtos (lista ou detalhe).
type Produto struct {
	ID         int64           `json:"id"`
	Nome       string          `json:"nome"`
	Preco      decimal.Decimal `json:"preco"`
	Fornecedor Fornecedor      `json:"fornecedor"`
	Categoria  Categoria       `json:"categoria"`
}

// Fornecedor carrega o preço de custo do produto.
type Fornecedor struct {
	PrecoCusto decimal.Decimal `json:"precoCusto"`
}

// Categoria do produto.
type Categoria struct {
	ID        int64  `json:"id"`
	Descricao string `json:"descricao"`
}

type nfeListResponse struct {
	Data []NFeResumo `json:"data"`
}

type produtoListResponse struct {
	Data []Produto `json:"data"`
}
