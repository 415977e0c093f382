package repository

import "github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/entity"

// NFeRepository aplica o merge idempotente de notas fiscais.
type NFeRepository interface {
	// UpsertCabecalho insere ou sobrescreve o cabeçalho pelo id remoto.
	UpsertCabecalho(nfe *entity.NFe) error
	// ReplaceItens apaga e reinsere o conjunto completo de itens da nota.
	// Dentro do mesmo lote, uma chave (nfe, código) repetida acumula
	// quantidade/valor_total/valor_desconto.
	ReplaceItens(nfeID int64, itens []entity.NFeItem) error
	// ReplacePagamentos apaga e reinsere as parcelas da nota.
	ReplacePagamentos(nfeID int64, pagamentos []entity.NFePagamento) error
}
