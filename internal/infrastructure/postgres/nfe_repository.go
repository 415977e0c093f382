package postgres

import (
	"context"
	"fmt"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/entity"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/repository"
)

var _ repository.NFeRepository = (*NFeRepo)(nil)

// NFeRepo implementação de NFeRepository (usável com pool, tx ou a sessão de ETL).
type NFeRepo struct {
	q Querier
}

// NewNFeRepository constrói o adaptador. Passar a sessão de ETL para que as
// gravações participem dos checkpoints.
func NewNFeRepository(q Querier) *NFeRepo {
	return &NFeRepo{q: q}
}

// UpsertCabecalho insere ou sobrescreve o cabeçalho pelo id remoto.
func (r *NFeRepo) UpsertCabecalho(nfe *entity.NFe) error {
	query := `
		INSERT INTO nfe_cabecalho (id, numero, data_emissao, situacao, contato_id, contato_nome,
			contato_documento, contato_municipio, contato_uf, total_produtos, total_nota,
			total_descontos, extraido_em)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (id) DO UPDATE SET
			numero            = EXCLUDED.numero,
			data_emissao      = EXCLUDED.data_emissao,
			situacao          = EXCLUDED.situacao,
			contato_id        = EXCLUDED.contato_id,
			contato_nome      = EXCLUDED.contato_nome,
			contato_documento = EXCLUDED.contato_documento,
			contato_municipio = EXCLUDED.contato_municipio,
			contato_uf        = EXCLUDED.contato_uf,
			total_produtos    = EXCLUDED.total_produtos,
			total_nota        = EXCLUDED.total_nota,
			total_descontos   = EXCLUDED.total_descontos,
			extraido_em       = EXCLUDED.extraido_em`
	_, err := r.q.Exec(context.Background(), query,
		nfe.ID, nullIfEmpty(nfe.Numero), nfe.DataEmissao, nfe.Situacao,
		nfe.ContatoID, nullIfEmpty(nfe.ContatoNome), nullIfEmpty(nfe.ContatoDocumento),
		nullIfEmpty(nfe.ContatoMunicipio), nullIfEmpty(nfe.ContatoUF),
		nfe.TotalProdutos, nfe.TotalNota, nfe.TotalDescontos,
	)
	if err != nil {
		return fmt.Errorf("upsert nfe cabecalho id=%d: %w", nfe.ID, err)
	}
	return nil
}

// agregarItens funde itens com o mesmo código de produto em uma linha,
// acumulando quantidade, valor_total e valor_desconto; os demais campos
// ficam com o valor da última ocorrência. A ordem da primeira ocorrência de
// cada código é preservada, e um lote já sem repetições sai inalterado, de
// forma que reprocessar o mesmo payload produz sempre o mesmo conjunto.
func agregarItens(itens []entity.NFeItem) []entity.NFeItem {
	porCodigo := make(map[string]int, len(itens))
	agregados := make([]entity.NFeItem, 0, len(itens))
	for _, item := range itens {
		i, visto := porCodigo[item.CodigoProduto]
		if !visto {
			porCodigo[item.CodigoProduto] = len(agregados)
			agregados = append(agregados, item)
			continue
		}
		acc := &agregados[i]
		acc.Quantidade = acc.Quantidade.Add(item.Quantidade)
		acc.ValorTotal = acc.ValorTotal.Add(item.ValorTotal)
		acc.ValorDesconto = acc.ValorDesconto.Add(item.ValorDesconto)
		acc.DescricaoProduto = item.DescricaoProduto
		acc.ValorUnitario = item.ValorUnitario
		acc.UnidadeMedida = item.UnidadeMedida
	}
	return agregados
}

// ReplaceItens apaga e reinsere o conjunto completo de itens da nota.
// Códigos repetidos no mesmo payload são fundidos por agregarItens antes da
// reinserção; o ON CONFLICT na constraint uq_nfe_item acumula da mesma forma
// caso um duplicado chegue ao banco por outro caminho.
func (r *NFeRepo) ReplaceItens(nfeID int64, itens []entity.NFeItem) error {
	ctx := context.Background()
	if _, err := r.q.Exec(ctx, `DELETE FROM nfe_itens WHERE nfe_id = $1`, nfeID); err != nil {
		return fmt.Errorf("delete itens nfe=%d: %w", nfeID, err)
	}
	query := `
		INSERT INTO nfe_itens (nfe_id, codigo_produto, descricao_produto, quantidade,
			valor_unitario, valor_total, valor_desconto, unidade_medida)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT uq_nfe_item DO UPDATE SET
			descricao_produto = EXCLUDED.descricao_produto,
			quantidade        = nfe_itens.quantidade + EXCLUDED.quantidade,
			valor_unitario    = EXCLUDED.valor_unitario,
			valor_total       = nfe_itens.valor_total + EXCLUDED.valor_total,
			valor_desconto    = nfe_itens.valor_desconto + EXCLUDED.valor_desconto,
			unidade_medida    = EXCLUDED.unidade_medida`
	for _, item := range agregarItens(itens) {
		_, err := r.q.Exec(ctx, query,
			nfeID, item.CodigoProduto, nullIfEmpty(item.DescricaoProduto),
			item.Quantidade, item.ValorUnitario, item.ValorTotal, item.ValorDesconto,
			nullIfEmpty(item.UnidadeMedida),
		)
		if err != nil {
			return fmt.Errorf("insert item nfe=%d codigo=%s: %w", nfeID, item.CodigoProduto, err)
		}
	}
	return nil
}

// ReplacePagamentos apaga e reinsere as parcelas da nota (id serial).
func (r *NFeRepo) ReplacePagamentos(nfeID int64, pagamentos []entity.NFePagamento) error {
	ctx := context.Background()
	if _, err := r.q.Exec(ctx, `DELETE FROM nfe_pagamentos WHERE nfe_id = $1`, nfeID); err != nil {
		return fmt.Errorf("delete pagamentos nfe=%d: %w", nfeID, err)
	}
	for _, pag := range pagamentos {
		_, err := r.q.Exec(ctx,
			`INSERT INTO nfe_pagamentos (nfe_id, tipo_pagamento, valor) VALUES ($1, $2, $3)`,
			nfeID, pag.TipoPagamento, pag.Valor,
		)
		if err != nil {
			return fmt.Errorf("insert pagamento nfe=%d: %w", nfeID, err)
		}
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
