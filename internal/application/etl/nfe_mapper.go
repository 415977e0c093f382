package etl

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/entity"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/infrastructure/bling"
)

const dateLayout = "2006-01-02"

// Formatos de dataEmissao observados na API.
var emissaoLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

// mapearNFe normaliza o par listagem+detalhe para as entidades canônicas.
//
// O total de produtos é calculado somando o valorTotal dos itens do detalhe,
// não lido de um campo único, para tolerar drift de schema no payload; o
// desconto é a diferença não-negativa entre esse total e o valor líquido da
// nota. Um detalhe fora da variante simplificada vira MappingError (o
// registro é pulado, nunca aborta a execução).
func mapearNFe(resumo bling.NFeResumo, det *bling.NFeDetalhe) (*entity.NFe, []entity.NFeItem, []entity.NFePagamento, error) {
	if det == nil || !det.Data.Simplificada() {
		return nil, nil, nil, &domain.MappingError{
			Entidade: "nfe",
			ID:       strconv.FormatInt(resumo.ID, 10),
			Reason:   "formato de payload desconhecido (sem itens, parcelas ou valor)",
		}
	}

	totalProdutos := decimal.Zero
	for _, it := range det.Data.Itens {
		totalProdutos = totalProdutos.Add(it.ValorTotal)
	}
	desconto := totalProdutos.Sub(det.Data.ValorNota)
	if desconto.IsNegative() {
		desconto = decimal.Zero
	}

	nfe := &entity.NFe{
		ID:               resumo.ID,
		Numero:           resumo.Numero,
		DataEmissao:      parseEmissao(resumo.DataEmissao),
		Situacao:         resumo.Situacao,
		ContatoID:        resumo.Contato.ID,
		ContatoNome:      resumo.Contato.Nome,
		ContatoDocumento: resumo.Contato.NumeroDocumento,
		ContatoMunicipio: resumo.Contato.Endereco.Municipio,
		ContatoUF:        resumo.Contato.Endereco.UF,
		TotalProdutos:    totalProdutos,
		TotalNota:        det.Data.ValorNota,
		TotalDescontos:   desconto,
	}

	itens := make([]entity.NFeItem, 0, len(det.Data.Itens))
	for _, it := range det.Data.Itens {
		itens = append(itens, entity.NFeItem{
			NFeID:            resumo.ID,
			CodigoProduto:    it.Codigo,
			DescricaoProduto: it.Descricao,
			Quantidade:       it.Quantidade,
			ValorUnitario:    it.Valor,
			ValorTotal:       it.ValorTotal,
			ValorDesconto:    decimal.Zero,
			UnidadeMedida:    it.Unidade,
		})
	}

	pagamentos := make([]entity.NFePagamento, 0, len(det.Data.Parcelas))
	for _, parc := range det.Data.Parcelas {
		pagamentos = append(pagamentos, entity.NFePagamento{
			NFeID:         resumo.ID,
			TipoPagamento: parc.FormaPagamento.ID,
			Valor:         parc.Valor,
		})
	}

	return nfe, itens, pagamentos, nil
}

// mapearContato normaliza o detalhe do contato.
func mapearContato(id int64, det *bling.ContatoDetalhe) *entity.Contato {
	return &entity.Contato{
		ID:         id,
		Nome:       det.Data.Nome,
		Documento:  det.Data.NumeroDocumento,
		Email:      det.Data.Email,
		TipoPessoa: det.Data.Tipo,
		Municipio:  det.Data.Endereco.Geral.Municipio,
		UF:         det.Data.Endereco.Geral.UF,
	}
}

// mapearProduto normaliza o produto da API, preservando o código pesquisado.
func mapearProduto(codigo string, p *bling.Produto) *entity.Produto {
	return &entity.Produto{
		ID:                 p.ID,
		Codigo:             codigo,
		Nome:               p.Nome,
		PrecoVenda:         p.Preco,
		PrecoCusto:         p.Fornecedor.PrecoCusto,
		CategoriaID:        p.Categoria.ID,
		CategoriaDescricao: p.Categoria.Descricao,
	}
}

func parseEmissao(s string) *time.Time {
	for _, layout := range emissaoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
