package repository

import "github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/entity"

// ProdutoRepository persistência de produtos (snapshot criado uma única vez).
type ProdutoRepository interface {
	// ExistingCodigos devolve os códigos já presentes no banco.
	ExistingCodigos() (map[string]struct{}, error)
	// Upsert insere ou sobrescreve pelo id remoto (código tem constraint única).
	Upsert(p *entity.Produto) error
}
