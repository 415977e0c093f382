package postgres

import (
	"context"
	"fmt"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/entity"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/repository"
)

var _ repository.ProdutoRepository = (*ProdutoRepo)(nil)

// ProdutoRepo implementação de ProdutoRepository (usável com pool, tx ou sessão).
type ProdutoRepo struct {
	q Querier
}

// NewProdutoRepository constrói o adaptador.
func NewProdutoRepository(q Querier) *ProdutoRepo {
	return &ProdutoRepo{q: q}
}

// ExistingCodigos devolve os códigos de produto já presentes no banco.
func (r *ProdutoRepo) ExistingCodigos() (map[string]struct{}, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT codigo FROM produtos WHERE codigo IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("listar codigos de produtos: %w", err)
	}
	defer rows.Close()
	codigos := make(map[string]struct{})
	for rows.Next() {
		var codigo string
		if err := rows.Scan(&codigo); err != nil {
			return nil, fmt.Errorf("scan produto codigo: %w", err)
		}
		codigos[codigo] = struct{}{}
	}
	return codigos, rows.Err()
}

// Upsert insere ou sobrescreve o produto pelo id remoto.
func (r *ProdutoRepo) Upsert(p *entity.Produto) error {
	query := `
		INSERT INTO produtos (id, codigo, nome, preco_venda, preco_custo, categoria_id,
			categoria_descricao, extraido_em)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			codigo              = EXCLUDED.codigo,
			nome                = EXCLUDED.nome,
			preco_venda         = EXCLUDED.preco_venda,
			preco_custo         = EXCLUDED.preco_custo,
			categoria_id        = EXCLUDED.categoria_id,
			categoria_descricao = EXCLUDED.categoria_descricao,
			extraido_em         = EXCLUDED.extraido_em`
	_, err := r.q.Exec(context.Background(), query,
		p.ID, nullIfEmpty(p.Codigo), nullIfEmpty(p.Nome), p.PrecoVenda, p.PrecoCusto,
		nullIfZero(p.CategoriaID), nullIfEmpty(p.CategoriaDescricao),
	)
	if err != nil {
		return fmt.Errorf("upsert produto id=%d: %w", p.ID, err)
	}
	return nil
}

func nullIfZero(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
