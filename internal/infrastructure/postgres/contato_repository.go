package postgres

import (
	"context"
	"fmt"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/entity"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/repository"
)

var _ repository.ContatoRepository = (*ContatoRepo)(nil)

// ContatoRepo implementação de ContatoRepository (usável com pool, tx ou sessão).
type ContatoRepo struct {
	q Querier
}

// NewContatoRepository constrói o adaptador.
func NewContatoRepository(q Querier) *ContatoRepo {
	return &ContatoRepo{q: q}
}

// ExistingIDs devolve os ids de contato já presentes no banco.
func (r *ContatoRepo) ExistingIDs() (map[int64]struct{}, error) {
	rows, err := r.q.Query(context.Background(), `SELECT id FROM contatos`)
	if err != nil {
		return nil, fmt.Errorf("listar ids de contatos: %w", err)
	}
	defer rows.Close()
	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan contato id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// Upsert insere ou sobrescreve o contato pelo id remoto.
func (r *ContatoRepo) Upsert(c *entity.Contato) error {
	query := `
		INSERT INTO contatos (id, nome, documento, email, tipo_pessoa, municipio, uf, extraido_em)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			nome        = EXCLUDED.nome,
			documento   = EXCLUDED.documento,
			email       = EXCLUDED.email,
			tipo_pessoa = EXCLUDED.tipo_pessoa,
			municipio   = EXCLUDED.municipio,
			uf          = EXCLUDED.uf,
			extraido_em = EXCLUDED.extraido_em`
	_, err := r.q.Exec(context.Background(), query,
		c.ID, nullIfEmpty(c.Nome), nullIfEmpty(c.Documento), nullIfEmpty(c.Email),
		nullIfEmpty(c.TipoPessoa), nullIfEmpty(c.Municipio), nullIfEmpty(c.UF),
	)
	if err != nil {
		return fmt.Errorf("upsert contato id=%d: %w", c.ID, err)
	}
	return nil
}
