package repository

import "github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/entity"

// ContatoRepository persistência de contatos (snapshot criado uma única vez).
type ContatoRepository interface {
	// ExistingIDs devolve os ids já presentes no banco, para o set-difference
	// da etapa de contatos.
	ExistingIDs() (map[int64]struct{}, error)
	// Upsert insere ou sobrescreve pelo id remoto.
	Upsert(c *entity.Contato) error
}
