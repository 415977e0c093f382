package etl

import (
	"context"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/infrastructure/bling"
)

// APIClient é o porto de saída para a API Bling. A implementação concreta é
// o cliente rate-limited de internal/infrastructure/bling; nos tests injeta-se
// um fake.
type APIClient interface {
	ListAllNFes(ctx context.Context, dataInicio, dataFim string) ([]bling.NFeResumo, error)
	GetNFe(ctx context.Context, id int64) (*bling.NFeDetalhe, error)
	GetContato(ctx context.Context, id int64) (*bling.ContatoDetalhe, error)
	GetProdutoPorCodigo(ctx context.Context, codigo string) (*bling.Produto, error)
	// Close libera o cliente; o pipeline garante a chamada em todo caminho
	// de saída, inclusive erro.
	Close()
}

// ClientFactory cria um cliente para o access token da execução corrente.
type ClientFactory func(accessToken string) APIClient

// TokenProvider entrega um access token utilizável (renovando se preciso).
type TokenProvider interface {
	ValidToken(ctx context.Context) (string, error)
}

// Session é a transação de longa duração com commits em checkpoint.
type Session interface {
	Begin(ctx context.Context) error
	Checkpoint(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
