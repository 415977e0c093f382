package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/entity"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/repository"
)

var _ repository.ETLRunRepository = (*ETLRunRepo)(nil)

// ETLRunRepo histórico de execuções sobre PostgreSQL. Montar sobre o pool:
// o registro da execução é criado antes de qualquer I/O de rede e precisa
// sobreviver ao rollback do pipeline.
type ETLRunRepo struct {
	q Querier
}

// NewETLRunRepository constrói o adaptador. Passar o pool, não a sessão de ETL.
func NewETLRunRepository(q Querier) *ETLRunRepo {
	return &ETLRunRepo{q: q}
}

// Create abre uma execução em estado running e devolve seu id.
func (r *ETLRunRepo) Create(dataReferencia time.Time) (int64, error) {
	var id int64
	err := r.q.QueryRow(context.Background(),
		`INSERT INTO etl_controle (inicio, status, data_referencia)
		 VALUES (now(), $1, $2) RETURNING id`,
		entity.RunStatusRunning, dataReferencia,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("criar etl run: %w", err)
	}
	return id, nil
}

// Finish fecha a execução com status terminal, contadores e mensagem de erro.
func (r *ETLRunRepo) Finish(id int64, status string, stats entity.RunStats, erro string) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE etl_controle
		 SET fim = now(), status = $2, nfes_processadas = $3, contatos_novos = $4,
		     produtos_novos = $5, erro_mensagem = $6
		 WHERE id = $1`,
		id, status, stats.NFes, stats.Contatos, stats.Produtos, nullIfEmpty(erro),
	)
	if err != nil {
		return fmt.Errorf("finalizar etl run #%d: %w", id, err)
	}
	return nil
}

// LastSuccessful devolve a última execução com status success (ou nil).
func (r *ETLRunRepo) LastSuccessful() (*entity.ETLRun, error) {
	query := `
		SELECT id, inicio, fim, status, data_referencia, nfes_processadas,
		       contatos_novos, produtos_novos, COALESCE(erro_mensagem, ''), created_at
		FROM etl_controle
		WHERE status = $1
		ORDER BY data_referencia DESC
		LIMIT 1`
	var run entity.ETLRun
	err := r.q.QueryRow(context.Background(), query, entity.RunStatusSuccess).Scan(
		&run.ID, &run.Inicio, &run.Fim, &run.Status, &run.DataReferencia,
		&run.NFesProcessadas, &run.ContatosNovos, &run.ProdutosNovos,
		&run.ErroMensagem, &run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("buscar última execução com sucesso: %w", err)
	}
	return &run, nil
}
