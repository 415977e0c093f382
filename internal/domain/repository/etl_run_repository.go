package repository

import (
	"time"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/entity"
)

// ETLRunRepository controla o histórico de execuções. As gravações são feitas
// fora da transação do ETL (autocommit): o registro da execução precisa
// sobreviver a um rollback do pipeline.
type ETLRunRepository interface {
	// Create abre uma execução em estado running e devolve seu id.
	Create(dataReferencia time.Time) (int64, error)
	// Finish fecha a execução com status terminal, contadores e mensagem de erro.
	Finish(id int64, status string, stats entity.RunStats, erro string) error
	// LastSuccessful devolve a última execução com status success (ou nil).
	// Execuções com erro são ignoradas no cálculo da janela padrão.
	LastSuccessful() (*entity.ETLRun, error)
}
