package entity

import "time"

// Status possíveis de uma execução do pipeline. A transição é
// running -> {success, error}, terminal.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// ETLRun é o registro de controle de uma execução do pipeline (uma linha por
// invocação). DataReferencia é a data usada para calcular a janela padrão da
// próxima execução.
type ETLRun struct {
	ID              int64
	Inicio          time.Time
	Fim             *time.Time
	Status          string
	DataReferencia  time.Time
	NFesProcessadas int
	ContatosNovos   int
	ProdutosNovos   int
	ErroMensagem    string
	CreatedAt       time.Time
}

// RunStats acumula os contadores de uma execução.
type RunStats struct {
	NFes     int `json:"nfes"`
	Contatos int `json:"contatos"`
	Produtos int `json:"produtos"`
}
