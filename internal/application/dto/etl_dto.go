package dto

import "time"

// RunRequest parâmetros de disparo de uma extração.
type RunRequest struct {
	DataInicio string `query:"data_inicio"`
	DataFim    string `query:"data_fim"`
}

// RunResponse resultado de uma extração disparada via API.
type RunResponse struct {
	Status string   `json:"status"`
	RunID  int64    `json:"run_id"`
	Stats  RunStats `json:"stats"`
}

// RunStats contadores de uma execução.
type RunStats struct {
	NFes     int `json:"nfes"`
	Contatos int `json:"contatos"`
	Produtos int `json:"produtos"`
}

// StatusResponse estado corrente do coletor.
type StatusResponse struct {
	Credencial     CredencialStatus `json:"credencial"`
	UltimaExecucao *UltimaExecucao  `json:"ultima_execucao"`
}

// CredencialStatus situação da credencial OAuth persistida.
type CredencialStatus struct {
	Autorizada bool       `json:"autorizada"`
	ExpiraEm   *time.Time `json:"expira_em,omitempty"`
}

// UltimaExecucao resumo da última execução com sucesso.
type UltimaExecucao struct {
	ID              int64     `json:"id"`
	DataReferencia  string    `json:"data_referencia"`
	Fim             time.Time `json:"fim"`
	NFesProcessadas int       `json:"nfes_processadas"`
	ContatosNovos   int       `json:"contatos_novos"`
	ProdutosNovos   int       `json:"produtos_novos"`
}

// AuthStartResponse URL de autorização montada com o state anti-CSRF.
type AuthStartResponse struct {
	AuthorizeURL string `json:"authorize_url"`
	State        string `json:"state"`
}

// AuthCallbackResponse resultado da troca do código de autorização.
type AuthCallbackResponse struct {
	Autorizada bool   `json:"autorizada"`
	TokenType  string `json:"token_type"`
}

// ErrorResponse corpo de erro HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
