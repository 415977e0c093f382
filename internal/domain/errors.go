package domain

import (
	"errors"
	"fmt"
)

// Erros de domínio. Os chamadores decidem por errors.Is/As em vez de
// capturar exceções genéricas.
var (
	// ErrNoCredential: não existe credencial OAuth no banco. Fatal; exige a
	// autorização inicial (cmd/firstauth).
	ErrNoCredential = errors.New("nenhuma credencial OAuth cadastrada")

	// ErrInvalidGrant: o refresh token foi recusado pelo servidor de
	// autorização (expirado ou já consumido). Fatal; exige reautorização.
	ErrInvalidGrant = errors.New("refresh token expirado ou inválido")

	// ErrInvalidToken: a API recusou o access token (401). Fatal para a
	// chamada corrente; não há retry porque o próprio token é o problema.
	ErrInvalidToken = errors.New("access token inválido ou expirado")

	// ErrRateLimitExceeded: 429 persistiu após esgotar as tentativas com backoff.
	ErrRateLimitExceeded = errors.New("limite de requisições da API excedido")
)

// UpstreamError é uma resposta não-2xx da API que não se encaixa em 429/401.
// Não é retentável; propaga status e corpo para diagnóstico.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("resposta inesperada da API: status %d: %s", e.StatusCode, e.Body)
}

// MappingError é um erro de normalização de um registro individual (payload
// malformado ou em formato desconhecido). Nunca aborta a execução: o registro
// é logado e pulado.
type MappingError struct {
	Entidade string
	ID       string
	Reason   string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("payload de %s id=%s não pôde ser normalizado: %s", e.Entidade, e.ID, e.Reason)
}
