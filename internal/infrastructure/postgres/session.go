package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Querier = (*ETLSession)(nil)

// ETLSession é a transação de longa duração do pipeline com commits em
// checkpoints. Implementa Querier delegando à transação corrente (ou ao pool
// quando nenhuma está aberta), de forma que os repositórios construídos sobre
// a sessão acompanham cada novo segmento transacional sem serem recriados.
//
// A disciplina é intencionalmente grossa: commit a cada checkpoint em vez de
// uma transação atômica única, trocando atomicidade estrita por retomabilidade
// em execuções longas.
type ETLSession struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// NewETLSession constrói a sessão sobre o pool. Begin deve ser chamado antes
// das etapas de extração.
func NewETLSession(pool *pgxpool.Pool) *ETLSession {
	return &ETLSession{pool: pool}
}

// Begin abre o primeiro segmento transacional.
func (s *ETLSession) Begin(ctx context.Context) error {
	if s.tx != nil {
		return fmt.Errorf("sessão já possui transação aberta")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	s.tx = tx
	return nil
}

// Checkpoint faz commit do segmento corrente e abre o próximo. Limita o raio
// de dano de uma falha no meio da execução: o que já foi commitado permanece.
func (s *ETLSession) Checkpoint(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("checkpoint sem transação aberta")
	}
	if err := s.tx.Commit(ctx); err != nil {
		s.tx = nil
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		s.tx = nil
		return fmt.Errorf("begin pós-checkpoint: %w", err)
	}
	s.tx = tx
	return nil
}

// Commit finaliza o segmento corrente sem abrir outro.
func (s *ETLSession) Commit(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit(ctx)
	s.tx = nil
	if err != nil {
		return fmt.Errorf("commit final: %w", err)
	}
	return nil
}

// Rollback descarta o segmento corrente (não o que já foi commitado em
// checkpoints anteriores). Seguro de chamar sem transação aberta.
func (s *ETLSession) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback(ctx)
	s.tx = nil
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// Exec, Query e QueryRow delegam ao segmento corrente; fora de transação vão
// direto ao pool (autocommit).
func (s *ETLSession) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if s.tx != nil {
		return s.tx.Exec(ctx, sql, args...)
	}
	return s.pool.Exec(ctx, sql, args...)
}

func (s *ETLSession) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.tx != nil {
		return s.tx.Query(ctx, sql, args...)
	}
	return s.pool.Query(ctx, sql, args...)
}

func (s *ETLSession) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.tx != nil {
		return s.tx.QueryRow(ctx, sql, args...)
	}
	return s.pool.QueryRow(ctx, sql, args...)
}
