package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/entity"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/repository"
)

var _ repository.TokenRepository = (*TokenRepo)(nil)

// TokenRepo persiste a credencial OAuth única (linha id=1) sobre PostgreSQL.
// Montado direto sobre o pool (autocommit): a gravação do novo par de tokens
// nunca pode depender de um commit posterior do pipeline.
type TokenRepo struct {
	q Querier
}

// NewTokenRepository constrói o adaptador. Passar o pool, não a sessão de ETL.
func NewTokenRepository(q Querier) *TokenRepo {
	return &TokenRepo{q: q}
}

// Get devolve a credencial, ou nil se nunca houve autorização.
func (r *TokenRepo) Get() (*entity.OAuthToken, error) {
	query := `
		SELECT id, access_token, refresh_token, token_type, expires_at, updated_at
		FROM oauth_tokens WHERE id = 1`
	var t entity.OAuthToken
	err := r.q.QueryRow(context.Background(), query).Scan(
		&t.ID, &t.AccessToken, &t.RefreshToken, &t.TokenType, &t.ExpiresAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get oauth token: %w", err)
	}
	return &t, nil
}

// Save substitui o registro inteiro (insert-or-update na linha id=1).
func (r *TokenRepo) Save(accessToken, refreshToken string, expiresIn int) error {
	query := `
		INSERT INTO oauth_tokens (id, access_token, refresh_token, token_type, expires_at, updated_at)
		VALUES (1, $1, $2, 'Bearer', now() + make_interval(secs => $3), now())
		ON CONFLICT (id) DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at    = EXCLUDED.expires_at,
			updated_at    = EXCLUDED.updated_at`
	_, err := r.q.Exec(context.Background(), query, accessToken, refreshToken, expiresIn)
	if err != nil {
		return fmt.Errorf("save oauth token: %w", err)
	}
	return nil
}
