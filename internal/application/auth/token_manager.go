package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/repository"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/config"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/logger"
)

const (
	// refreshThreshold: renovamos quando resta menos de 10 minutos de vida.
	refreshThreshold = 10 * time.Minute

	// defaultExpiresIn: o Bling emite tokens de 6 horas; usado quando a
	// resposta omite expires_in.
	defaultExpiresIn = 21600

	tokenTimeout = 30 * time.Second
)

// TokenData é a resposta do endpoint de token.
type TokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// TokenManager é o dono exclusivo da mutação da credencial OAuth: decide
// quando renovar, executa as trocas no endpoint de token e grava o resultado
// pelo TokenRepository.
type TokenManager struct {
	repo         repository.TokenRepository
	httpClient   *http.Client
	oauthURL     string
	clientID     string
	clientSecret string
	clock        clockwork.Clock
	log          *logger.Logger
}

// NewTokenManager constrói o gerenciador.
func NewTokenManager(cfg config.BlingConfig, repo repository.TokenRepository, clock clockwork.Clock, log *logger.Logger) *TokenManager {
	return &TokenManager{
		repo:         repo,
		httpClient:   &http.Client{Timeout: tokenTimeout},
		oauthURL:     cfg.OAuthURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		clock:        clock,
		log:          log,
	}
}

// ValidToken devolve um access token utilizável, renovando antes se a vida
// restante da credencial está abaixo do limiar de 10 minutos.
func (m *TokenManager) ValidToken(ctx context.Context) (string, error) {
	token, err := m.repo.Get()
	if err != nil {
		return "", fmt.Errorf("ler credencial: %w", err)
	}
	if token == nil {
		return "", domain.ErrNoCredential
	}

	remaining := token.RemainingLifetime(m.clock.Now())
	if remaining < refreshThreshold {
		m.log.Info().Dur("restante", remaining).Msg("token perto de expirar, renovando")
		return m.Refresh(ctx)
	}
	m.log.Debug().Dur("restante", remaining).Msg("token ainda válido")
	return token.AccessToken, nil
}

// Refresh troca o refresh token corrente por um novo par access/refresh.
// O novo par é persistido ANTES de retornar: o refresh token antigo já foi
// invalidado pelo servidor no instante em que a troca teve sucesso, e um
// crash entre a troca e a gravação exige reautorização completa.
func (m *TokenManager) Refresh(ctx context.Context) (string, error) {
	token, err := m.repo.Get()
	if err != nil {
		return "", fmt.Errorf("ler credencial: %w", err)
	}
	if token == nil {
		return "", domain.ErrNoCredential
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", token.RefreshToken)

	data, err := m.tokenRequest(ctx, form)
	if err != nil {
		return "", err
	}

	if err := m.persist(data); err != nil {
		// O refresh antigo já morreu; sem a gravação, a credencial está perdida.
		m.log.Error().Err(err).Msg("troca efetuada mas gravação falhou: reautorização necessária")
		return "", err
	}
	m.log.Info().Int("expires_in", data.ExpiresIn).Msg("tokens renovados e gravados")
	return data.AccessToken, nil
}

// ExchangeAuthorizationCode executa a troca inicial (grant authorization_code).
// Usado uma única vez, na primeira autorização.
func (m *TokenManager) ExchangeAuthorizationCode(ctx context.Context, code string) (*TokenData, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)

	data, err := m.tokenRequest(ctx, form)
	if err != nil {
		return nil, err
	}
	if err := m.persist(data); err != nil {
		return nil, err
	}
	m.log.Info().Int("expires_in", data.ExpiresIn).Msg("tokens gravados (authorization code)")
	return data, nil
}

func (m *TokenManager) persist(data *TokenData) error {
	expiresIn := data.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	if err := m.repo.Save(data.AccessToken, data.RefreshToken, expiresIn); err != nil {
		return fmt.Errorf("gravar credencial: %w", err)
	}
	return nil
}

// tokenRequest faz o POST form-encoded no endpoint de token com HTTP Basic
// (client id/secret). Um 400 com error=invalid_grant vira ErrInvalidGrant,
// distinto de erros HTTP transitórios.
func (m *TokenManager) tokenRequest(ctx context.Context, form url.Values) (*TokenData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.oauthURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("montar requisição de token: %w", err)
	}
	req.SetBasicAuth(m.clientID, m.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requisição de token: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ler resposta de token: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusBadRequest {
			var oauthErr struct {
				Error string `json:"error"`
			}
			if json.Unmarshal(body, &oauthErr) == nil && oauthErr.Error == "invalid_grant" {
				m.log.Error().Str("body", string(body)).Msg("refresh token recusado pelo servidor")
				return nil, fmt.Errorf("%w: %s", domain.ErrInvalidGrant, string(body))
			}
		}
		return nil, &domain.UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var data TokenData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decodificar resposta de token: %w", err)
	}
	return &data, nil
}
