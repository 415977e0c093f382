package auth_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/application/auth"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/entity"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/config"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/logger"
)

// fakeTokenRepo simula o repositório da credencial em memória.
type fakeTokenRepo struct {
	token     *entity.OAuthToken
	saveCalls int
	saveErr   error
	now       func() time.Time
}

func (f *fakeTokenRepo) Get() (*entity.OAuthToken, error) {
	if f.token == nil {
		return nil, nil
	}
	cp := *f.token
	return &cp, nil
}

func (f *fakeTokenRepo) Save(accessToken, refreshToken string, expiresIn int) error {
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.token = &entity.OAuthToken{
		ID:           1,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    f.now().Add(time.Duration(expiresIn) * time.Second),
		UpdatedAt:    f.now(),
	}
	return nil
}

func newManager(t *testing.T, serverURL string, repo *fakeTokenRepo, clock clockwork.Clock) *auth.TokenManager {
	t.Helper()
	return auth.NewTokenManager(config.BlingConfig{
		ClientID:     "cliente-sol",
		ClientSecret: "segredo-sol",
		OAuthURL:     serverURL,
	}, repo, clock, logger.Nop())
}

// Com mais de 10 minutos de vida restante, ValidToken não toca a rede.
func TestValidToken_NaoRenovaComVidaSuficiente(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	clock := clockwork.NewFakeClock()
	repo := &fakeTokenRepo{now: clock.Now, token: &entity.OAuthToken{
		AccessToken:  "acesso-atual",
		RefreshToken: "refresh-atual",
		ExpiresAt:    clock.Now().Add(11 * time.Minute),
	}}

	m := newManager(t, srv.URL, repo, clock)
	tok, err := m.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acesso-atual", tok)
	assert.Zero(t, atomic.LoadInt32(&calls), "não deve haver chamada ao endpoint de token")
	assert.Zero(t, repo.saveCalls)
}

// Abaixo do limiar de 10 minutos, ValidToken renova e grava o novo par.
func TestValidToken_RenovaAbaixoDoLimiar(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "cliente-sol", user)
		require.Equal(t, "segredo-sol", pass)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		require.Equal(t, "refresh-velho", r.PostForm.Get("refresh_token"))
		fmt.Fprint(w, `{"access_token":"acesso-novo","refresh_token":"refresh-novo","token_type":"Bearer","expires_in":21600}`)
	}))
	defer srv.Close()

	clock := clockwork.NewFakeClock()
	repo := &fakeTokenRepo{now: clock.Now, token: &entity.OAuthToken{
		AccessToken:  "acesso-velho",
		RefreshToken: "refresh-velho",
		ExpiresAt:    clock.Now().Add(9 * time.Minute),
	}}

	m := newManager(t, srv.URL, repo, clock)
	tok, err := m.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acesso-novo", tok)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	require.Equal(t, 1, repo.saveCalls, "o novo par deve ser gravado antes do retorno")
	assert.Equal(t, "refresh-novo", repo.token.RefreshToken)
}

// Se a gravação falha após a troca, Refresh retorna erro: o refresh antigo já
// morreu no servidor e a situação exige reautorização (documentado, não há
// recuperação silenciosa).
func TestRefresh_FalhaDeGravacaoDepoisDaTroca(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"acesso-novo","refresh_token":"refresh-novo","expires_in":21600}`)
	}))
	defer srv.Close()

	clock := clockwork.NewFakeClock()
	repo := &fakeTokenRepo{
		now:     clock.Now,
		saveErr: fmt.Errorf("disco cheio"),
		token: &entity.OAuthToken{
			AccessToken:  "acesso-velho",
			RefreshToken: "refresh-velho",
			ExpiresAt:    clock.Now().Add(time.Minute),
		},
	}

	m := newManager(t, srv.URL, repo, clock)
	_, err := m.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disco cheio")
	assert.Equal(t, 1, repo.saveCalls)
}

func TestRefresh_InvalidGrantDistintoDeErroTransitorio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant","error_description":"refresh token invalido"}`)
	}))
	defer srv.Close()

	clock := clockwork.NewFakeClock()
	repo := &fakeTokenRepo{now: clock.Now, token: &entity.OAuthToken{
		RefreshToken: "refresh-morto",
		ExpiresAt:    clock.Now(),
	}}

	m := newManager(t, srv.URL, repo, clock)
	_, err := m.Refresh(context.Background())
	require.ErrorIs(t, err, domain.ErrInvalidGrant)
}

func TestRefresh_ErroHTTPTransitorioNaoEInvalidGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "gateway ruim")
	}))
	defer srv.Close()

	clock := clockwork.NewFakeClock()
	repo := &fakeTokenRepo{now: clock.Now, token: &entity.OAuthToken{
		RefreshToken: "refresh",
		ExpiresAt:    clock.Now(),
	}}

	m := newManager(t, srv.URL, repo, clock)
	_, err := m.Refresh(context.Background())
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode)
}

func TestValidToken_SemCredencialEFatal(t *testing.T) {
	clock := clockwork.NewFakeClock()
	repo := &fakeTokenRepo{now: clock.Now}

	m := newManager(t, "http://127.0.0.1:0", repo, clock)
	_, err := m.ValidToken(context.Background())
	require.ErrorIs(t, err, domain.ErrNoCredential)
}

func TestExchangeAuthorizationCode_GravaOParInicial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		require.Equal(t, "codigo-123", r.PostForm.Get("code"))
		fmt.Fprint(w, `{"access_token":"primeiro-acesso","refresh_token":"primeiro-refresh","expires_in":21600}`)
	}))
	defer srv.Close()

	clock := clockwork.NewFakeClock()
	repo := &fakeTokenRepo{now: clock.Now}

	m := newManager(t, srv.URL, repo, clock)
	data, err := m.ExchangeAuthorizationCode(context.Background(), "codigo-123")
	require.NoError(t, err)
	assert.Equal(t, "primeiro-acesso", data.AccessToken)
	require.NotNil(t, repo.token)
	assert.Equal(t, "primeiro-refresh", repo.token.RefreshToken)
}
