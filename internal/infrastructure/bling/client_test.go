package bling

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/config"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/logger"
)

// newTestClient monta um cliente apontando para o servidor de teste, sem
// espera entre chamadas e com backoff encurtado para não travar os tests.
func newTestClient(baseURL string, clock clockwork.Clock) *Client {
	c := NewClient(config.BlingConfig{
		APIBaseURL:     baseURL,
		RateLimitDelay: 0,
		PageSize:       100,
	}, "token-de-teste", clock, logger.Nop())
	c.backoffBase = time.Millisecond
	c.backoffMax = 5 * time.Millisecond
	return c
}

// Páginas de tamanhos [100, 100, 37] com page size 100 devem render 237
// registros em exatamente 3 requisições.
func TestListAllNFes_ParaNaPaginaCurta(t *testing.T) {
	var requests int32
	sizes := []int{100, 100, 37}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		require.Equal(t, "Bearer token-de-teste", r.Header.Get("Authorization"))
		pagina, _ := strconv.Atoi(r.URL.Query().Get("pagina"))
		require.Equal(t, "100", r.URL.Query().Get("limite"))
		require.Equal(t, "2024-01-01", r.URL.Query().Get("dataEmissaoInicial"))

		n := 0
		if pagina >= 1 && pagina <= len(sizes) {
			n = sizes[pagina-1]
		}
		fmt.Fprint(w, `{"data":[`)
		for i := 0; i < n; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":%d,"numero":"%d"}`, (pagina-1)*100+i+1, i+1)
		}
		fmt.Fprint(w, `]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, clockwork.NewRealClock())
	defer c.Close()

	nfes, err := c.ListAllNFes(context.Background(), "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Len(t, nfes, 237)
	assert.EqualValues(t, 3, atomic.LoadInt32(&requests))
	assert.EqualValues(t, 1, nfes[0].ID)
	assert.EqualValues(t, 201, nfes[200].ID)
}

// Uma última página exatamente cheia custa uma requisição extra que volta vazia.
func TestListAllNFes_PaginaCheiaCustaRequisicaoExtra(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		pagina, _ := strconv.Atoi(r.URL.Query().Get("pagina"))
		if pagina > 1 {
			fmt.Fprint(w, `{"data":[]}`)
			return
		}
		fmt.Fprint(w, `{"data":[`)
		for i := 0; i < 100; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":%d}`, i+1)
		}
		fmt.Fprint(w, `]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, clockwork.NewRealClock())
	defer c.Close()

	nfes, err := c.ListAllNFes(context.Background(), "", "")
	require.NoError(t, err)
	assert.Len(t, nfes, 100)
	assert.EqualValues(t, 2, atomic.LoadInt32(&requests))
}

func TestGetNFe_Retentou429AteSucesso(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"data":{"id":42,"valorNota":150.5,"itens":[{"codigo":"A","valorTotal":150.5}]}}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, clockwork.NewRealClock())
	defer c.Close()

	det, err := c.GetNFe(context.Background(), 42)
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&requests))
	assert.Equal(t, "150.5", det.Data.ValorNota.String())
	require.Len(t, det.Data.Itens, 1)
	assert.Equal(t, "A", det.Data.Itens[0].Codigo)
}

func TestGetNFe_RateLimitEsgotado(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, clockwork.NewRealClock())
	defer c.Close()

	_, err := c.GetNFe(context.Background(), 1)
	require.ErrorIs(t, err, domain.ErrRateLimitExceeded)
	assert.EqualValues(t, 5, atomic.LoadInt32(&requests), "deve esgotar exatamente 5 tentativas")
}

// 401 falha na hora: o token é o problema, retry não ajuda.
func TestGetNFe_401SemRetry(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, clockwork.NewRealClock())
	defer c.Close()

	_, err := c.GetNFe(context.Background(), 1)
	require.ErrorIs(t, err, domain.ErrInvalidToken)
	assert.EqualValues(t, 1, atomic.LoadInt32(&requests))
}

func TestGetNFe_ErroUpstreamCarregaStatusECorpo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"explodiu"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, clockwork.NewRealClock())
	defer c.Close()

	_, err := c.GetNFe(context.Background(), 1)
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusInternalServerError, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "explodiu")
}

func TestGetProdutoPorCodigo_SemResultadoDevolveNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "XYZ", r.URL.Query().Get("codigo"))
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, clockwork.NewRealClock())
	defer c.Close()

	p, err := c.GetProdutoPorCodigo(context.Background(), "XYZ")
	require.NoError(t, err)
	assert.Nil(t, p)
}

// Duas chamadas consecutivas devem ficar separadas pelo intervalo configurado,
// medido via relógio injetado: a segunda só completa após avançar o clock.
func TestWaitRateLimit_EspacaChamadasConsecutivas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	fc := clockwork.NewFakeClock()
	c := NewClient(config.BlingConfig{
		APIBaseURL:     srv.URL,
		RateLimitDelay: 350 * time.Millisecond,
		PageSize:       100,
	}, "token-de-teste", fc, logger.Nop())
	defer c.Close()

	// Primeira chamada passa direto (não há requisição anterior).
	_, err := c.ListNFes(context.Background(), 1, "", "", 0)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := c.ListNFes(context.Background(), 2, "", "", 0)
		done <- err
	}()

	// A segunda chamada deve estar dormindo no gate.
	fc.BlockUntil(1)
	select {
	case <-done:
		t.Fatal("segunda chamada não respeitou o intervalo mínimo")
	case <-time.After(50 * time.Millisecond):
	}

	fc.Advance(350 * time.Millisecond)
	require.NoError(t, <-done)
}
