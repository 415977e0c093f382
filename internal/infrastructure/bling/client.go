package bling

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/config"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/logger"
)

const (
	requestTimeout = 30 * time.Second

	// Retry de 429: até 5 tentativas com backoff exponencial 2s..30s.
	maxAttempts = 5
)

// Client é o cliente da API Bling v3: serializa as chamadas com um intervalo
// mínimo entre requisições, retenta 429 com backoff exponencial e traduz as
// respostas de erro para a taxonomia de domínio. As chamadas são estritamente
// serializadas pelo gate; não há sobreposição concorrente.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	pageSize    int
	delay       time.Duration
	backoffBase time.Duration
	backoffMax  time.Duration
	clock       clockwork.Clock
	log         *logger.Logger

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient constrói o cliente para um access token. O token vale por uma
// execução do pipeline; criar um cliente novo a cada run e liberar com Close.
func NewClient(cfg config.BlingConfig, accessToken string, clock clockwork.Clock, log *logger.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		baseURL:     cfg.APIBaseURL,
		accessToken: accessToken,
		pageSize:    cfg.PageSize,
		delay:       cfg.RateLimitDelay,
		backoffBase: 2 * time.Second,
		backoffMax:  30 * time.Second,
		clock:       clock,
		log:         log,
	}
}

// Close libera as conexões do transporte. Chamar em todo caminho de saída.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// waitRateLimit bloqueia até que o intervalo mínimo desde a última requisição
// tenha passado (relógio monotônico; não é token bucket).
func (c *Client) waitRateLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lastRequest.IsZero() {
		elapsed := c.clock.Now().Sub(c.lastRequest)
		if elapsed < c.delay {
			c.clock.Sleep(c.delay - elapsed)
		}
	}
	c.lastRequest = c.clock.Now()
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	d := c.backoffBase << (attempt - 1)
	if d > c.backoffMax {
		d = c.backoffMax
	}
	return d
}

// request executa GET {baseURL}/{path}?{params} passando pelo gate de rate
// limit. 429 é retentado; 401 falha imediatamente com ErrInvalidToken (o
// token é o problema, retry não ajuda); qualquer outro não-2xx vira
// UpstreamError com status e corpo.
func (c *Client) request(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, path)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	for attempt := 1; ; attempt++ {
		c.waitRateLimit()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("montar requisição %s: %w", path, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("requisição %s: %w", path, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("ler resposta %s: %w", path, err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt >= maxAttempts {
				c.log.Error().Str("path", path).Int("tentativas", attempt).
					Msg("rate limit persistiu após esgotar as tentativas")
				return nil, domain.ErrRateLimitExceeded
			}
			wait := c.backoffDelay(attempt)
			c.log.Warn().Str("path", path).Int("tentativa", attempt).
				Dur("espera", wait).Msg("rate limit atingido (429), aguardando")
			c.clock.Sleep(wait)
			continue
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, domain.ErrInvalidToken
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, &domain.UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		return body, nil
	}
}

// ListNFes lista uma página de NF-es de saída (tipo=1). Datas no formato
// YYYY-MM-DD; vazias são omitidas. situacao <= 0 é omitido.
func (c *Client) ListNFes(ctx context.Context, pagina int, dataInicio, dataFim string, situacao int) ([]NFeResumo, error) {
	params := url.Values{}
	params.Set("tipo", "1")
	params.Set("pagina", strconv.Itoa(pagina))
	params.Set("limite", strconv.Itoa(c.pageSize))
	if dataInicio != "" {
		params.Set("dataEmissaoInicial", dataInicio)
	}
	if dataFim != "" {
		params.Set("dataEmissaoFinal", dataFim)
	}
	if situacao > 0 {
		params.Set("situacao", strconv.Itoa(situacao))
	}

	body, err := c.request(ctx, "nfe", params)
	if err != nil {
		return nil, err
	}
	var resp nfeListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decodificar listagem de nfe: %w", err)
	}
	return resp.Data, nil
}

// ListAllNFes pagina a listagem em ordem crescente a partir da página 1 e
// acumula os registros. Para assim que uma página devolve menos registros
// que o page size; uma última página cheia custa uma requisição extra que
// volta vazia.
func (c *Client) ListAllNFes(ctx context.Context, dataInicio, dataFim string) ([]NFeResumo, error) {
	var todas []NFeResumo
	pagina := 1
	for {
		registros, err := c.ListNFes(ctx, pagina, dataInicio, dataFim, 0)
		if err != nil {
			return nil, err
		}
		todas = append(todas, registros...)
		c.log.Info().Int("pagina", pagina).Int("registros", len(registros)).
			Int("acumulado", len(todas)).Msg("página de NF-es listada")
		if len(registros) < c.pageSize {
			break
		}
		pagina++
	}
	c.log.Info().Int("total", len(todas)).Int("paginas", pagina).Msg("listagem de NF-es completa")
	return todas, nil
}

// GetNFe busca o detalhe completo de uma nota.
func (c *Client) GetNFe(ctx context.Context, id int64) (*NFeDetalhe, error) {
	body, err := c.request(ctx, fmt.Sprintf("nfe/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var det NFeDetalhe
	if err := json.Unmarshal(body, &det); err != nil {
		return nil, fmt.Errorf("decodificar detalhe da nfe %d: %w", id, err)
	}
	return &det, nil
}

// GetContato busca o detalhe de um contato.
func (c *Client) GetContato(ctx context.Context, id int64) (*ContatoDetalhe, error) {
	body, err := c.request(ctx, fmt.Sprintf("contatos/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var det ContatoDetalhe
	if err := json.Unmarshal(body, &det); err != nil {
		return nil, fmt.Errorf("decodificar contato %d: %w", id, err)
	}
	return &det, nil
}

// GetProdutoPorCodigo busca um produto pelo código. Devolve nil (sem erro)
// quando a API não encontra nenhum produto com o código.
func (c *Client) GetProdutoPorCodigo(ctx context.Context, codigo string) (*Produto, error) {
	params := url.Values{}
	params.Set("codigo", codigo)
	body, err := c.request(ctx, "produtos", params)
	if err != nil {
		return nil, err
	}
	var resp produtoListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decodificar produtos codigo=%s: %w", codigo, err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return &resp.Data[0], nil
}
