package http

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/application/auth"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/application/dto"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/config"
)

// CodeExchanger troca o código de autorização pelo par inicial de tokens.
type CodeExchanger interface {
	ExchangeAuthorizationCode(ctx context.Context, code string) (*auth.TokenData, error)
}

// OAuthHandler conduz o fluxo de autorização inicial pelo navegador:
// /auth/start monta a URL de consentimento com um state anti-CSRF e
// /auth/callback recebe o código e o troca pelo primeiro par de tokens.
type OAuthHandler struct {
	exchanger    CodeExchanger
	authorizeURL string
	clientID     string

	mu     sync.Mutex
	states map[string]struct{}
}

// NewOAuthHandler constrói o handler do fluxo de autorização.
func NewOAuthHandler(cfg config.BlingConfig, exchanger CodeExchanger) *OAuthHandler {
	return &OAuthHandler{
		exchanger:    exchanger,
		authorizeURL: cfg.AuthorizeURL,
		clientID:     cfg.ClientID,
		states:       make(map[string]struct{}),
	}
}

// Start devolve a URL de consentimento a abrir no navegador.
func (h *OAuthHandler) Start(c *fiber.Ctx) error {
	state := uuid.NewString()
	h.mu.Lock()
	h.states[state] = struct{}{}
	h.mu.Unlock()

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", h.clientID)
	q.Set("state", state)

	return c.JSON(dto.AuthStartResponse{
		AuthorizeURL: h.authorizeURL + "?" + q.Encode(),
		State:        state,
	})
}

// Callback recebe o redirect do servidor de autorização e efetiva a troca.
// O state é de uso único: válido uma vez, depois descartado.
func (h *OAuthHandler) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_CODE", Message: "parâmetro code obrigatório"})
	}
	state := c.Query("state")
	h.mu.Lock()
	_, conhecido := h.states[state]
	delete(h.states, state)
	h.mu.Unlock()
	if !conhecido {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: "state desconhecido; reinicie em /api/auth/start"})
	}

	data, err := h.exchanger.ExchangeAuthorizationCode(c.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidGrant) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_GRANT", Message: "código de autorização rejeitado"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "UPSTREAM", Message: err.Error()})
	}
	return c.JSON(dto.AuthCallbackResponse{Autorizada: true, TokenType: data.TokenType})
}
