package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/application/auth"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/infrastructure/postgres"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/config"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/logger"
)

const (
	callbackAddr = "127.0.0.1:8000"
	waitTimeout  = 5 * time.Minute
)

// firstauth conduz a autorização inicial pela linha de comando: imprime a
// URL de consentimento, espera o redirect num servidor local e grava o
// primeiro par de tokens. Depois disso a renovação é automática no serviço.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão ao PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("criação do schema")
	}

	tokenRepo := postgres.NewTokenRepository(pool)
	manager := auth.NewTokenManager(cfg.Bling, tokenRepo, clockwork.NewRealClock(), log)

	state := uuid.NewString()
	codes := make(chan string, 1)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/callback", func(c *fiber.Ctx) error {
		if c.Query("state") != state {
			return c.Status(fiber.StatusBadRequest).SendString("state inválido; reinicie o firstauth")
		}
		code := c.Query("code")
		if code == "" {
			return c.Status(fiber.StatusBadRequest).SendString("parâmetro code ausente")
		}
		select {
		case codes <- code:
		default:
		}
		return c.SendString("Autorização recebida. Pode fechar esta aba.")
	})

	go func() {
		if err := app.Listen(callbackAddr); err != nil {
			log.Fatal().Err(err).Msg("servidor de callback")
		}
	}()

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", cfg.Bling.ClientID)
	q.Set("state", state)

	fmt.Println("Abra esta URL no navegador e autorize o acesso:")
	fmt.Println()
	fmt.Println("  " + cfg.Bling.AuthorizeURL + "?" + q.Encode())
	fmt.Println()
	fmt.Printf("Aguardando o redirect em http://%s/callback (até %s)...\n", callbackAddr, waitTimeout)

	var code string
	select {
	case code = <-codes:
	case <-time.After(waitTimeout):
		_ = app.Shutdown()
		log.Fatal().Msg("tempo esgotado aguardando a autorização")
	}
	_ = app.Shutdown()

	data, err := manager.ExchangeAuthorizationCode(ctx, code)
	if err != nil {
		log.Fatal().Err(err).Msg("troca do código de autorização")
	}

	fmt.Println("Autorização concluída: o par de tokens foi gravado no banco.")
	fmt.Printf("token_type=%s expires_in=%ds\n", data.TokenType, data.ExpiresIn)
}
