package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/repository"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/config"
)

// RouterDeps dependências para o router.
type RouterDeps struct {
	Pipeline  PipelineRunner
	Exchanger CodeExchanger
	Runs      repository.ETLRunRepository
	Tokens    repository.TokenRepository
	Bling     config.BlingConfig
	JWTSecret string
}

// Router registra as rotas da API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Saúde e status (público)
	statusHandler := NewStatusHandler(deps.Runs, deps.Tokens)
	api.Get("/health", statusHandler.Health)
	api.Get("/status", statusHandler.Status)

	// Fluxo de autorização (público: o redirect do navegador não carrega JWT)
	oauthHandler := NewOAuthHandler(deps.Bling, deps.Exchanger)
	authGroup := api.Group("/auth")
	authGroup.Get("/start", oauthHandler.Start)
	authGroup.Get("/callback", oauthHandler.Callback)

	// Disparo de extração (protegido: requer Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	etlHandler := NewETLHandler(deps.Pipeline)
	protected.Post("/run", etlHandler.Run)
	protected.Post("/run/full", etlHandler.RunFull)
}
