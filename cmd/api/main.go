package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/application/auth"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/application/etl"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/infrastructure/bling"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/infrastructure/postgres"
	httpRouter "github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/interfaces/http"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/config"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando coletor")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão ao PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("criação do schema")
	}

	clock := clockwork.NewRealClock()

	// Repositórios de bookkeeping no pool (autocommit): credencial e
	// histórico de execuções sobrevivem a rollback do pipeline.
	tokenRepo := postgres.NewTokenRepository(pool)
	runRepo := postgres.NewETLRunRepository(pool)

	// Repositórios de dados na sessão: seguem a transação corrente do ETL.
	session := postgres.NewETLSession(pool)
	nfeRepo := postgres.NewNFeRepository(session)
	contatoRepo := postgres.NewContatoRepository(session)
	produtoRepo := postgres.NewProdutoRepository(session)

	tokenManager := auth.NewTokenManager(cfg.Bling, tokenRepo, clock, log)

	pipeline := etl.NewPipeline(etl.PipelineDeps{
		Session:  session,
		NFes:     nfeRepo,
		Contatos: contatoRepo,
		Produtos: produtoRepo,
		Runs:     runRepo,
		Tokens:   tokenManager,
		Client: func(accessToken string) etl.APIClient {
			return bling.NewClient(cfg.Bling, accessToken, clock, log)
		},
		Clock:  clock,
		Config: cfg.ETL,
		Log:    log,
	})

	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
		// Uma extração roda no ciclo da requisição; sem WriteTimeout curto.
		ReadTimeout: time.Second * 10,
		IdleTimeout: time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Pipeline:  pipeline,
		Exchanger: tokenManager,
		Runs:      runRepo,
		Tokens:    tokenRepo,
		Bling:     cfg.Bling,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("sinal de desligamento recebido, encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("encerramento do servidor")
	}

	log.Info().Msg("coletor parado")
}
