package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/application/dto"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/repository"
)

// StatusHandler expõe o estado do coletor: saúde do processo, credencial e
// última execução com sucesso.
type StatusHandler struct {
	runs   repository.ETLRunRepository
	tokens repository.TokenRepository
}

// NewStatusHandler constrói o handler de status.
func NewStatusHandler(runs repository.ETLRunRepository, tokens repository.TokenRepository) *StatusHandler {
	return &StatusHandler{runs: runs, tokens: tokens}
}

// Health responde 200 enquanto o processo atende requisições.
func (h *StatusHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Status devolve a situação da credencial e o resumo da última execução.
func (h *StatusHandler) Status(c *fiber.Ctx) error {
	out := dto.StatusResponse{}

	token, err := h.tokens.Get()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if token != nil {
		expira := token.ExpiresAt
		out.Credencial = dto.CredencialStatus{Autorizada: true, ExpiraEm: &expira}
	}

	last, err := h.runs.LastSuccessful()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if last != nil {
		ultima := dto.UltimaExecucao{
			ID:              last.ID,
			DataReferencia:  last.DataReferencia.Format("2006-01-02"),
			NFesProcessadas: last.NFesProcessadas,
			ContatosNovos:   last.ContatosNovos,
			ProdutosNovos:   last.ProdutosNovos,
		}
		if last.Fim != nil {
			ultima.Fim = *last.Fim
		}
		out.UltimaExecucao = &ultima
	}

	return c.JSON(out)
}
