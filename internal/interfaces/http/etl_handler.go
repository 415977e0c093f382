package http

import (
	"context"
	"errors"
	"regexp"

	"github.com/gofiber/fiber/v2"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/application/dto"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/application/etl"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain"
)

var dateParam = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// PipelineRunner é o que o handler precisa do pipeline.
type PipelineRunner interface {
	Run(ctx context.Context, dataInicio, dataFim string) (*etl.RunResult, error)
	RunFull(ctx context.Context, dataInicio, dataFim string) (*etl.RunResult, error)
}

// ETLHandler dispara execuções do pipeline. A execução roda no ciclo da
// requisição (o chamador é um orquestrador com timeout largo, não um
// navegador).
type ETLHandler struct {
	pipeline PipelineRunner
}

// NewETLHandler constrói o handler de extração.
func NewETLHandler(pipeline PipelineRunner) *ETLHandler {
	return &ETLHandler{pipeline: pipeline}
}

// Run dispara a extração incremental. Sem data_inicio, a janela parte da
// última execução com sucesso.
func (h *ETLHandler) Run(c *fiber.Ctx) error {
	var in dto.RunRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parâmetros inválidos"})
	}
	if msg := validarDatas(in.DataInicio, in.DataFim, false); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
	}
	res, err := h.pipeline.Run(c.Context(), in.DataInicio, in.DataFim)
	if err != nil {
		return respostaDeErro(c, err)
	}
	return c.JSON(toRunResponse(res))
}

// RunFull dispara a extração completa de um intervalo; ambas as datas são
// obrigatórias.
func (h *ETLHandler) RunFull(c *fiber.Ctx) error {
	var in dto.RunRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parâmetros inválidos"})
	}
	if msg := validarDatas(in.DataInicio, in.DataFim, true); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
	}
	res, err := h.pipeline.RunFull(c.Context(), in.DataInicio, in.DataFim)
	if err != nil {
		return respostaDeErro(c, err)
	}
	return c.JSON(toRunResponse(res))
}

func validarDatas(inicio, fim string, obrigatorias bool) string {
	if obrigatorias && (inicio == "" || fim == "") {
		return "data_inicio e data_fim são obrigatórias (AAAA-MM-DD)"
	}
	if inicio != "" && !dateParam.MatchString(inicio) {
		return "data_inicio deve estar no formato AAAA-MM-DD"
	}
	if fim != "" && !dateParam.MatchString(fim) {
		return "data_fim deve estar no formato AAAA-MM-DD"
	}
	return ""
}

func respostaDeErro(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNoCredential):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NO_CREDENTIAL", Message: "nenhuma credencial autorizada; use /api/auth/start"})
	case errors.Is(err, domain.ErrInvalidGrant):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_GRANT", Message: "refresh token rejeitado; reautorização necessária"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func toRunResponse(res *etl.RunResult) dto.RunResponse {
	return dto.RunResponse{
		Status: res.Status,
		RunID:  res.RunID,
		Stats: dto.RunStats{
			NFes:     res.Stats.NFes,
			Contatos: res.Stats.Contatos,
			Produtos: res.Stats.Produtos,
		},
	}
}
