package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/application/dto"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/entity"
	apphttp "github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/interfaces/http"
)

type fakeRunsRepo struct{ ultima *entity.ETLRun }

func (f *fakeRunsRepo) Create(time.Time) (int64, error)                     { return 0, nil }
func (f *fakeRunsRepo) Finish(int64, string, entity.RunStats, string) error { return nil }
func (f *fakeRunsRepo) LastSuccessful() (*entity.ETLRun, error)             { return f.ultima, nil }

type fakeTokensRepo struct{ token *entity.OAuthToken }

func (f *fakeTokensRepo) Get() (*entity.OAuthToken, error) { return f.token, nil }
func (f *fakeTokensRepo) Save(string, string, int) error   { return nil }

func statusApp(runs *fakeRunsRepo, tokens *fakeTokensRepo) *fiber.App {
	app := fiber.New()
	h := apphttp.NewStatusHandler(runs, tokens)
	app.Get("/api/health", h.Health)
	app.Get("/api/status", h.Status)
	return app
}

func TestStatus_SemCredencialESemHistorico(t *testing.T) {
	app := statusApp(&fakeRunsRepo{}, &fakeTokensRepo{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/status", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.Credencial.Autorizada)
	assert.Nil(t, out.UltimaExecucao)
}

func TestStatus_ComCredencialEUltimaExecucao(t *testing.T) {
	fim := time.Date(2024, 6, 14, 3, 5, 0, 0, time.UTC)
	app := statusApp(
		&fakeRunsRepo{ultima: &entity.ETLRun{
			ID:              9,
			Status:          entity.RunStatusSuccess,
			DataReferencia:  time.Date(2024, 6, 14, 3, 0, 0, 0, time.UTC),
			Fim:             &fim,
			NFesProcessadas: 87,
			ContatosNovos:   4,
			ProdutosNovos:   11,
		}},
		&fakeTokensRepo{token: &entity.OAuthToken{
			AccessToken: "acesso",
			ExpiresAt:   time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC),
		}},
	)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/status", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Credencial.Autorizada)
	require.NotNil(t, out.UltimaExecucao)
	assert.Equal(t, "2024-06-14", out.UltimaExecucao.DataReferencia)
	assert.Equal(t, 87, out.UltimaExecucao.NFesProcessadas)
}

func TestHealth(t *testing.T) {
	app := statusApp(&fakeRunsRepo{}, &fakeTokensRepo{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
