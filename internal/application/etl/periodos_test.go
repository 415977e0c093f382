package etl_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/application/etl"
)

func dia(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPeriodosMensais(t *testing.T) {
	tests := []struct {
		name    string
		inicio  string
		fim     string
		esperado [][2]string
	}{
		{
			name:   "virada de ano em exatamente dois periodos",
			inicio: "2023-12-15",
			fim:    "2024-01-10",
			esperado: [][2]string{
				{"2023-12-15", "2023-12-31"},
				{"2024-01-01", "2024-01-10"},
			},
		},
		{
			name:   "dentro de um unico mes",
			inicio: "2024-03-05",
			fim:    "2024-03-20",
			esperado: [][2]string{
				{"2024-03-05", "2024-03-20"},
			},
		},
		{
			name:   "fevereiro bissexto completo",
			inicio: "2024-02-01",
			fim:    "2024-03-01",
			esperado: [][2]string{
				{"2024-02-01", "2024-02-29"},
				{"2024-03-01", "2024-03-01"},
			},
		},
		{
			name:   "tres meses com pontas parciais",
			inicio: "2023-01-20",
			fim:    "2023-03-10",
			esperado: [][2]string{
				{"2023-01-20", "2023-01-31"},
				{"2023-02-01", "2023-02-28"},
				{"2023-03-01", "2023-03-10"},
			},
		},
		{
			name:   "mesmo dia",
			inicio: "2024-06-15",
			fim:    "2024-06-15",
			esperado: [][2]string{
				{"2024-06-15", "2024-06-15"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			periodos := etl.PeriodosMensais(dia(tt.inicio), dia(tt.fim))
			require.Len(t, periodos, len(tt.esperado))
			for i, p := range periodos {
				assert.Equal(t, tt.esperado[i][0], p.Inicio.Format("2006-01-02"))
				assert.Equal(t, tt.esperado[i][1], p.Fim.Format("2006-01-02"))
			}
		})
	}
}

func TestPeriodosMensais_FimAntesDoInicio(t *testing.T) {
	periodos := etl.PeriodosMensais(dia("2024-02-10"), dia("2024-02-01"))
	assert.Empty(t, periodos)
}
