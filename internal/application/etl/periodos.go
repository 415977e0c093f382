package etl

import "time"

// Periodo é um subintervalo de datas, inclusivo nas duas pontas.
type Periodo struct {
	Inicio time.Time
	Fim    time.Time
}

// PeriodosMensais quebra [inicio, fim] em subperíodos por mês-calendário.
// A virada de ano e meses de tamanhos diferentes são tratados pela própria
// normalização de time.Date (mês 13 = janeiro do ano seguinte).
func PeriodosMensais(inicio, fim time.Time) []Periodo {
	var periodos []Periodo
	cursor := inicio
	for !cursor.After(fim) {
		fimMes := time.Date(cursor.Year(), cursor.Month()+1, 1, 0, 0, 0, 0, cursor.Location()).
			AddDate(0, 0, -1)
		fimPeriodo := fimMes
		if fim.Before(fimMes) {
			fimPeriodo = fim
		}
		periodos = append(periodos, Periodo{Inicio: cursor, Fim: fimPeriodo})
		cursor = fimPeriodo.AddDate(0, 0, 1)
	}
	return periodos
}
