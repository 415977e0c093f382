package repository

import "github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/entity"

// TokenRepository persiste a credencial OAuth única.
// Save substitui o registro inteiro de forma atômica e com commit imediato:
// o refresh token antigo já foi invalidado pelo servidor quando Save é
// chamado, então a gravação não pode ficar pendurada em transação de ETL.
type TokenRepository interface {
	// Get devolve a credencial, ou nil se nunca houve autorização.
	Get() (*entity.OAuthToken, error)
	// Save grava o novo par access/refresh; expiresIn em segundos.
	Save(accessToken, refreshToken string, expiresIn int) error
}
