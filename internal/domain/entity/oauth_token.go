package entity

import "time"

// OAuthToken é o registro único (id=1) da credencial OAuth do Bling.
// O refresh token é de uso único: uma vez trocado, o valor antigo é
// invalidado pelo servidor de autorização, independente de termos conseguido
// persistir o novo par.
type OAuthToken struct {
	ID           int
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// RemainingLifetime devolve quanto tempo de vida resta ao access token.
func (t OAuthToken) RemainingLifetime(now time.Time) time.Duration {
	return t.ExpiresAt.Sub(now)
}
