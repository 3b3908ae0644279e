package identity

import (
	"contractdesk/pkg/domain"
)

// Gate adapts JWTService to the auth middleware's validator interface.
type Gate struct {
	service *JWTService
}

func NewGate(service *JWTService) *Gate {
	return &Gate{service: service}
}

func (g *Gate) ValidateToken(tokenString string) (domain.Principal, error) {
	claims, err := g.service.ValidateToken(tokenString)
	if err != nil {
		return domain.Principal{}, err
	}
	return claims.Principal()
}
