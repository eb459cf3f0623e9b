package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

func identityFromClaims(claims jwt.MapClaims) (*Identity, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrVerification)
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: missing email claim", ErrVerification)
	}
	raw := make(map[string]any, len(claims))
	for k, v := range claims {
		raw[k] = v
	}
	return &Identity{Subject: sub, Email: email, Claims: raw}, nil
}
