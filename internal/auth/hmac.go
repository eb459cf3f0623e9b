package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier verifies HS256 tokens signed with a shared secret. It stands
// in for the external provider in local development.
type HMACVerifier struct {
	secret []byte
	issuer string
}

// NewHMACVerifier creates an HMACVerifier. An empty issuer disables the
// issuer check.
func NewHMACVerifier(secret []byte, issuer string) (*HMACVerifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("hmac secret is required")
	}
	return &HMACVerifier{secret: secret, issuer: issuer}, nil
}

func (v *HMACVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	return identityFromClaims(claims)
}

// SignHMAC issues an HS256 token for subject/email valid for ttl.
func SignHMAC(secret []byte, issuer, subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if issuer != "" {
		claims["iss"] = issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
