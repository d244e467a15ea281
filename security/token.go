package security

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid access token")

// TokenVerifier validates HS256 access tokens issued by the identity
// provider. A zero-value or nil verifier is disabled and accepts everything.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	if secret == "" {
		return nil
	}
	return &TokenVerifier{secret: []byte(secret)}
}

func (v *TokenVerifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// Authenticate returns the subject of the bearer token in authHeader.
// Requests without an Authorization header stay anonymous with an empty
// subject, as does everything when the verifier is disabled.
func (v *TokenVerifier) Authenticate(authHeader string) (string, error) {
	if !v.Enabled() || authHeader == "" {
		return "", nil
	}
	return v.Verify(authHeader)
}

// Verify checks the bearer token in an Authorization header value and
// returns its subject.
func (v *TokenVerifier) Verify(authHeader string) (string, error) {
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", fmt.Errorf("%w: expected bearer scheme", ErrInvalidToken)
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
