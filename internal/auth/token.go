package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gatehouse/gatehouse/internal/model"
)

// ErrInvalidToken is returned for expired, malformed or forged tokens.
var ErrInvalidToken = errors.New("invalid session token")

// Claims carries the signed session identity. Only the normalized email is
// in the token; role is looked up from the user store on every request so
// promotions and revocations apply without re-login.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// GenerateSessionToken signs a session token for the given email.
func GenerateSessionToken(email string, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		Email: model.NormalizeEmail(email),
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return signed, nil
}

// EmailFromSessionToken verifies a session token and returns the normalized
// email it was issued for.
func EmailFromSessionToken(tokenString string, secret []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	if !token.Valid || claims.Email == "" {
		return "", ErrInvalidToken
	}

	return model.NormalizeEmail(claims.Email), nil
}
