package webhook

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dataprocessor/internal/cryptox"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "dataprocessor"

var ErrBodyMismatch = errors.New("token does not match request body")

// Claims is the payload of the bearer token attached to every relayed event.
// BodySHA256 binds the token to the exact bytes it was issued for.
type Claims struct {
	jwt.RegisteredClaims
	BodySHA256 string `json:"body_sha256"`
}

func signToken(body, secret []byte, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		BodySHA256: bodyDigest(body),
	})

	return token.SignedString(secret)
}

// VerifyToken checks a relay token as a receiving endpoint would: signature,
// algorithm, expiry, issuer and the body digest.
func VerifyToken(tokenString string, body, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	if claims.BodySHA256 != bodyDigest(body) {
		return nil, fmt.Errorf("verify token: %w", ErrBodyMismatch)
	}
	return claims, nil
}

func bodyDigest(body []byte) string {
	return cryptox.NewProtector(nil).Protect(body).String
}
