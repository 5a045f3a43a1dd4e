package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"vocab-quiz-service/internal/domain"
)

// TokenAuthenticator resolves bearer tokens to user ids. Token issuance
// lives with the identity provider; the HS256 verifier here is the consumed
// authenticate(token) capability.
type TokenAuthenticator struct {
	hmac []byte
	ttl  time.Duration
}

func NewTokenAuthenticator(secret string, ttl time.Duration) *TokenAuthenticator {
	return &TokenAuthenticator{hmac: []byte(secret), ttl: ttl}
}

// Authenticate verifies the token and returns the user id from its subject.
// Any parse, signature, expiry, or subject defect maps to ErrUnauthorized.
func (a *TokenAuthenticator) Authenticate(tokenStr string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.hmac, nil
	})
	if err != nil || !token.Valid {
		return 0, domain.ErrUnauthorized
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, domain.ErrUnauthorized
	}
	return userID, nil
}

// IssueToken signs a token for a user. Used by tooling and tests; the
// production issuer is external.
func (a *TokenAuthenticator) IssueToken(userID int64) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.hmac)
}
