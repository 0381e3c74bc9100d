package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "changeflow/pkg/domain"
)

// TokenClaims is what the transport layer needs from a validated token.
type TokenClaims struct {
	ActorID id.UserID
}

// TokenValidator validates HMAC-signed bearer tokens issued by the identity
// provider in front of this service and extracts the actor id. Validation
// here is strictly "who is this"; authorization stays in the workflow.
type TokenValidator struct {
	signingKey []byte
}

func NewTokenValidator(signingKey string) *TokenValidator {
	return &TokenValidator{signingKey: []byte(signingKey)}
}

func (v *TokenValidator) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	subject, err := claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}
	actorID, err := id.ParseUserID(subject)
	if err != nil {
		return nil, fmt.Errorf("token subject is not a user id: %w", err)
	}
	return &TokenClaims{ActorID: actorID}, nil
}

// IssueToken mints a short-lived token for the given user. Used by tests and
// the development login endpoint.
func (v *TokenValidator) IssueToken(userID id.UserID, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString(v.signingKey)
}
