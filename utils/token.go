package authUtils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Claims identifies the authenticated user.
type Claims struct {
	UserID string
	Role   string
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, expiry time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is not set")
	}
	return &TokenIssuer{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

// Expiry is how long issued tokens stay valid.
func (t *TokenIssuer) Expiry() time.Duration {
	return t.expiry
}

// Generate creates a signed token for the user.
func (t *TokenIssuer) Generate(userID, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     t.now().Add(t.expiry).Unix(),
	})
	return token.SignedString(t.secret)
}

// Parse validates tokenString and returns its claims.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, errors.New("invalid token claims")
	}
	role, _ := claims["role"].(string)
	return &Claims{UserID: userID, Role: role}, nil
}
