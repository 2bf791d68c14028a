package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// AccessTokenType is the "typ" claim carried by access tokens.
const AccessTokenType = "access"

// Roles understood by the grocery consoles.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleCustomer = "customer"
)

var (
	ErrNoSecret     = errors.New("JWT secret not configured")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Identity is the caller extracted from a token or gateway headers.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// Verifier validates HS256 access tokens issued by the auth service.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return &Verifier{}
	}
	return &Verifier{secret: []byte(secret)}
}

// Enabled reports whether a secret is configured.
func (v *Verifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// ParseAndValidateToken parses tokenStr and returns its claims. If
// expectedType is non-empty the "typ" claim must match it.
func (v *Verifier) ParseAndValidateToken(tokenStr, expectedType string) (jwt.MapClaims, error) {
	if !v.Enabled() {
		return nil, ErrNoSecret
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if expectedType != "" {
		if typ, ok := claims["typ"].(string); !ok || typ != expectedType {
			return nil, fmt.Errorf("invalid token type")
		}
	}
	return claims, nil
}

// Identify validates an access token and maps its claims to an Identity.
func (v *Verifier) Identify(tokenStr string) (*Identity, error) {
	claims, err := v.ParseAndValidateToken(tokenStr, AccessTokenType)
	if err != nil {
		return nil, err
	}
	id := &Identity{}
	id.UserID, _ = claims["sub"].(string)
	id.Email, _ = claims["email"].(string)
	id.Role, _ = claims["role"].(string)
	if id.UserID == "" {
		return nil, ErrInvalidToken
	}
	return id, nil
}
