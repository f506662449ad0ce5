// Package middleware provides request logging, tracing, identity verification and rate limiting.
package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// IdentityVerifier checks bearer tokens minted by the identity provider.
// Tokens are only verified here; issuing them is the provider's job.
type IdentityVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewIdentityVerifier(secret, issuer, audience string) *IdentityVerifier {
	return &IdentityVerifier{secret: []byte(secret), issuer: issuer, audience: audience}
}

var (
	ErrMissingToken = errors.New("authorization token required")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Verify parses tokenString and returns its subject.
func (v *IdentityVerifier) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

func bearerToken(c *fiber.Ctx, allowQuery bool) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if allowQuery {
			if token := c.Query("token"); token != "" {
				return token, nil
			}
		}
		return "", ErrMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// IdentityRequired is a middleware that enforces a valid identity token and stores
// its subject in c.Locals("subject").
func (v *IdentityVerifier) IdentityRequired() fiber.Handler {
	return v.handler(false)
}

// WebSocketIdentityRequired also accepts the token as a ?token= query parameter,
// since browsers cannot set headers on the websocket handshake.
func (v *IdentityVerifier) WebSocketIdentityRequired() fiber.Handler {
	return v.handler(true)
}

func (v *IdentityVerifier) handler(allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c, allowQuery)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		subject, err := v.Verify(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrInvalidToken.Error()})
		}
		c.Locals("subject", subject)
		return c.Next()
	}
}
