package middleware

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/coursedeck/api/pkg/response"
)

// OwnerClaims is the JWT payload for an owner token.
type OwnerClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates HMAC-signed owner tokens and the static admin
// token for the administrative endpoints.
type AuthMiddleware struct {
	jwtSecret  string
	adminToken string
}

func NewAuthMiddleware(jwtSecret, adminToken string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret:  jwtSecret,
		adminToken: adminToken,
	}
}

// Authenticate validates the owner token from the Authorization header or,
// for the polling endpoints, the token query parameter.
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return response.Unauthorized(c, "Missing owner token")
		}

		claims, err := m.validateToken(tokenString)
		if err != nil || claims.UserID == "" {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		c.Locals("userId", claims.UserID)
		return c.Next()
	}
}

// RequireAdmin validates the static admin token from the X-Admin-Token
// header or the token query parameter.
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("X-Admin-Token")
		if token == "" {
			token = c.Query("token")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(m.adminToken)) != 1 {
			return response.Forbidden(c, "Admin token required")
		}
		return c.Next()
	}
}

func (m *AuthMiddleware) validateToken(tokenString string) (*OwnerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OwnerClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*OwnerClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// GetUserID returns the authenticated owner id set by Authenticate.
func GetUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("userId").(string); ok {
		return id
	}
	return ""
}
