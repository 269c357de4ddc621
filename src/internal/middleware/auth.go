package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"smartroll-attendance-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const RoleAdmin = "admin"

// Claims represents JWT token claims
type Claims struct {
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	TokenType string `json:"tokenType"`
	jwt.RegisteredClaims
}

// AdminAuth admits callers holding administrative authority: either the
// static admin key in the configured header, or a Bearer access token
// signed with the JWT key whose role is admin. An unset key disables that
// credential; with neither configured every request is refused.
type AdminAuth struct {
	adminKey  string
	keyHeader string
	jwtSecret string
}

func NewAdminAuth(adminKey, keyHeader, jwtSecret string) *AdminAuth {
	return &AdminAuth{
		adminKey:  adminKey,
		keyHeader: keyHeader,
		jwtSecret: jwtSecret,
	}
}

// RequireAdmin runs before any handler logic and aborts with 401 on failure.
func (m *AdminAuth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.Verify(c.Request); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"path":        c.FullPath(),
				"remote_addr": c.RemoteIP(),
			}).Warn("Admin credential missing or invalid")

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "admin credential required",
			})
			return
		}

		c.Set("is_admin", true)
		c.Next()
	}
}

// IsAdmin is the boolean admission check.
func (m *AdminAuth) IsAdmin(r *http.Request) bool {
	return m.Verify(r) == nil
}

// Verify returns nil for an admin caller. Every failure wraps
// models.ErrUnauthorized.
func (m *AdminAuth) Verify(r *http.Request) error {
	if m.adminKey != "" {
		if key := r.Header.Get(m.keyHeader); key != "" {
			if subtle.ConstantTimeCompare([]byte(key), []byte(m.adminKey)) != 1 {
				return fmt.Errorf("%w: admin key mismatch", models.ErrUnauthorized)
			}
			return nil
		}
	}

	if m.jwtSecret == "" {
		return fmt.Errorf("%w: no credential accepted", models.ErrUnauthorized)
	}

	token := extractBearer(r.Header.Get("Authorization"))
	if token == "" {
		return fmt.Errorf("%w: no credential presented", models.ErrUnauthorized)
	}

	claims, err := m.validateJWTToken(token)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}

	if claims.Role != RoleAdmin {
		return fmt.Errorf("%w: role %q", models.ErrUnauthorized, claims.Role)
	}
	return nil
}

// extractBearer extracts the token from a "Bearer <token>" header value
func extractBearer(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// validateJWTToken parses and validates JWT token (checks signature and expiration)
func (m *AdminAuth) validateJWTToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(m.jwtSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token expired")
		}
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	if claims.TokenType != "access" {
		return nil, errors.New("invalid token type")
	}

	return claims, nil
}
