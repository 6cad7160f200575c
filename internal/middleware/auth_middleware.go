package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuthMiddleware.
const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
	ContextUserRole  = "userRole"
)

// JWTAuthMiddleware creates a gin middleware for JWT authentication.
func JWTAuthMiddleware(tokens *jwt.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const BearerSchema = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			slog.Warn("JWTAuthMiddleware: Authorization header is missing", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "code": models.CodeUnauthorized})
			return
		}
		if !strings.HasPrefix(authHeader, BearerSchema) {
			slog.Warn("JWTAuthMiddleware: Authorization header format is invalid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer ", "code": models.CodeUnauthorized})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(authHeader[len(BearerSchema):]))
		if err != nil {
			slog.Warn("JWTAuthMiddleware: Token parsing/validation failed", "error", err)
			if errors.Is(err, jwt.ErrExpiredToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired", "code": models.CodeUnauthorized})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "code": models.CodeUnauthorized})
			}
			return
		}

		role := claims.Role
		if role == "" {
			role = models.RoleParticipant
		}
		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextUserRole, role)
		c.Next()
	}
}

// RequireRole rejects authenticated users without one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		slog.Warn("RequireRole: access denied", "userId", c.GetString(ContextUserID), "role", role)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions", "code": models.CodeForbidden})
	}
}

// UserID returns the authenticated subject.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
