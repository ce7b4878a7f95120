package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/embassygq/consular-api/internal/handler"
	"github.com/embassygq/consular-api/internal/model"
	"github.com/embassygq/consular-api/pkg/auth"
)

type AuthMiddleware struct {
	jwt auth.JWTService
}

func NewAuthMiddleware(jwt auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Authenticate verifies the bearer token and sets the actor in context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			return
		}

		claims, err := m.jwt.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			return
		}

		actor := model.Actor{
			ID:   claims.UserID,
			Role: claims.Role,
		}
		if claims.CitizenID != nil {
			actor.CitizenID = *claims.CitizenID
		}
		handler.SetActor(c, actor)
		c.Next()
	}
}

// RequireStaff rejects requests from actors below staff level.
func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return requireRole(model.Role.IsStaff)
}

// RequireAdmin rejects requests from non-admin actors.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return requireRole(func(r model.Role) bool {
		return r == model.RoleAdmin
	})
}

func requireRole(allowed func(model.Role) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := handler.CurrentActor(c)
		if !allowed(actor.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, handler.NewErrorResponse("insufficient privileges"))
			return
		}
		c.Next()
	}
}
