package middleware

import (
	"strings"

	"github.com/campuslink/buspass-backend/internal/authz"
	"github.com/campuslink/buspass-backend/internal/models"
	"github.com/campuslink/buspass-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthCookieName is the session cookie set on login and register.
const AuthCookieName = "bus_pass_token"

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		// First try the session cookie set by the web client
		if cookie, err := c.Cookie(AuthCookieName); err == nil {
			tokenString = cookie
		}

		// Fall back to the Authorization header for API clients
		if tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					tokenString = parts[1]
				}
			}
		}

		// If still not found, try query parameter (for WebSocket)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.JSON(401, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		token, err := utils.ValidateToken(tokenString)
		if err != nil || !token.Valid {
			c.JSON(401, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(401, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		userID, ok := claims["userId"].(float64)
		if !ok {
			c.JSON(401, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}
		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)

		c.Set("userId", uint(userID))
		c.Set("email", email)
		c.Set("role", role)
		c.Next()
	}
}

// SessionFromContext rebuilds the authorization session from the claims the
// middleware stored on the request context. Returns nil when unauthenticated.
func SessionFromContext(c *gin.Context) *authz.Session {
	userID := c.GetUint("userId")
	if userID == 0 {
		return nil
	}
	return &authz.Session{
		UserID: userID,
		Email:  c.GetString("email"),
		Role:   models.Role(c.GetString("role")),
	}
}
