package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tablereserve/reservation-app/utils"
)

// Context keys set by the auth middlewares.
const (
	ContextUserID       = "user_id"
	ContextRole         = "role"
	ContextRestaurantID = "restaurant_id"
	ContextToken        = "token"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid authorization format"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ParseToken(tokenString)
		if err != nil || claims == nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid or expired token"))
			c.Abort()
			return
		}
		if claims.UserID == 0 {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid user ID in token"))
			c.Abort()
			return
		}

		setClaims(c, tokenString, claims)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous guests through otherwise.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if claims, err := utils.ParseToken(tokenString); err == nil && claims.UserID != 0 {
				setClaims(c, tokenString, claims)
			}
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, token string, claims *utils.CustomClaims) {
	c.Set(ContextToken, token)
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextRole, claims.Role)
	if claims.RestaurantID != nil {
		c.Set(ContextRestaurantID, *claims.RestaurantID)
	}
}
