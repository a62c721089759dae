package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/utils"
)

// WebSocketAuthMiddleware reads the token from ?token=. Only admins may subscribe.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}
		if !models.IsAdminRole(claims.Role) {
			c.AbortWithStatus(403)
			return
		}

		setClaims(c, token, claims)
		c.Next()
	}
}
