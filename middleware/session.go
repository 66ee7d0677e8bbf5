package middleware

import (
	"strings"

	"main/services"

	"github.com/gin-gonic/gin"
)

// SessionMiddleware resolves the gateway session token from the
// Authorization header into the request context. Resolution is
// best-effort: requests carrying no token, or an upstream-issued token the
// gateway cannot verify, simply proceed without an identity — the activity
// tracker treats that as "nothing to record", never as an error.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := services.ParseSessionToken(tokenString)
		if err != nil {
			c.Next()
			return
		}

		c.Set(services.SessionContextKey, claims)
		c.Next()
	}
}
