package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// BasicAuth guards the routes with a single "user:password" account. Empty creds disable it.
func BasicAuth(creds string) gin.HandlerFunc {
	user, pass, ok := strings.Cut(strings.TrimSpace(creds), ":")
	if !ok || user == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return gin.BasicAuthForRealm(gin.Accounts{user: pass}, "collector")
}
