package integrations_module

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userIDHeader = "X-User-ID"
	userIDKey    = "user_id"
)

// UserHandler middleware resolves the acting user from the X-User-ID header,
// falling back to defaultUserID when the header is absent
func UserHandler(defaultUserID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(userIDHeader))
		if userID == "" {
			userID = defaultUserID
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// GetUserID retrieves the acting user from the gin context
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// makeApiKeyValidator returns a validator comparing against the configured API key
func makeApiKeyValidator(apiKey string) func(key string) bool {
	return func(key string) bool {
		return apiKey == key
	}
}
