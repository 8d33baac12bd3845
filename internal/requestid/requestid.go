package requestid

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the request id in both directions.
const Header = "X-Request-ID"

// ctxKey is the Gin context key used to store the request id.
const ctxKey = "request_id"

// maxLen bounds client-supplied ids so they cannot bloat log lines.
const maxLen = 128

// Middleware reuses the caller's X-Request-ID when present and otherwise
// assigns a random UUID. The id is echoed in the response header.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(Header))
		if id == "" || len(id) > maxLen {
			id = uuid.New().String()
		}
		c.Set(ctxKey, id)
		c.Header(Header, id)
		c.Next()
	}
}

// ID returns the request id from the request context, or "" outside the middleware.
func ID(c *gin.Context) string {
	return c.GetString(ctxKey)
}
