package middleware

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gin-gonic/gin"
)

const (
	// ContextRequestIDKey is where handlers find the request id when
	// logging a failure.
	ContextRequestIDKey = "request_id"

	requestIDHeader = "X-Request-Id"
)

// RequestID tags every request with an id, honoring one supplied by an
// upstream proxy, and echoes it in the response so a log line and a
// client-side report can be matched up.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			buf := make([]byte, 16)
			_, _ = rand.Read(buf)
			id = hex.EncodeToString(buf)
		}
		c.Set(ContextRequestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}
