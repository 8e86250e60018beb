package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-beacon-monitor/pkg/utils"
)

// DefaultMaxRequestSize bounds request bodies when no explicit limit is
// given. Command payloads here are small JSON documents, so one megabyte is
// already generous.
const DefaultMaxRequestSize = 1 << 20

// RequestSizeLimitMiddleware rejects oversized requests up front and caps the
// body reader so a lying Content-Length cannot get past the check.
func RequestSizeLimitMiddleware(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		maxSize = DefaultMaxRequestSize
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large")
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
