package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// multipart framing adds headers and boundaries on top of the file payload
const multipartOverhead = int64(8 * 1024)

// SizeLimit caps the request body so oversized resume uploads fail early with
// http.MaxBytesError instead of buffering into memory. Handlers surface it as
// 413 request entity too large.
func SizeLimit(maxBodyBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBodyBytes + c.Request.ContentLength + multipartOverhead
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

		c.Next()
	}
}
