package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"code-review-market/utils"
)

// MaxBodyBytes bounds request bodies, attachments included.
const MaxBodyBytes = 10 << 20

// SecurityHeadersMiddleware sets the standard hardening headers.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Next()
	}
}

// InputValidationMiddleware rejects oversized bodies and, for requests that
// carry one, content types the API does not read.
func InputValidationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > MaxBodyBytes {
			utils.AbortWithError(c, http.StatusRequestEntityTooLarge, "TOO_LARGE", "request body exceeds 10MB")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 {
				break
			}
			ct := c.GetHeader("Content-Type")
			if !strings.Contains(ct, "application/json") && !strings.Contains(ct, "multipart/form-data") {
				utils.AbortWithError(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE",
					"Content-Type must be application/json or multipart/form-data")
				return
			}
		}
		c.Next()
	}
}
