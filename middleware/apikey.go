package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmyVerse/ayursutra-web-sub001/response"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

const APIKeyHeader = "X-API-Key"

// RequireAPIKey admits service-to-service calls carrying key. An empty key rejects everything.
func RequireAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(APIKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			response.Error(c, http.StatusUnauthorized, xerrors.ErrUnauthorized.Message)
			return
		}
		c.Next()
	}
}
