package authentication

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AmyVerse/ayursutra-web-sub001/models"
	"github.com/AmyVerse/ayursutra-web-sub001/response"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

const (
	SessionCookie = "ayursutra_session"
	principalKey  = "principal"
)

// RequireSession accepts a bearer token or the session cookie.
func RequireSession(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, xerrors.ErrUnauthorized.Message)
			return
		}
		principal, err := issuer.Parse(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, xerrors.ErrUnauthorized.Message)
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRole must run after RequireSession.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, xerrors.ErrUnauthorized.Message)
			return
		}
		if principal.Role != role {
			response.Error(c, http.StatusForbidden, xerrors.ErrForbidden.Message)
			return
		}
		c.Next()
	}
}

func CurrentPrincipal(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}

func tokenFrom(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	cookie, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie
}
