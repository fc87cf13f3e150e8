package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AmyVerse/ayursutra-web-sub001/response"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

// AblyAuth answers the realtime SDK's authUrl callback. The body is the bare token request
// the SDK expects, not the usual envelope.
func (h *Handler) AblyAuth(c *gin.Context) {
	p, err := principal(c)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}

	requested := c.Query("ayursutraId")
	if requested == "" && c.Request.Method == http.MethodPost {
		requested = c.PostForm("ayursutraId")
	}
	if requested == "" {
		response.Fail(c, h.Log, xerrors.ErrAyursutraIDRequired)
		return
	}

	if requested != p.AyursutraID {
		// The token may predate the ID assignment, so check the stored account.
		profile, err := h.Bridge.Load(c.Request.Context(), p.UserID)
		if err != nil {
			response.Fail(c, h.Log, err)
			return
		}
		if profile.Account().AyursutraIDValue() != requested {
			h.Log.Warn("realtime token for foreign channel refused",
				zap.Uint("user_id", p.UserID),
				zap.String("requested", requested))
			response.Fail(c, h.Log, xerrors.ErrForbidden)
			return
		}
	}

	tokenRequest, err := h.Realtime.IssueChannelToken(c.Request.Context(), requested)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, tokenRequest)
}
