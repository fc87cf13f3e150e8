package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmyVerse/ayursutra-web-sub001/authentication"
	"github.com/AmyVerse/ayursutra-web-sub001/response"
	"github.com/AmyVerse/ayursutra-web-sub001/services"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

func (h *Handler) PatientProfile(c *gin.Context) {
	p, err := principal(c)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	profile, err := h.Bridge.Load(c.Request.Context(), p.UserID)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	patient, ok := profile.(*authentication.PatientAccount)
	if !ok {
		response.Fail(c, h.Log, xerrors.ErrForbidden)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"user": patient.User})
}

// Dashboard gathers what either dashboard needs on first paint: the role-specific profile,
// the unread notification count and the realtime channels to subscribe to.
func (h *Handler) Dashboard(c *gin.Context) {
	p, err := principal(c)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	profile, err := h.Bridge.Load(c.Request.Context(), p.UserID)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	payload, err := profilePayload(profile)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}

	payload["unreadCount"] = int64(0)
	payload["channels"] = []string{}
	if id := profile.Account().AyursutraIDValue(); id != "" {
		count, err := h.Notifications.UnreadCount(c.Request.Context(), id)
		if err != nil {
			response.Fail(c, h.Log, err)
			return
		}
		payload["unreadCount"] = count
		payload["channels"] = services.ChannelNames(id)
	}
	response.OK(c, http.StatusOK, payload)
}
