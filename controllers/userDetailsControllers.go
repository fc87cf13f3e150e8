package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmyVerse/ayursutra-web-sub001/response"
)

// UserDetails serves other internal services: the account plus its role-specific profile.
func (h *Handler) UserDetails(c *gin.Context) {
	var req struct {
		UserID uint `json:"userId" binding:"required,min=1"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.Log, err)
		return
	}

	profile, err := h.Bridge.Load(c.Request.Context(), req.UserID)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	payload, err := profilePayload(profile)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	response.OK(c, http.StatusOK, payload)
}
