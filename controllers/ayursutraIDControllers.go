package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmyVerse/ayursutra-web-sub001/response"
)

// GenerateAyursutraID assigns an AyurSutra ID to the user if it has none yet.
func (h *Handler) GenerateAyursutraID(c *gin.Context) {
	var req struct {
		UserID uint `json:"userId" binding:"required,min=1"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.Log, err)
		return
	}

	id, created, err := h.IDs.Assign(c.Request.Context(), req.UserID)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}

	message := "AyurSutra ID already exists"
	if created {
		message = "AyurSutra ID generated successfully!"
	}
	response.OK(c, http.StatusOK, gin.H{
		"ayursutraId": id,
		"message":     message,
	})
}
