package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/AmyVerse/ayursutra-web-sub001/response"
	"github.com/AmyVerse/ayursutra-web-sub001/services"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

const defaultMaxResults = 10

// Chat relays a message to the AI assistant.
func (h *Handler) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
		UserID  string `json:"user_id"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.Log, err)
		return
	}

	payload := gin.H{"message": req.Message}
	if req.UserID != "" {
		payload["user_id"] = req.UserID
	}
	h.forward(c, services.ChatPath, payload)
}

// SearchMedicines relays a medicine lookup to the search backend.
func (h *Handler) SearchMedicines(c *gin.Context) {
	var req struct {
		MedicineName string `json:"medicine_name" binding:"required"`
		MaxResults   *int   `json:"max_results" binding:"omitempty,min=1,max=50"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.Log, err)
		return
	}

	maxResults := defaultMaxResults
	if req.MaxResults != nil {
		maxResults = *req.MaxResults
	}
	h.forward(c, services.MedicineSearchPath, gin.H{
		"medicine_name": req.MedicineName,
		"max_results":   maxResults,
	})
}

func (h *Handler) forward(c *gin.Context, path string, payload gin.H) {
	status, body, err := h.Proxy.Forward(c.Request.Context(), path, payload)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	c.Data(status, "application/json", body)
}

func (h *Handler) MethodNotAllowed(c *gin.Context) {
	response.Fail(c, h.Log, xerrors.ErrMethodNotAllowed)
}
