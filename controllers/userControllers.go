package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AmyVerse/ayursutra-web-sub001/models"
	"github.com/AmyVerse/ayursutra-web-sub001/response"
	"github.com/AmyVerse/ayursutra-web-sub001/services"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

// Register creates a patient or doctor account and signs it in.
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required,min=2,max=120"`
		Email    string `json:"email" binding:"omitempty,email"`
		Phone    string `json:"phone" binding:"omitempty,e164"`
		Role     string `json:"role" binding:"required,oneof=patient doctor"`
		Password string `json:"password" binding:"omitempty,min=8,max=72"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		response.Fail(c, h.Log, xerrors.Wrap(xerrors.KindInvalidInput, "role must be one of: patient doctor", err))
		return
	}

	user, err := h.Users.Register(c.Request.Context(), services.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}

	session, err := h.Bridge.SignIn(c.Request.Context(), user.ID)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	h.setSessionCookie(c, session)

	payload := sessionPayload(session)
	payload["message"] = "Registration successful"
	payload["ayursutraId"] = user.AyursutraIDValue()
	response.OK(c, http.StatusCreated, payload)
}

// Login signs in with email or phone plus password.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	if strings.TrimSpace(req.Identifier) == "" {
		response.Fail(c, h.Log, xerrors.ErrIdentifierRequired)
		return
	}

	user, err := h.Users.Authenticate(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	session, err := h.Bridge.SignIn(c.Request.Context(), user.ID)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	h.setSessionCookie(c, session)

	payload := sessionPayload(session)
	payload["message"] = "Login successful"
	response.OK(c, http.StatusOK, payload)
}

// SendOTP issues a one-time code to an email address or phone number.
func (h *Handler) SendOTP(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.Log, err)
		return
	}

	channel, err := h.OTP.Send(c.Request.Context(), req.Identifier)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{
		"message": "OTP sent successfully",
		"channel": channel,
	})
}

// VerifyOTP checks the code and signs the matching account in.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier"`
		Code       string `json:"code" binding:"required,len=6,numeric"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.Log, err)
		return
	}

	user, err := h.OTP.Verify(c.Request.Context(), req.Identifier, req.Code)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	if user == nil {
		response.Fail(c, h.Log, xerrors.ErrAccountNotFound)
		return
	}

	session, err := h.Bridge.SignIn(c.Request.Context(), user.ID)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	h.setSessionCookie(c, session)

	payload := sessionPayload(session)
	payload["message"] = "OTP verified successfully"
	response.OK(c, http.StatusOK, payload)
}

func (h *Handler) Session(c *gin.Context) {
	p, err := principal(c)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"user": p})
}

// RefreshSession re-reads the account and issues a new token.
func (h *Handler) RefreshSession(c *gin.Context) {
	p, err := principal(c)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	session, err := h.Bridge.Refresh(c.Request.Context(), *p)
	if err != nil {
		response.Fail(c, h.Log, err)
		return
	}
	h.setSessionCookie(c, session)
	response.OK(c, http.StatusOK, sessionPayload(session))
}

func (h *Handler) Logout(c *gin.Context) {
	h.clearSessionCookie(c)
	response.OK(c, http.StatusOK, gin.H{"message": "You are successfully logged out"})
}
