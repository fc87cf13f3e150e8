package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmyVerse/ayursutra-web-sub001/authentication"
	"github.com/AmyVerse/ayursutra-web-sub001/response"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

// DoctorProfile returns the signed-in doctor's account and practice profile.
func (h *Handler) DoctorProfile(c *gin.Context) {
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

	doctor, ok := profile.(*authentication.DoctorAccount)
	if !ok {
		response.Fail(c, h.Log, xerrors.ErrForbidden)
		return
	}
	if doctor.Doctor == nil {
		response.Fail(c, h.Log, xerrors.ErrDoctorProfileNotFound)
		return
	}
	response.OK(c, http.StatusOK, gin.H{
		"user":          doctor.User,
		"doctorProfile": doctor.Doctor,
	})
}
