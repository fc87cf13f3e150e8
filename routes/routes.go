package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/AmyVerse/ayursutra-web-sub001/authentication"
	"github.com/AmyVerse/ayursutra-web-sub001/controllers"
	"github.com/AmyVerse/ayursutra-web-sub001/middleware"
	"github.com/AmyVerse/ayursutra-web-sub001/models"
)

type Options struct {
	InternalAPIKey string
	// ProxyLimiter throttles the AI proxy and the public ID endpoint per client IP.
	ProxyLimiter *middleware.IPLimiter
}

func SetupRouter(h *controllers.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(h.Log))

	r.GET("/healthz", h.Health)

	api := r.Group("/api")

	limited := api.Group("")
	if opts.ProxyLimiter != nil {
		limited.Use(opts.ProxyLimiter.Middleware())
	}

	//auth routes
	api.POST("/otp/send", h.SendOTP)
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/otp/send", h.SendOTP)
		auth.POST("/otp/verify", h.VerifyOTP)
		auth.POST("/logout", h.Logout)
	}

	session := api.Group("")
	session.Use(authentication.RequireSession(h.Bridge.Issuer()))
	{
		session.GET("/auth/session", h.Session)
		session.POST("/auth/session/refresh", h.RefreshSession)
		session.GET("/dashboard", h.Dashboard)

		session.GET("/ably/auth", h.AblyAuth)
		session.POST("/ably/auth", h.AblyAuth)

		session.GET("/notifications", h.ListNotifications)
		session.GET("/notifications/unread-count", h.UnreadNotificationCount)
		session.PATCH("/notifications/mark-all-read", h.MarkAllNotificationsRead)
		session.PATCH("/notifications/:id/read", h.MarkNotificationRead)
	}

	//doctor routes
	doctor := session.Group("/doctor")
	doctor.Use(authentication.RequireRole(models.RoleDoctor))
	{
		doctor.GET("/profile", h.DoctorProfile)
	}

	//patient routes
	patient := session.Group("/patient")
	patient.Use(authentication.RequireRole(models.RolePatient))
	{
		patient.GET("/profile", h.PatientProfile)
	}

	//internal service routes
	internal := api.Group("")
	internal.Use(middleware.RequireAPIKey(opts.InternalAPIKey))
	{
		internal.POST("/user/details", h.UserDetails)
	}

	limited.POST("/ayursutra-id/generate", h.GenerateAyursutraID)

	//AI proxy routes
	for path, handler := range map[string]gin.HandlerFunc{
		"/chat":             h.Chat,
		"/medicines/search": h.SearchMedicines,
	} {
		limited.POST(path, handler)
		api.GET(path, h.MethodNotAllowed)
		api.PUT(path, h.MethodNotAllowed)
		api.DELETE(path, h.MethodNotAllowed)
	}

	return r
}
