package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AmyVerse/ayursutra-web-sub001/authentication"
	"github.com/AmyVerse/ayursutra-web-sub001/models"
	"github.com/AmyVerse/ayursutra-web-sub001/services"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

// Handler holds the dependencies shared by every endpoint.
type Handler struct {
	Log           *zap.Logger
	Bridge        *authentication.Bridge
	Users         *services.UserService
	IDs           *services.AyursutraIDService
	OTP           *services.OTPService
	Notifications *services.NotificationService
	Realtime      *services.RealtimeService
	Proxy         *services.AIProxy
	DB            *gorm.DB
	Redis         redis.UniversalClient
	CookieSecure  bool
}

func init() {
	// Report validation failures by JSON field name.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	}
}

// bindJSON decodes the body into dst. An empty body is validated as an empty object.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(dst)
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return xerrors.Wrap(xerrors.KindInvalidInput, fieldMessage(verrs[0]), err)
	}
	return xerrors.Wrap(xerrors.KindInvalidInput, xerrors.ErrInvalidBody.Message, err)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "e164":
		return field + " must be a phone number in international format"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must have exactly %s items", field, fe.Param())
	case "numeric":
		return field + " must contain only digits"
	}
	return field + " is invalid"
}

func principal(c *gin.Context) (*authentication.Principal, error) {
	p, ok := authentication.CurrentPrincipal(c)
	if !ok {
		return nil, xerrors.ErrUnauthorized
	}
	return p, nil
}

// profilePayload renders the role-specific view of an account.
func profilePayload(p authentication.Profile) (gin.H, error) {
	switch v := p.(type) {
	case *authentication.PatientAccount:
		return gin.H{"role": models.RolePatient, "user": v.User}, nil
	case *authentication.DoctorAccount:
		return gin.H{"role": models.RoleDoctor, "user": v.User, "doctorProfile": v.Doctor}, nil
	default:
		return nil, xerrors.New(xerrors.KindInternal, fmt.Sprintf("unhandled profile %T", p))
	}
}

func (h *Handler) setSessionCookie(c *gin.Context, s *authentication.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	maxAge := int(h.Bridge.Issuer().TTL().Seconds())
	c.SetCookie(authentication.SessionCookie, s.Token, maxAge, "/", "", h.CookieSecure, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(authentication.SessionCookie, "", -1, "/", "", h.CookieSecure, true)
}

func sessionPayload(s *authentication.Session) gin.H {
	return gin.H{
		"token":     s.Token,
		"expiresAt": s.ExpiresAt,
		"user":      s.Principal,
	}
}
