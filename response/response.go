// Package response writes the JSON envelope used by every endpoint:
// {"success": true, ...payload} on success and {"success": false, "error": msg} on failure.
package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

func OK(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func Error(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// Fail classifies err and writes the matching status. Causes of non-public kinds are logged
// and never sent to the client; internal errors always read "Internal server error".
func Fail(c *gin.Context, log *zap.Logger, err error) {
	var appErr *xerrors.Error
	if !errors.As(err, &appErr) {
		log.Error("unhandled error",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		Error(c, xerrors.Status(xerrors.KindInternal), xerrors.ErrInternal.Message)
		return
	}

	status := xerrors.Status(appErr.Kind)
	if !xerrors.Public(appErr.Kind) {
		log.Error(appErr.Message,
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(appErr.Err))
	}
	msg := appErr.Message
	if appErr.Kind == xerrors.KindInternal {
		msg = xerrors.ErrInternal.Message
	}
	Error(c, status, msg)
}
