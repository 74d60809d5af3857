package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"ecobhandu-be/logger"
	"ecobhandu-be/services"
)

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindInsufficientPoints:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindAuthentication:
		return http.StatusUnauthorized
	case services.KindAuthorization:
		return http.StatusForbidden
	case services.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": message}. Internal errors are logged
// and reported, and the client only sees a generic message.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		logger.FromGin(c, log).Error("request failed", zap.Error(err))
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("route", c.FullPath())
				hub.CaptureException(err)
			})
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}
	c.JSON(statusFor(se.Kind), gin.H{"error": se.Message})
}

// bindJSON binds the request body into obj. An empty body is validated as the
// zero value so that callers identified by token can omit it.
func bindJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		return binding.Validator.ValidateStruct(obj)
	}
	return err
}

// respondBindError turns a binding failure into a 400 with a readable message.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": bindMessage(err)})
}

func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "severity", "reportstatus", "oneof":
		return fmt.Sprintf("Invalid %s", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "email":
		return "Invalid email"
	}
	return fmt.Sprintf("Invalid %s", field)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
