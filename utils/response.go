package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	services "github.com/phillip/riseandserve-go/services"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithError writes the JSON error body for err and stops the chain.
// Internal failures are logged and reported without their cause.
func AbortWithError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	body := gin.H{"kind": kind.String()}

	var se *services.Error
	if errors.As(err, &se) {
		body["error"] = se.Message
		if len(se.Fields) > 0 {
			body["fields"] = se.Fields
		}
	}
	if kind == services.KindInternal {
		if logger, ok := c.Get(LoggerKey); ok {
			logger.(*zap.Logger).Error("request failed", zap.Error(err))
		}
		body["error"] = "internal server error"
	}
	if kind == services.KindTransient {
		c.Header("Retry-After", "1")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(StatusFor(kind), body)
}

// LoggerKey is the gin context key holding the request-scoped logger.
const LoggerKey = "logger"
