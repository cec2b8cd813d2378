package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/types"
)

// APIError is a client-facing failure. Code is the machine readable value
// sent as "error"; Message is for humans.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]interface{}
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

func (e *APIError) WithDetails(details map[string]interface{}) *APIError {
	e.Details = details
	return e
}

func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

func BadRequest(code, message string) *APIError {
	return NewAPIError(http.StatusBadRequest, code, message)
}

func Unauthorized(message string) *APIError {
	return NewAPIError(http.StatusUnauthorized, "unauthorized", message)
}

func Forbidden(message string) *APIError {
	return NewAPIError(http.StatusForbidden, "forbidden", message)
}

func NotFound(code, message string) *APIError {
	return NewAPIError(http.StatusNotFound, code, message)
}

func Conflict(code, message string) *APIError {
	return NewAPIError(http.StatusConflict, code, message)
}

func TooManyRequests(message string) *APIError {
	return NewAPIError(http.StatusTooManyRequests, "too_many_requests", message)
}

// WriteError renders err as an ErrorResponse. Anything that is not an
// APIError is logged and hidden behind a 500.
func WriteError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, types.ErrorResponse{
			Error:     apiErr.Code,
			Message:   apiErr.Message,
			Details:   apiErr.Details,
			Timestamp: time.Now().UTC(),
		})
		return
	}

	Zlog.Error("Request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{
		Error:     "server_error",
		Message:   "Internal Server Error",
		Timestamp: time.Now().UTC(),
	})
}

// WriteBindError answers a failed ShouldBind* call.
func WriteBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, types.ErrorResponse{
		Error:     "Bad Request",
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	})
}
