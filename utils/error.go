package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Coded is implemented by errors that carry a machine-readable code.
type Coded interface {
	ErrorCode() string
}

// ErrorCode returns the first code found in err's chain, or "".
func ErrorCode(err error) string {
	var c Coded
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

// ErrorHandler recovers panics into a 500 reply.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic",
					zap.Any("error", err), zap.String("path", c.Request.URL.Path))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message, zap.Int("status", status), zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// JSONCodedError replies with err's code but never its text, which may carry
// internal detail. The error itself is logged.
func JSONCodedError(c *gin.Context, status int, message string, err error) {
	GetLogger().Error(message, zap.Int("status", status), zap.Error(err))
	c.JSON(status, ErrorResponse{Message: message, Code: ErrorCode(err)})
}
