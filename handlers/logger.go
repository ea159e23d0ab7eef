package handlers

import (
	"ragdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	loggerKey       = "logger"
	requestIDHeader = "X-Request-ID"
)

// getLogger returns the request-scoped logger, or the global one outside a request.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get(loggerKey); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.GetLogger()
}

// ContextLogger tags every request with an id, echoed in X-Request-ID, and
// stores a logger carrying it for getLogger.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Set(loggerKey, logger.With(zap.String("request_id", id), zap.String("path", c.Request.URL.Path)))
		c.Next()
	}
}
