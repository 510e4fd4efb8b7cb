package middleware

import (
	"io"
	"net/http"
	"time"

	"bukinn/internal/logger"
	"bukinn/internal/microservices/http-api/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader   = "X-Request-ID"
	ContextRequestID  = "requestID"
	maxRequestIDBytes = 128
)

// RequestID propagates the caller's X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDBytes {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logger writes one structured line per request once it completes.
func Logger(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.LogHTTPRequest(l,
			c.Request.Method,
			path,
			c.ClientIP(),
			UserID(c),
			c.GetString(ContextRequestID),
			c.Writer.Status(),
			time.Since(start),
			c.Errors.ByType(gin.ErrorTypePrivate).String(),
		)
	}
}

// Recovery turns a panic into a 500 envelope and logs it with a stack.
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		l.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(ContextRequestID)),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Envelope{
			Success: false,
			Message: "Internal Server Error",
		})
	})
}
