package server

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

type ctxKey string

const requestIDKey ctxKey = "requestID"

// RequestID propagates X-Request-Id, generating one when the client sent none.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDKey, id))
		c.Next()
	}
}

// GetRequestID returns the request id stored by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// Logging writes one access-log line per request.
func Logging(l *log.Logger) gin.HandlerFunc {
	if l == nil {
		l = log.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		l.Printf("method=%s path=%s status=%d bytes=%d dur_ms=%d request_id=%s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			max(c.Writer.Size(), 0),
			time.Since(start).Milliseconds(),
			GetRequestID(c.Request.Context()),
		)
	}
}
