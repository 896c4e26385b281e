package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dgkngk/uav-rental-app/internal/events"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// RequestID reuses the caller's X-Request-ID or assigns a new one, and
// carries it into the request context as the event correlation id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Request = c.Request.WithContext(events.WithCorrelationID(c.Request.Context(), id))
		c.Next()
	}
}
