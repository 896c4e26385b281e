package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

// ErrorLogger logs every request and recovers from panics.
func ErrorLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				err := fmt.Errorf("%v", recovered)
				log.Error("panic recovered",
					append(requestFields(c, start),
						zap.Error(err),
						zap.ByteString("stack", debug.Stack()),
					)...,
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL_ERROR",
						"message": "Internal Server Error",
					},
				})
				return
			}

			fields := requestFields(c, start)
			for _, err := range c.Errors {
				fields = append(fields, zap.NamedError("error", err.Err))
			}

			switch {
			case c.Writer.Status() >= http.StatusInternalServerError:
				log.Error("request failed", fields...)
			case len(c.Errors) > 0:
				log.Warn("request error", fields...)
			default:
				log.Info("request", fields...)
			}
		}()

		c.Next()
	}
}

func requestFields(c *gin.Context, start time.Time) []zap.Field {
	return []zap.Field{
		zap.Int("status", c.Writer.Status()),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("query", c.Request.URL.RawQuery),
		zap.String("client_ip", c.ClientIP()),
		zap.Int64("user_id", c.GetInt64("user_id")),
		zap.String("role", c.GetString("role")),
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Duration("latency", time.Since(start)),
	}
}
