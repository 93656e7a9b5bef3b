package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/pkg/middleware/requestid"
)

// Audit logs every successful state-changing request with the acting
// principal. Reads are not recorded.
func Audit(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Writer.Status() >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestid.Value(c)),
			zap.String("ip", c.ClientIP()),
		}
		if principal, ok := PrincipalFrom(c); ok {
			fields = append(fields, zap.String("user_id", principal.ID), zap.String("role", principal.Role.String()))
		}
		logger.Info("audit", fields...)
	}
}
