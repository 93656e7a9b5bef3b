package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/pkg/middleware/requestid"
)

// InitSentry configures the global Sentry hub. An empty DSN disables reporting.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr reports err when non-nil.
func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// GinMiddleware reports errors attached to requests that ended with a 5xx status.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 500 || len(c.Errors) == 0 {
			return
		}
		hub := sentry.CurrentHub().Clone()
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("method", c.Request.Method)
			scope.SetTag("route", c.FullPath())
			if reqID := requestid.Value(c); reqID != "" {
				scope.SetTag("request_id", reqID)
			}
			for _, ginErr := range c.Errors {
				hub.CaptureException(ginErr.Err)
			}
		})
	}
}
