package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
)

// LoggingMiddleware writes one record per request. The caller's email comes
// from the request context. 5xx responses are logged
// as errors, 4xx as warnings.
func LoggingMiddleware(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("route", c.FullPath()),
			zap.Duration("latency", time.Since(start)),
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		level := zapcore.InfoLevel
		switch {
		case status >= 500:
			level = zapcore.ErrorLevel
		case status >= 400:
			level = zapcore.WarnLevel
		}

		switch level {
		case zapcore.ErrorLevel:
			l.Error(ctx, "request", fields...)
		case zapcore.WarnLevel:
			l.Warn(ctx, "request", fields...)
		default:
			l.Info(ctx, "request", fields...)
		}
	}
}

// ExcludeRoutes runs mw for every route except the listed ones.
func ExcludeRoutes(mw gin.HandlerFunc, routes ...string) gin.HandlerFunc {
	excluded := make(map[string]struct{}, len(routes))
	for _, route := range routes {
		excluded[route] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := excluded[c.FullPath()]; ok {
			c.Next()

			return
		}

		mw(c)
	}
}

// OnlyRoute runs mw for the one route and passes every other request through.
func OnlyRoute(method, route string, mw gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != method || c.FullPath() != route {
			c.Next()

			return
		}

		mw(c)
	}
}
