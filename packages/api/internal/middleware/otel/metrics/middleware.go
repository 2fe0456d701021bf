package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const durationMetricName = "http.server.duration"

// Middleware records request latency per route, method and status class.
func Middleware(meterProvider metric.MeterProvider, service string) (gin.HandlerFunc, error) {
	meter := meterProvider.Meter("github.com/sandbox-pool/infra/packages/api/internal/middleware/otel/metrics")

	duration, err := meter.Float64Histogram(durationMetricName,
		metric.WithDescription("Duration of HTTP requests."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	serviceAttr := attribute.String("service.name", service)

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "nonconfigured"
		}

		start := time.Now()

		c.Next()

		code := c.Writer.Status() / 100 * 100
		duration.Record(c.Request.Context(), float64(time.Since(start).Microseconds())/1000,
			metric.WithAttributes(
				serviceAttr,
				attribute.String("http.route", route),
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.status_class", strconv.Itoa(code)),
			),
		)
	}, nil
}
