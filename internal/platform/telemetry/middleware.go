package telemetry

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/go-context-propagation/internal/platform/logging"
)

const instrumentationName = "github.com/jsamuelsen/go-context-propagation/telemetry"

// HeaderTraceID is the response header carrying the trace ID.
const HeaderTraceID = "X-Trace-ID"

// ValueSource reports the values propagated into a request.
// *appctx.Store satisfies it.
type ValueSource interface {
	Get(ctx context.Context) map[string]any
}

// Metrics holds HTTP server metrics.
type Metrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
	propagatedKeys  metric.Int64Histogram
}

// NewMetrics creates HTTP server metrics on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	propagatedKeys, err := meter.Int64Histogram(
		"app.context.propagated_keys",
		metric.WithDescription("Number of propagated context values per request"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		activeRequests:  activeRequests,
		propagatedKeys:  propagatedKeys,
	}, nil
}

// Middleware returns the tracing and metrics handlers, in order. Tracing
// comes from otelgin; the second handler tags the context logger with the
// trace ID, echoes it in X-Trace-ID and records metrics. values may be nil.
func Middleware(serviceName string, values ValueSource) gin.HandlersChain {
	return gin.HandlersChain{
		otelgin.Middleware(serviceName),
		metricsMiddleware(values),
	}
}

func metricsMiddleware(values ValueSource) gin.HandlerFunc {
	metrics, err := NewMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()

		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			id := sc.TraceID().String()
			c.Header(HeaderTraceID, id)
			c.Request = c.Request.WithContext(logging.WithTraceID(ctx, id))
		}

		route := attribute.String("http.route", c.FullPath())
		method := attribute.String("http.method", c.Request.Method)

		if metrics != nil {
			metrics.activeRequests.Add(ctx, 1, metric.WithAttributes(method, route))
			defer metrics.activeRequests.Add(ctx, -1, metric.WithAttributes(method, route))

			if values != nil {
				metrics.propagatedKeys.Record(ctx, int64(len(values.Get(ctx))), metric.WithAttributes(route))
			}
		}

		c.Next()

		if metrics != nil {
			attrs := metric.WithAttributes(method, route, attribute.Int("http.status_code", c.Writer.Status()))
			metrics.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
			metrics.requestTotal.Add(ctx, 1, attrs)
		}
	}
}
