package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/go-context-propagation/internal/platform/logging"
)

// Recovery returns middleware that recovers from panics.
// On panic it logs the error with the stack trace at ERROR level and responds
// 500 with the standard error envelope (including the trace ID).
//
// Register it first so scoped activations further down the chain unwind
// before the response is written.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			if r == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity, as net/http does
				panic(r)
			}

			errResp := internalError(c.Request)

			logging.FromContext(c.Request.Context()).Error("panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
				slog.String("trace_id", errResp.TraceID),
			)

			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, errResp)
			} else {
				c.Abort()
			}
		}()

		c.Next()
	}
}

// traceID returns the OpenTelemetry trace ID of ctx, or "".
func traceID(ctx context.Context) string {
	if span := trace.SpanFromContext(ctx); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return ""
}
