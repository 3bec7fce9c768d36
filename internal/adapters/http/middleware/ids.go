package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appctx "github.com/jsamuelsen/go-context-propagation/internal/app/context"
	"github.com/jsamuelsen/go-context-propagation/internal/platform/logging"
)

const (
	// HeaderRequestID is the header name for request ID.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID is the header name for correlation ID.
	HeaderCorrelationID = "X-Correlation-ID"

	// KeyRequestID is the propagated context key (and gin key) of the request ID.
	KeyRequestID = "request_id"

	// KeyCorrelationID is the propagated context key (and gin key) of the correlation ID.
	KeyCorrelationID = "correlation_id"

	// maxIDLength caps caller-supplied IDs; longer ones are replaced.
	maxIDLength = 128
)

// ValueLookup reads one propagated value. *appctx.Store satisfies it.
type ValueLookup interface {
	Lookup(ctx context.Context, key string) (any, bool)
}

// RequestID returns middleware that resolves the request ID and activates it
// on mgr under "request_id", so logs and outbound calls carry it. The ID is:
//   - the X-Request-ID header, if present and well-formed
//   - else the value already propagated under request_id (X-App-Request-Id)
//   - else a new UUID v4
//
// It is echoed in the X-Request-ID response header.
func RequestID(values ValueLookup, mgr appctx.Contextualizable) gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName: HeaderRequestID,
		key:        KeyRequestID,
		values:     values,
		mgr:        mgr,
	})
}

// CorrelationID is RequestID for X-Correlation-ID / "correlation_id".
// A correlation ID is meant to be shared by every hop of one business transaction.
func CorrelationID(values ValueLookup, mgr appctx.Contextualizable) gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName: HeaderCorrelationID,
		key:        KeyCorrelationID,
		values:     values,
		mgr:        mgr,
	})
}

// GetRequestID returns the request ID stored by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(KeyRequestID)
}

// GetCorrelationID returns the correlation ID stored by CorrelationID, or "".
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(KeyCorrelationID)
}

type idMiddlewareConfig struct {
	headerName string
	key        string
	values     ValueLookup
	mgr        appctx.Contextualizable
}

func createIDMiddleware(cfg idMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := resolveID(ctx, c.GetHeader(cfg.headerName), cfg)

		c.Set(cfg.key, id)
		c.Header(cfg.headerName, id)

		ctx, exit, err := cfg.mgr.Contextualize(ctx, appctx.Values{cfg.key: id})
		if err != nil {
			logging.FromContext(c.Request.Context()).Error("activating id failed",
				slog.String("key", cfg.key),
				slog.Any("error", err),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, internalError(c.Request))
			return
		}
		defer exit()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func resolveID(ctx context.Context, header string, cfg idMiddlewareConfig) string {
	if validID(header) {
		return header
	}

	if cfg.values != nil {
		if v, ok := cfg.values.Lookup(ctx, cfg.key); ok {
			if s := fmt.Sprint(v); validID(s) {
				return s
			}
		}
	}

	return uuid.NewString()
}

// validID accepts non-empty printable ASCII up to maxIDLength.
func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}

	for i := range len(id) {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}

	return true
}
