// Package middleware provides HTTP middleware for the Gin server.
package middleware

import (
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/go-context-propagation/internal/adapters/http/dto"
	appctx "github.com/jsamuelsen/go-context-propagation/internal/app/context"
	"github.com/jsamuelsen/go-context-propagation/internal/platform/logging"
)

// DefaultHeaderPrefix selects the headers carried into the request context.
const DefaultHeaderPrefix = "X-App-"

// HeaderValues extracts the propagated values from h. A header whose name
// starts with prefix (case-insensitively) becomes one entry: the prefix is
// stripped, the rest lower-cased, hyphens turned into underscores
// ("X-App-User-Id: 42" -> "user_id": "42"). The last value of a repeated
// header wins. A header named exactly prefix is ignored.
func HeaderValues(h http.Header, prefix string) appctx.Values {
	values := appctx.Values{}

	for _, name := range slices.Sorted(maps.Keys(h)) {
		if len(name) <= len(prefix) || !strings.EqualFold(name[:len(prefix)], prefix) {
			continue
		}

		vals := h[name]
		if len(vals) == 0 {
			continue
		}

		key := strings.ReplaceAll(strings.ToLower(name[len(prefix):]), "-", "_")
		values[key] = vals[len(vals)-1]
	}

	return values
}

// HeaderContext returns middleware that activates the prefixed request headers
// on mgr for the rest of the chain. Every request gets exactly one activation,
// even with no matching headers, and it is exited after the chain returns or panics.
func HeaderContext(mgr appctx.Contextualizable, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		values := HeaderValues(c.Request.Header, prefix)

		ctx, exit, err := mgr.Contextualize(c.Request.Context(), values)
		if err != nil {
			logging.FromContext(c.Request.Context()).Error("entering request context failed",
				slog.Any("error", err),
				slog.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, internalError(c.Request))
			return
		}
		defer exit()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// HeaderContextHandler is HeaderContext for plain net/http handlers.
func HeaderContextHandler(mgr appctx.Contextualizable, prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, exit, err := mgr.Contextualize(r.Context(), HeaderValues(r.Header, prefix))
			if err != nil {
				logging.FromContext(r.Context()).Error("entering request context failed",
					slog.Any("error", err),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(internalError(r))
				return
			}
			defer exit()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func internalError(r *http.Request) *dto.ErrorResponse {
	return dto.NewErrorResponse(dto.ErrorCodeInternal, "an internal error occurred").
		WithTraceID(traceID(r.Context()))
}
