package clients

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	appctx "github.com/jsamuelsen/go-context-propagation/internal/app/context"
)

// RequestHook inspects or mutates an outgoing request before it is sent.
// The request's context is the caller's flow.
type RequestHook func(req *http.Request)

// ValueSource provides the propagated values of a flow. *appctx.Store satisfies it.
type ValueSource interface {
	Get(ctx context.Context) appctx.Values
}

// HeaderName returns the outbound header carrying key: prefix + key, with
// underscores as hyphens ("X-App-" + "user_id" -> "X-App-user-id", sent as X-App-User-Id).
func HeaderName(prefix, key string) string {
	return prefix + strings.ReplaceAll(key, "_", "-")
}

// HeaderHook returns a hook that copies every value of src into the request
// headers. Headers already present on the request are left untouched.
// Values are formatted with fmt.Sprint; values containing line breaks are skipped.
func HeaderHook(src ValueSource, prefix string) RequestHook {
	return func(req *http.Request) {
		for key, value := range src.Get(req.Context()) {
			name := HeaderName(prefix, key)
			if len(req.Header.Values(name)) > 0 {
				continue
			}

			v := fmt.Sprint(value)
			if strings.ContainsAny(v, "\r\n") {
				continue
			}

			req.Header.Set(name, v)
		}
	}
}

// InjectHeaders installs a HeaderHook on c. Installing twice adds a second hook;
// the second finds the headers already set and changes nothing.
func InjectHeaders(c *Client, src ValueSource, prefix string) {
	c.AddRequestHook(HeaderHook(src, prefix))
}

// NewTransport wraps base so every request passes through hooks before it is
// sent, for plain *http.Client users. The request is cloned first; the caller's
// request is never modified. A nil base means http.DefaultTransport.
func NewTransport(base http.RoundTripper, hooks ...RequestHook) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	return &hookTransport{base: base, hooks: hooks}
}

type hookTransport struct {
	base  http.RoundTripper
	hooks []RequestHook
}

func (t *hookTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.hooks) == 0 {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	for _, h := range t.hooks {
		h(clone)
	}

	return t.base.RoundTrip(clone)
}
