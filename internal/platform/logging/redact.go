package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

var (
	// jwtPattern matches three base64url segments separated by dots.
	jwtPattern = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`)

	// authSchemePattern matches Authorization header values.
	authSchemePattern = regexp.MustCompile(`(?i)^(bearer|basic)\s+.+$`)
)

// sensitiveFields are attribute names whose values are never logged.
// Propagated context keys use snake_case (X-App-Auth-Token becomes
// auth_token), so both spellings are listed.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"apiKey", "apikey", "api_key",
	"accessToken", "access_token",
	"refreshToken", "refresh_token",
	"auth_token", "session_token",
	"credential", "credentials",
	"authorization", "auth", "bearer",
	"cookie", "session",
	"privateKey", "private_key",
	"secretKey", "secret_key",
}

// sensitivePrefixes redact any attribute whose name starts with them.
var sensitivePrefixes = []string{"secret", "private"}

// DefaultRedactOptions returns the masq options used for every logger.
// Extend them with NewReplaceAttr(extra...).
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(sensitiveFields)+len(sensitivePrefixes)+2)

	for _, name := range sensitiveFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	for _, prefix := range sensitivePrefixes {
		opts = append(opts, masq.WithFieldPrefix(prefix))
	}

	return append(opts,
		masq.WithRegex(jwtPattern),
		masq.WithRegex(authSchemePattern),
	)
}

// NewReplaceAttr creates a slog ReplaceAttr function that redacts sensitive
// data using DefaultRedactOptions plus opts.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}
