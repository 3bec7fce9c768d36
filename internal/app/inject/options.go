package inject

import "maps"

// Option configures a Binding.
type Option func(*Binding)

// WithAliases renames injected keys: each entry maps a context key to the
// parameter name it is passed as. Aliases for keys that are not injected, or
// not present in the context, have no effect.
func WithAliases(aliases map[string]string) Option {
	return func(b *Binding) {
		b.aliases = maps.Clone(aliases)
	}
}

// WithOverride controls conflict resolution with caller keyword arguments.
// When true the context value wins; by default the caller wins.
func WithOverride(override bool) Option {
	return func(b *Binding) {
		b.override = override
	}
}

// WithRaiseOnMissing controls whether an absent key fails the call (the
// default) or is skipped.
func WithRaiseOnMissing(raise bool) Option {
	return func(b *Binding) {
		b.raiseOnMissing = raise
	}
}

// WithParams declares the wrapped function's positional parameter names in
// order. Positional arguments bound to these names always win.
func WithParams(names ...string) Option {
	return func(b *Binding) {
		b.params = append([]string(nil), names...)
	}
}
