// Package inject supplies values from the propagated request context to
// functions as keyword arguments.
//
// Go has no keyword arguments, so injectable functions take their positional
// arguments and keyword arguments explicitly:
//
//	greet := func(ctx context.Context, args []any, kwargs map[string]any) (string, error) {
//	    return fmt.Sprintf("hello %v", kwargs["user_id"]), nil
//	}
//
//	b := inject.New(store, []string{"user_id"})
//	wrapped := inject.Wrap(b, greet)
//	msg, err := wrapped(ctx, nil, nil)
//
// Precedence, lowest to highest: context values and caller keyword arguments
// (ordered by WithOverride), then positional arguments declared by WithParams.
package inject

import (
	"context"
	"maps"
	"slices"
)

// Source provides a snapshot of the current context values.
// *appctx.Store implements it.
type Source interface {
	Get(ctx context.Context) map[string]any
}

// Func is a function that accepts injected keyword arguments.
type Func[R any] func(ctx context.Context, args []any, kwargs map[string]any) (R, error)

// Result is the outcome of an asynchronous call.
type Result[R any] struct {
	Value R
	Err   error
}

// AsyncFunc is the asynchronous variant of Func. The channel receives exactly
// one Result and is then closed.
type AsyncFunc[R any] func(ctx context.Context, args []any, kwargs map[string]any) <-chan Result[R]

// Binding describes which context keys are injected and how. It is immutable
// once created and safe for concurrent use.
type Binding struct {
	source         Source
	keys           []string
	aliases        map[string]string
	override       bool
	raiseOnMissing bool
	params         []string
}

// New creates a binding that injects keys read from source.
func New(source Source, keys []string, opts ...Option) *Binding {
	b := &Binding{
		source:         source,
		keys:           slices.Clone(keys),
		raiseOnMissing: true,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Keys returns the injected keys.
func (b *Binding) Keys() []string {
	return slices.Clone(b.keys)
}

// Resolve computes the keyword arguments a wrapped function is called with.
// kwargs is not modified.
func (b *Binding) Resolve(ctx context.Context, args []any, kwargs map[string]any) (map[string]any, error) {
	snapshot := b.source.Get(ctx)

	defaults := make(map[string]any, len(b.keys))
	for _, key := range b.keys {
		v, ok := snapshot[key]
		if !ok {
			if b.raiseOnMissing {
				return nil, &MissingKeyError{Key: key, Context: snapshot}
			}
			continue
		}
		defaults[key] = v
	}

	defaults = b.applyAliases(defaults)

	var merged map[string]any
	if b.override {
		merged = make(map[string]any, len(kwargs)+len(defaults))
		maps.Copy(merged, kwargs)
		maps.Copy(merged, defaults)
	} else {
		merged = defaults
		maps.Copy(merged, kwargs)
	}

	for i := 0; i < len(args) && i < len(b.params); i++ {
		delete(merged, b.params[i])
	}

	return merged, nil
}

// applyAliases renames aliased entries. All renames apply at once; an aliased
// entry replaces an unaliased entry of the same name.
func (b *Binding) applyAliases(defaults map[string]any) map[string]any {
	if len(b.aliases) == 0 {
		return defaults
	}

	renamed := make(map[string]any, len(defaults))
	for key, v := range defaults {
		if _, aliased := b.aliases[key]; !aliased {
			renamed[key] = v
		}
	}

	for _, src := range slices.Sorted(maps.Keys(b.aliases)) {
		if v, ok := defaults[src]; ok {
			renamed[b.aliases[src]] = v
		}
	}

	return renamed
}

// Wrap returns fn with keyword arguments injected from the context at call
// time. A resolution failure is returned without calling fn.
func Wrap[R any](b *Binding, fn Func[R]) Func[R] {
	return func(ctx context.Context, args []any, kwargs map[string]any) (R, error) {
		resolved, err := b.Resolve(ctx, args, kwargs)
		if err != nil {
			var zero R
			return zero, err
		}

		return fn(ctx, args, resolved)
	}
}

// WrapAsync is Wrap for asynchronous functions. The context is read when the
// wrapper is called; a resolution failure is delivered on the channel.
func WrapAsync[R any](b *Binding, fn AsyncFunc[R]) AsyncFunc[R] {
	return func(ctx context.Context, args []any, kwargs map[string]any) <-chan Result[R] {
		resolved, err := b.Resolve(ctx, args, kwargs)
		if err != nil {
			ch := make(chan Result[R], 1)
			ch <- Result[R]{Err: err}
			close(ch)
			return ch
		}

		return fn(ctx, args, resolved)
	}
}

// Async runs fn on its own goroutine. The goroutine inherits ctx and with it
// the propagated values.
func Async[R any](fn Func[R]) AsyncFunc[R] {
	return func(ctx context.Context, args []any, kwargs map[string]any) <-chan Result[R] {
		ch := make(chan Result[R], 1)

		go func() {
			defer close(ch)

			v, err := fn(ctx, args, kwargs)
			ch <- Result[R]{Value: v, Err: err}
		}()

		return ch
	}
}
