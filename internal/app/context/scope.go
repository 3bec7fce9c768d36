package context

import "context"

// Values is a snapshot of propagated key-value pairs.
type Values = map[string]any

// ExitFunc leaves a scope and restores the state that was active before the
// scope was entered. Only the first call has an effect.
type ExitFunc = func()

// Contextualizable is implemented by components that can enter a scope
// carrying the given values.
//
// Implementations return the derived context to use inside the scope and an
// ExitFunc that must be called exactly when the scope ends. When err is
// non-nil the scope was not entered and the other results are nil.
type Contextualizable interface {
	Contextualize(ctx context.Context, values Values) (context.Context, ExitFunc, error)
}

// ContextualizableFunc adapts an ordinary function to Contextualizable.
type ContextualizableFunc func(ctx context.Context, values Values) (context.Context, ExitFunc, error)

// Contextualize calls f(ctx, values).
func (f ContextualizableFunc) Contextualize(ctx context.Context, values Values) (context.Context, ExitFunc, error) {
	return f(ctx, values)
}

// Run enters c with values, invokes fn with the scoped context and exits the
// scope afterwards, whether fn returns normally, returns an error or panics.
func Run(ctx context.Context, c Contextualizable, values Values, fn func(ctx context.Context) error) error {
	scoped, exit, err := c.Contextualize(ctx, values)
	if err != nil {
		return err
	}
	defer exit()

	return fn(scoped)
}
