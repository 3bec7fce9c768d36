package context

import (
	"context"
	"maps"
	"sync/atomic"
)

// DefaultStoreName is the name of the store created by the service.
const DefaultStoreName = "request_context"

// storeKey keys a Store's frames in a context.Context. Each Store has its own
// key, so two stores never read each other's values.
type storeKey struct {
	store *Store
}

// frame is one activation. Its values are never mutated after creation.
type frame struct {
	values Values
	parent *frame
	exited atomic.Bool
}

// Store holds the propagated values of every flow.
// A Store is safe for concurrent use; it keeps no shared mutable state.
type Store struct {
	name string
}

// NewStore creates an empty store.
func NewStore(name string) *Store {
	if name == "" {
		name = DefaultStoreName
	}

	return &Store{name: name}
}

// Name returns the store name.
func (s *Store) Name() string {
	return s.name
}

// Get returns a copy of the values active in ctx.
// The result is never nil and may be modified freely by the caller.
func (s *Store) Get(ctx context.Context) Values {
	f := s.active(ctx)
	if f == nil {
		return Values{}
	}

	return maps.Clone(f.values)
}

// Lookup returns the value stored under key in ctx.
func (s *Store) Lookup(ctx context.Context, key string) (any, bool) {
	f := s.active(ctx)
	if f == nil {
		return nil, false
	}

	v, ok := f.values[key]
	return v, ok
}

// Contextualize derives a context whose values are the current values with
// values merged in; new keys override existing ones.
//
// Calling the returned ExitFunc restores the previous values: reads through
// the derived context (and anything derived from it) resolve to what was
// active before entry. A call with no values still installs a fresh copy.
// The returned error is always nil.
func (s *Store) Contextualize(ctx context.Context, values Values) (context.Context, ExitFunc, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	parent := s.active(ctx)

	var next Values
	if parent != nil {
		next = maps.Clone(parent.values)
	} else {
		next = make(Values, len(values))
	}
	maps.Copy(next, values)

	f := &frame{values: next, parent: parent}

	return context.WithValue(ctx, storeKey{store: s}, f), f.exit, nil
}

// active returns the innermost frame of ctx that has not been exited.
func (s *Store) active(ctx context.Context) *frame {
	if ctx == nil {
		return nil
	}

	f, _ := ctx.Value(storeKey{store: s}).(*frame)
	for f != nil && f.exited.Load() {
		f = f.parent
	}

	return f
}

func (f *frame) exit() {
	f.exited.Store(true)
}
