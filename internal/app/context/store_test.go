package context

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"uses given name", "tenant_context", "tenant_context"},
		{"defaults empty name", "", DefaultStoreName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewStore(tt.input).Name())
		})
	}
}

func TestStore_Get_Empty(t *testing.T) {
	store := NewStore("")

	values := store.Get(context.Background())

	assert.NotNil(t, values)
	assert.Empty(t, values)
}

func TestStore_Get_NilContext(t *testing.T) {
	store := NewStore("")

	assert.Empty(t, store.Get(nil)) //nolint:staticcheck // Testing nil guard intentionally
}

func TestStore_Get_ReturnsCopy(t *testing.T) {
	store := NewStore("")
	ctx, exit, err := store.Contextualize(context.Background(), Values{"user_id": "42"})
	require.NoError(t, err)
	defer exit()

	snapshot := store.Get(ctx)
	snapshot["user_id"] = "mutated"
	snapshot["extra"] = true

	assert.Equal(t, Values{"user_id": "42"}, store.Get(ctx))
}

func TestStore_Lookup(t *testing.T) {
	store := NewStore("")
	ctx, exit, err := store.Contextualize(context.Background(), Values{"org": "acme"})
	require.NoError(t, err)
	defer exit()

	v, ok := store.Lookup(ctx, "org")
	assert.True(t, ok)
	assert.Equal(t, "acme", v)

	_, ok = store.Lookup(ctx, "missing")
	assert.False(t, ok)

	_, ok = store.Lookup(context.Background(), "org")
	assert.False(t, ok)
}

func TestStore_Contextualize_Nested(t *testing.T) {
	store := NewStore("")
	root := context.Background()

	outer, exitOuter, err := store.Contextualize(root, Values{"user_id": "1", "org": "acme"})
	require.NoError(t, err)
	assert.Equal(t, Values{"user_id": "1", "org": "acme"}, store.Get(outer))

	inner, exitInner, err := store.Contextualize(outer, Values{"user_id": "2", "trace_id": "t-1"})
	require.NoError(t, err)
	assert.Equal(t, Values{"user_id": "2", "org": "acme", "trace_id": "t-1"}, store.Get(inner))

	// The enclosing scope is untouched by the inner one.
	assert.Equal(t, Values{"user_id": "1", "org": "acme"}, store.Get(outer))

	exitInner()
	assert.Equal(t, Values{"user_id": "1", "org": "acme"}, store.Get(inner))

	exitOuter()
	assert.Empty(t, store.Get(inner))
	assert.Empty(t, store.Get(outer))
	assert.Empty(t, store.Get(root))
}

func TestStore_Contextualize_NoValues(t *testing.T) {
	store := NewStore("")
	outer, exitOuter, err := store.Contextualize(context.Background(), Values{"user_id": "1"})
	require.NoError(t, err)
	defer exitOuter()

	inner, exitInner, err := store.Contextualize(outer, nil)
	require.NoError(t, err)

	// A no-op update still installs its own frame.
	assert.Equal(t, Values{"user_id": "1"}, store.Get(inner))

	exitInner()
	assert.Equal(t, Values{"user_id": "1"}, store.Get(inner))
}

func TestStore_Contextualize_DoesNotKeepCallerMap(t *testing.T) {
	store := NewStore("")
	input := Values{"user_id": "42"}

	ctx, exit, err := store.Contextualize(context.Background(), input)
	require.NoError(t, err)
	defer exit()

	input["user_id"] = "99"

	assert.Equal(t, Values{"user_id": "42"}, store.Get(ctx))
}

func TestStore_Contextualize_NilContext(t *testing.T) {
	store := NewStore("")

	ctx, exit, err := store.Contextualize(nil, Values{"k": "v"}) //nolint:staticcheck // Testing nil guard intentionally
	require.NoError(t, err)
	defer exit()

	assert.Equal(t, Values{"k": "v"}, store.Get(ctx))
}

func TestStore_Exit_Idempotent(t *testing.T) {
	store := NewStore("")
	outer, exitOuter, err := store.Contextualize(context.Background(), Values{"a": 1})
	require.NoError(t, err)
	defer exitOuter()

	inner, exitInner, err := store.Contextualize(outer, Values{"a": 2})
	require.NoError(t, err)

	exitInner()
	exitInner()

	assert.Equal(t, Values{"a": 1}, store.Get(inner))
	assert.Equal(t, Values{"a": 1}, store.Get(outer))
}

func TestStore_Exit_DerivedContextsRevert(t *testing.T) {
	store := NewStore("")
	scoped, exit, err := store.Contextualize(context.Background(), Values{"user_id": "42"})
	require.NoError(t, err)

	derived, cancel := context.WithCancel(scoped)
	defer cancel()

	assert.Equal(t, Values{"user_id": "42"}, store.Get(derived))

	exit()

	assert.Empty(t, store.Get(derived))
}

func TestStore_SeparateStoresIndependent(t *testing.T) {
	tenants := NewStore("tenants")
	users := NewStore("users")

	ctx, exitTenants, err := tenants.Contextualize(context.Background(), Values{"id": "acme"})
	require.NoError(t, err)
	defer exitTenants()

	ctx, exitUsers, err := users.Contextualize(ctx, Values{"id": "42"})
	require.NoError(t, err)
	defer exitUsers()

	assert.Equal(t, Values{"id": "acme"}, tenants.Get(ctx))
	assert.Equal(t, Values{"id": "42"}, users.Get(ctx))
}

func TestStore_ConcurrentFlowsIsolated(t *testing.T) {
	store := NewStore("")
	parent, exit, err := store.Contextualize(context.Background(), Values{"org": "acme"})
	require.NoError(t, err)
	defer exit()

	const flows = 50

	g, ctx := errgroup.WithContext(parent)
	for i := range flows {
		g.Go(func() error {
			return Run(ctx, store, Values{"x": i}, func(ctx context.Context) error {
				for range 100 {
					got := store.Get(ctx)
					if got["x"] != i {
						return fmt.Errorf("flow %d observed x=%v", i, got["x"])
					}
					if got["org"] != "acme" {
						return fmt.Errorf("flow %d lost inherited org: %v", i, got)
					}
				}
				return nil
			})
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, Values{"org": "acme"}, store.Get(parent))
}

func TestStore_TwoFlowsSameKey(t *testing.T) {
	store := NewStore("")
	ready := make(chan struct{})
	observed := make([]any, 2)

	var g errgroup.Group
	for i, x := range []int{1, 2} {
		g.Go(func() error {
			return Run(context.Background(), store, Values{"x": x}, func(ctx context.Context) error {
				<-ready
				observed[i], _ = store.Lookup(ctx, "x")
				return nil
			})
		})
	}

	close(ready)
	require.NoError(t, g.Wait())

	assert.Equal(t, []any{1, 2}, observed)
}

func TestRun(t *testing.T) {
	store := NewStore("")
	errBoom := errors.New("boom")

	t.Run("exits after success", func(t *testing.T) {
		var scoped context.Context

		err := Run(context.Background(), store, Values{"k": "v"}, func(ctx context.Context) error {
			scoped = ctx
			assert.Equal(t, Values{"k": "v"}, store.Get(ctx))
			return nil
		})

		require.NoError(t, err)
		assert.Empty(t, store.Get(scoped))
	})

	t.Run("exits and returns error", func(t *testing.T) {
		var scoped context.Context

		err := Run(context.Background(), store, Values{"k": "v"}, func(ctx context.Context) error {
			scoped = ctx
			return errBoom
		})

		require.ErrorIs(t, err, errBoom)
		assert.Empty(t, store.Get(scoped))
	})

	t.Run("exits on panic", func(t *testing.T) {
		var scoped context.Context

		assert.PanicsWithValue(t, "boom", func() {
			_ = Run(context.Background(), store, Values{"k": "v"}, func(ctx context.Context) error {
				scoped = ctx
				panic("boom")
			})
		})

		assert.Empty(t, store.Get(scoped))
	})

	t.Run("entry failure skips fn", func(t *testing.T) {
		failing := ContextualizableFunc(func(context.Context, Values) (context.Context, ExitFunc, error) {
			return nil, nil, errBoom
		})

		called := false
		err := Run(context.Background(), failing, nil, func(context.Context) error {
			called = true
			return nil
		})

		require.ErrorIs(t, err, errBoom)
		assert.False(t, called)
	})
}
