// Package context propagates request-scoped values (tenant, user, trace ids)
// through a flow of execution.
//
// A flow is a chain of derived context.Context values. Goroutines that are
// handed a context inherit its values; sibling flows never see each other's.
//
// # Scoped activation
//
// Contextualize installs a copy of the current values merged with new ones
// and returns the derived context together with an ExitFunc that restores
// the previous values:
//
//	store := appctx.NewStore(appctx.DefaultStoreName)
//
//	ctx, exit, err := store.Contextualize(ctx, appctx.Values{"user_id": "42"})
//	if err != nil {
//	    return err
//	}
//	defer exit()
//
//	store.Get(ctx) // {"user_id": "42"}
//
// Run is the block form of the same thing and always exits, including when
// fn returns an error or panics.
//
// # Aggregation
//
// Several Contextualizable components (a Store, the logging context) can be
// activated as one with an Aggregator:
//
//	mgr := appctx.NewAggregator(store, logging.Contextualizer{})
//	err := appctx.Run(ctx, mgr, values, handle)
package context
