package database

import "context"

type txKey struct{}

// txState is the transaction carried by a context. owned is false for
// units of work that joined a transaction begun further up the call chain.
type txState struct {
	tx    Transaction
	owned bool
}

// WithTx returns a context carrying tx.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, txState{tx: tx, owned: owned})
}

func txFromContext(ctx context.Context) (txState, bool) {
	state, ok := ctx.Value(txKey{}).(txState)
	return state, ok && state.tx != nil
}

// InTransaction reports whether ctx carries a transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := txFromContext(ctx)
	return ok
}

// ExecutorFromContext returns the transaction carried by ctx, or conn when
// there is none.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if state, ok := txFromContext(ctx); ok {
		return state.tx
	}
	return conn
}
