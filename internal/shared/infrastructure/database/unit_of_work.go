package database

import "context"

// GenericUnitOfWork implements application.UnitOfWork on a Connection.
// Nested units join the outermost transaction; only the unit that began it
// commits or rolls back.
type GenericUnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work over conn.
func NewUnitOfWork(conn Connection) *GenericUnitOfWork {
	return &GenericUnitOfWork{conn: conn}
}

func (u *GenericUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if state, ok := txFromContext(ctx); ok {
		return WithTx(ctx, state.tx, false), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return WithTx(ctx, tx, true), nil
}

func (u *GenericUnitOfWork) Commit(ctx context.Context) error {
	return u.finish(ctx, Transaction.Commit)
}

func (u *GenericUnitOfWork) Rollback(ctx context.Context) error {
	return u.finish(ctx, Transaction.Rollback)
}

func (u *GenericUnitOfWork) finish(ctx context.Context, end func(Transaction, context.Context) error) error {
	state, ok := txFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !state.owned {
		return nil
	}
	return end(state.tx, ctx)
}
