package application

import "context"

// UnitOfWork brackets a group of repository calls in one transaction. Begin
// returns a context carrying the transaction; Commit and Rollback must be
// called with that context.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFunc is the body run inside a unit of work.
type UnitOfWorkFunc func(ctx context.Context) error

// WithUnitOfWork runs fn inside a unit of work and commits only when fn
// returns nil. An error from fn, or a panic, rolls back; the panic is
// re-raised once the rollback has run. Rollback errors are dropped in favour
// of the error that caused them.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) (err error) {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		_ = uow.Rollback(txCtx)
	}()

	if err = fn(txCtx); err != nil {
		return err
	}

	committed = true
	return uow.Commit(txCtx)
}
