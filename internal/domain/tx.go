package domain

import "context"

// Tx is the part of a database transaction the services drive. The
// concrete value handed to repository *Tx methods is a pgx.Tx; it is
// passed as interface{} so this package stays driver-free.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager begins database transactions for multi-step writes.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}
