package repository

import "context"

// UnitOfWork runs fn atomically. Repositories called with the ctx passed to
// fn take part in the same unit of work; nested calls join the outer one.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
