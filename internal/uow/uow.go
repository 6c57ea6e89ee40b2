package uow

import (
	"context"

	"github.com/kirinyoku/coachseat/internal/repository"
)

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// UoW represents a unit of work over whichever seat store is configured.
type UoW struct {
	store repository.Store
}

func NewUoW(store repository.Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn inside a store transaction. After a successful commit it runs
// the hooks fn registered, in registration order. Hooks are dropped when
// the transaction fails.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, seats repository.SeatRepository, after func(AfterCommit)) error,
) error {
	var hooks []AfterCommit

	err := u.store.RunTx(ctx, func(ctx context.Context, seats repository.SeatRepository) error {
		hooks = hooks[:0]
		return fn(ctx, seats, func(h AfterCommit) {
			hooks = append(hooks, h)
		})
	})
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}
