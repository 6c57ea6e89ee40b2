// Package repotest holds the behaviour every seat store backend must share.
package repotest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kirinyoku/coachseat/internal/domain"
	"github.com/kirinyoku/coachseat/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewStoreFunc returns an empty store; the caller owns cleanup.
type NewStoreFunc func(t *testing.T) repository.Store

func Run(t *testing.T, newStore NewStoreFunc) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store repository.Store)
	}{
		{name: "initialize creates every seat available", fn: testInitialize},
		{name: "initialize keeps existing bookings", fn: testInitializeIdempotent},
		{name: "available seats in range", fn: testAvailableInRange},
		{name: "last row is bounded", fn: testLastRowBounds},
		{name: "mark booked ignores unknown seats", fn: testMarkBookedUnknown},
		{name: "mark booked is idempotent", fn: testMarkBookedTwice},
		{name: "transaction commits", fn: testTxCommit},
		{name: "transaction rolls back", fn: testTxRollback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func initialized(t *testing.T, store repository.Store) repository.SeatRepository {
	t.Helper()

	seats := store.Seats()
	_, err := seats.Initialize(context.Background())
	require.NoError(t, err)

	return seats
}

func testInitialize(t *testing.T, store repository.Store) {
	ctx := context.Background()
	seats := store.Seats()

	created, err := seats.Initialize(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, domain.TotalSeats, created)

	n, err := seats.CountAvailable(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TotalSeats, n)

	all, err := seats.ListSeats(ctx)
	require.NoError(t, err)
	require.Len(t, all, domain.TotalSeats)
	for i, s := range all {
		assert.Equal(t, i+1, s.Number)
		assert.Equal(t, domain.SeatAvailable, s.Status)
	}
}

func testInitializeIdempotent(t *testing.T, store repository.Store) {
	ctx := context.Background()
	seats := initialized(t, store)

	_, err := seats.MarkBooked(ctx, []int{1, 2, 3})
	require.NoError(t, err)

	for range 2 {
		created, err := seats.Initialize(ctx)
		require.NoError(t, err)
		assert.Zero(t, created)
	}

	n, err := seats.CountAvailable(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TotalSeats-3, n)
}

func testAvailableInRange(t *testing.T, store repository.Store) {
	ctx := context.Background()
	seats := initialized(t, store)

	_, err := seats.MarkBooked(ctx, []int{9, 11})
	require.NoError(t, err)

	got, err := seats.AvailableSeatsInRange(ctx, 8, 14)
	require.NoError(t, err)
	if diff := cmp.Diff([]int{8, 10, 12, 13, 14}, got); diff != "" {
		t.Errorf("AvailableSeatsInRange mismatch (-want +got):\n%s", diff)
	}

	all, err := seats.AllAvailableSeats(ctx)
	require.NoError(t, err)
	assert.Len(t, all, domain.TotalSeats-2)
	assert.IsIncreasing(t, all)
	assert.NotContains(t, all, 9)
	assert.NotContains(t, all, 11)
}

func testLastRowBounds(t *testing.T, store repository.Store) {
	ctx := context.Background()
	seats := initialized(t, store)

	low, high, ok := domain.RowRange(domain.RowCount)
	require.True(t, ok)

	got, err := seats.AvailableSeatsInRange(ctx, low, high)
	require.NoError(t, err)
	assert.Equal(t, []int{78, 79, 80}, got)
}

func testMarkBookedUnknown(t *testing.T, store repository.Store) {
	ctx := context.Background()
	seats := initialized(t, store)

	affected, err := seats.MarkBooked(ctx, []int{0, 5, 81, 500})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	n, err := seats.CountAvailable(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TotalSeats-1, n)
}

func testMarkBookedTwice(t *testing.T, store repository.Store) {
	ctx := context.Background()
	seats := initialized(t, store)

	for range 2 {
		_, err := seats.MarkBooked(ctx, []int{40, 41, 40})
		require.NoError(t, err)
	}

	n, err := seats.CountAvailable(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TotalSeats-2, n)

	affected, err := seats.MarkBooked(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func testTxCommit(t *testing.T, store repository.Store) {
	ctx := context.Background()
	initialized(t, store)

	err := store.RunTx(ctx, func(ctx context.Context, seats repository.SeatRepository) error {
		free, err := seats.AvailableSeatsInRange(ctx, 1, 7)
		if err != nil {
			return err
		}
		_, err = seats.MarkBooked(ctx, free)
		return err
	})
	require.NoError(t, err)

	got, err := store.Seats().AvailableSeatsInRange(ctx, 1, 7)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testTxRollback(t *testing.T, store repository.Store) {
	ctx := context.Background()
	initialized(t, store)

	boom := errors.New("boom")
	err := store.RunTx(ctx, func(ctx context.Context, seats repository.SeatRepository) error {
		if _, err := seats.MarkBooked(ctx, []int{1, 2, 3}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := store.Seats().CountAvailable(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TotalSeats, n)
}
