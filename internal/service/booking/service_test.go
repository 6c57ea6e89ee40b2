package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kirinyoku/coachseat/internal/domain"
	"github.com/kirinyoku/coachseat/internal/repository/memory"
	redisrepo "github.com/kirinyoku/coachseat/internal/repository/redis"
	"github.com/kirinyoku/coachseat/internal/service/allocation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeCache) InvalidateChart(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

type published struct {
	reference string
	seats     []int
}

type fakePublisher struct {
	msgs []published
}

func (f *fakePublisher) PublishChartChanged(_ context.Context, reference string, seats []int) error {
	f.msgs = append(f.msgs, published{reference: reference, seats: seats})
	return nil
}

type fakeLimiter struct {
	allow bool
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, id string) (redisrepo.Decision, error) {
	f.keys = append(f.keys, id)
	if f.allow {
		return redisrepo.Decision{Allowed: true, Current: 1}, nil
	}
	return redisrepo.Decision{Allowed: false, Current: 11, RetryAfter: 30 * time.Second}, nil
}

func newService(t *testing.T, deps Deps) (*Service, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	svc := New(store, allocation.New(allocation.Config{}), deps, Config{})
	require.NoError(t, svc.Initialize(context.Background()))

	return svc, store
}

func TestBookValidation(t *testing.T) {
	svc, _ := newService(t, Deps{})
	ctx := context.Background()

	tests := []struct {
		name      string
		requested int
		want      error
	}{
		{name: "zero", requested: 0, want: ErrInvalidSeatCount},
		{name: "negative", requested: -3, want: ErrInvalidSeatCount},
		{name: "above maximum", requested: 8, want: ErrTooManySeats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := svc.Book(ctx, tt.requested, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, b)
		})
	}

	counts, err := svc.Availability(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TotalSeats, counts.Available)
}

func TestBookTooManySeatsCarriesMaximum(t *testing.T) {
	svc, _ := newService(t, Deps{})

	_, err := svc.Book(context.Background(), 9, "")

	var tooMany TooManySeatsError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, 7, tooMany.Max)
	assert.Equal(t, 9, tooMany.Requested)
}

func TestBookFillsRowsInOrder(t *testing.T) {
	svc, _ := newService(t, Deps{})
	ctx := context.Background()

	first, err := svc.Book(ctx, 7, "")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, first.Seats)
	assert.Regexp(t, `^bk-`, first.Reference)
	assert.False(t, first.BookedAt.IsZero())

	second, err := svc.Book(ctx, 3, "")
	require.NoError(t, err)
	assert.Equal(t, []int{8, 9, 10}, second.Seats)
	assert.NotEqual(t, first.Reference, second.Reference)

	counts, err := svc.Availability(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ChartCounts{Available: 70, Booked: 10, Total: 80}, counts)
}

func TestBookInsufficientSeats(t *testing.T) {
	svc, store := newService(t, Deps{})
	ctx := context.Background()

	all := make([]int, 0, domain.TotalSeats)
	for n := 1; n <= domain.TotalSeats-2; n++ {
		all = append(all, n)
	}
	_, err := store.Seats().MarkBooked(ctx, all)
	require.NoError(t, err)

	_, err = svc.Book(ctx, 3, "")

	var insufficient InsufficientSeatsError
	require.ErrorAs(t, err, &insufficient)
	assert.ErrorIs(t, err, ErrInsufficientSeats)
	assert.Equal(t, 2, insufficient.Available)
	assert.Equal(t, 3, insufficient.Requested)

	b, err := svc.Book(ctx, 2, "")
	require.NoError(t, err)
	assert.Equal(t, []int{79, 80}, b.Seats)

	_, err = svc.Book(ctx, 1, "")
	assert.ErrorIs(t, err, ErrCoachFull)
}

func TestBookRunsHooksAfterCommit(t *testing.T) {
	cache := &fakeCache{}
	pub := &fakePublisher{}
	svc, _ := newService(t, Deps{Cache: cache, PubSub: pub})
	ctx := context.Background()

	// Initialize already dropped the cache once.
	require.Equal(t, 1, cache.calls)

	b, err := svc.Book(ctx, 2, "")
	require.NoError(t, err)

	assert.Equal(t, 2, cache.calls)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, b.Reference, pub.msgs[0].reference)
	assert.Equal(t, []int{1, 2}, pub.msgs[0].seats)

	_, err = svc.Book(ctx, 0, "")
	require.Error(t, err)
	assert.Equal(t, 2, cache.calls)
	assert.Len(t, pub.msgs, 1)
}

func TestBookCacheFailureDoesNotFailBooking(t *testing.T) {
	cache := &fakeCache{err: errors.New("redis down")}
	svc, _ := newService(t, Deps{Cache: cache})

	b, err := svc.Book(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, b.Seats)
}

func TestBookRateLimited(t *testing.T) {
	limiter := &fakeLimiter{allow: false}
	svc, _ := newService(t, Deps{Limiter: limiter})
	ctx := context.Background()

	_, err := svc.Book(ctx, 1, "10.0.0.1")

	var limited RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 30*time.Second, limited.RetryAfter)
	assert.Equal(t, []string{"10.0.0.1"}, limiter.keys)

	// No client key, no limit.
	_, err = svc.Book(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, limiter.keys, 1)
}

func TestBookCustomMaximum(t *testing.T) {
	store := memory.NewStore()
	svc := New(store, allocation.New(allocation.Config{}), Deps{}, Config{MaxSeatsPerBooking: 10})
	ctx := context.Background()
	require.NoError(t, svc.Initialize(ctx))

	b, err := svc.Book(ctx, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, b.Seats)
}

func TestInitializeIsIdempotent(t *testing.T) {
	svc, _ := newService(t, Deps{})
	ctx := context.Background()

	_, err := svc.Book(ctx, 4, "")
	require.NoError(t, err)

	require.NoError(t, svc.Initialize(ctx))

	n, err := svc.CountAvailable(ctx)
	require.NoError(t, err)
	assert.Equal(t, 76, n)
}
