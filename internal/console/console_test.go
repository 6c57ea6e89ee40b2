package console

import (
	"context"
	"strings"
	"testing"

	"github.com/kirinyoku/coachseat/internal/domain"
	"github.com/kirinyoku/coachseat/internal/repository/memory"
	"github.com/kirinyoku/coachseat/internal/service/allocation"
	"github.com/kirinyoku/coachseat/internal/service/booking"
	"github.com/kirinyoku/coachseat/internal/service/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, store *memory.Store, input string) string {
	t.Helper()

	ctx := context.Background()
	bk := booking.New(store, allocation.New(allocation.Config{}), booking.Deps{}, booking.Config{})
	require.NoError(t, bk.Initialize(ctx))

	var out strings.Builder
	c := New(bk, query.New(store, nil, query.Config{}), 0, strings.NewReader(input), &out)
	require.NoError(t, c.Run(ctx))

	return out.String()
}

func TestSingleBooking(t *testing.T) {
	out := run(t, memory.NewStore(), "3\nno\n")

	assert.True(t, strings.HasPrefix(out,
		"Available seats: 80\n"+
			"Enter the number of seats to book (up to 7 seats): "+
			"Seats booked: [1, 2, 3]\n"+
			"1: 🔴 2: 🔴 3: 🔴 4: 🟢 5: 🟢 6: 🟢 7: 🟢\n"))
	assert.Contains(t, out, "78: 🟢 79: 🟢 80: 🟢\n")
	assert.True(t, strings.HasSuffix(out,
		"Do you want to book more tickets? (yes/no): Thank you for using the booking system!\n"))
}

func TestRepeatedBookings(t *testing.T) {
	out := run(t, memory.NewStore(), "7\nYES\n2\nyes\n8\nno\n")

	assert.Contains(t, out, "Seats booked: [1, 2, 3, 4, 5, 6, 7]\n")
	assert.Contains(t, out, "Available seats: 73\n")
	assert.Contains(t, out, "Seats booked: [8, 9]\n")
	assert.Contains(t, out, "Available seats: 71\n")
	assert.Contains(t, out, "You can only book a maximum of 7 seats at a time.\n")
	assert.Equal(t, 1, strings.Count(out, "Thank you for using the booking system!"))
}

func TestInvalidInputReprompts(t *testing.T) {
	out := run(t, memory.NewStore(), "two\n0\nno\n")

	assert.Contains(t, out, "Please enter a valid number.\n")
	assert.Contains(t, out, "Please enter a positive number of seats.\n")
	assert.Equal(t, 2, strings.Count(out, "Enter the number of seats to book"))
	assert.NotContains(t, out, "Seats booked")
}

func TestInsufficientSeats(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	_, err := store.Seats().Initialize(ctx)
	require.NoError(t, err)

	taken := make([]int, 0, domain.TotalSeats)
	for n := 1; n <= 76; n++ {
		taken = append(taken, n)
	}
	_, err = store.Seats().MarkBooked(ctx, taken)
	require.NoError(t, err)

	out := run(t, store, "5\nyes\n4\nyes\n")

	assert.Contains(t, out, "Only 4 seats are available. Please try again.\n")
	assert.Contains(t, out, "Seats booked: [78, 79, 80, 77]\n")
	assert.True(t, strings.HasSuffix(out, "The coach is fully booked! No more seats available.\n"))
}

func TestInputEndsEarly(t *testing.T) {
	out := run(t, memory.NewStore(), "")

	assert.Equal(t,
		"Available seats: 80\nEnter the number of seats to book (up to 7 seats): \n", out)
}
