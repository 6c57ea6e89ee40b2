package chart

import (
	"strings"
	"testing"

	"github.com/kirinyoku/coachseat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullCoach(booked ...int) domain.Chart {
	isBooked := map[int]bool{}
	for _, n := range booked {
		isBooked[n] = true
	}

	seats := make([]domain.Seat, 0, domain.TotalSeats)
	for n := 1; n <= domain.TotalSeats; n++ {
		st := domain.SeatAvailable
		if isBooked[n] {
			st = domain.SeatBooked
		}
		seats = append(seats, domain.Seat{Number: n, Status: st})
	}

	return domain.BuildChart(seats)
}

func TestRenderLayout(t *testing.T) {
	out := String(fullCoach())

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 12)

	for i, l := range lines[:11] {
		assert.Len(t, strings.Split(l, " "), 2*domain.SeatsPerRow, "line %d", i+1)
	}

	assert.Equal(t, "78: 🟢 79: 🟢 80: 🟢", lines[11])
	assert.Equal(t, "71: 🟢 72: 🟢 73: 🟢 74: 🟢 75: 🟢 76: 🟢 77: 🟢", lines[10])
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestRenderMarks(t *testing.T) {
	out := String(fullCoach(1, 3, 80))

	lines := strings.Split(out, "\n")
	assert.Equal(t, "1: 🔴 2: 🟢 3: 🔴 4: 🟢 5: 🟢 6: 🟢 7: 🟢", lines[0])
	assert.Equal(t, "78: 🟢 79: 🟢 80: 🔴", lines[11])
}

func TestRenderEmpty(t *testing.T) {
	var b strings.Builder
	require.NoError(t, Render(&b, domain.BuildChart(nil)))
	assert.Empty(t, b.String())
}
