// Package chart draws the seat chart as text for terminals.
package chart

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kirinyoku/coachseat/internal/domain"
)

const (
	markAvailable = "🟢"
	markBooked    = "🔴"
)

// Render writes the chart seven seats to a line, in seat-number order. The
// last line holds whatever is left over (three seats for a full coach).
func Render(w io.Writer, c domain.Chart) error {
	seats := flatten(c)

	var b strings.Builder
	for i, s := range seats {
		fmt.Fprintf(&b, "%d: %s", s.Number, mark(s))

		if (i+1)%domain.SeatsPerRow == 0 || i == len(seats)-1 {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// String is Render into a string.
func String(c domain.Chart) string {
	var b strings.Builder
	_ = Render(&b, c)
	return b.String()
}

func mark(s domain.Seat) string {
	if s.Available() {
		return markAvailable
	}
	return markBooked
}

func flatten(c domain.Chart) []domain.Seat {
	seats := make([]domain.Seat, 0, domain.TotalSeats)
	for _, r := range c.Rows {
		seats = append(seats, r.Seats...)
	}
	seats = append(seats, c.Unrowed...)

	sort.SliceStable(seats, func(i, j int) bool { return seats[i].Number < seats[j].Number })

	return seats
}
