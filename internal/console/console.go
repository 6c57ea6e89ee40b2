// Package console runs the interactive booking prompt.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kirinyoku/coachseat/internal/chart"
	"github.com/kirinyoku/coachseat/internal/domain"
	"github.com/kirinyoku/coachseat/internal/service/booking"
)

type Booker interface {
	CountAvailable(ctx context.Context) (int, error)
	Book(ctx context.Context, requested int, clientKey string) (*domain.Booking, error)
}

type ChartSource interface {
	Chart(ctx context.Context) (*domain.Chart, error)
}

type Console struct {
	booker  Booker
	charts  ChartSource
	maxSeat int
	in      *bufio.Scanner
	out     io.Writer
}

func New(booker Booker, charts ChartSource, maxSeats int, in io.Reader, out io.Writer) *Console {
	if maxSeats <= 0 {
		maxSeats = booking.DefaultMaxSeatsPerBooking
	}

	return &Console{
		booker:  booker,
		charts:  charts,
		maxSeat: maxSeats,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// Run loops until the user stops, the coach is full or input ends.
func (c *Console) Run(ctx context.Context) error {
	const op = "console.Run"

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		available, err := c.booker.CountAvailable(ctx)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if available == 0 {
			c.println("The coach is fully booked! No more seats available.")
			return nil
		}

		c.printf("Available seats: %d\n", available)
		c.printf("Enter the number of seats to book (up to %d seats): ", c.maxSeat)

		line, ok := c.readLine()
		if !ok {
			return nil
		}

		n, err := strconv.Atoi(line)
		if err != nil {
			c.println("Please enter a valid number.")
			continue
		}

		done, err := c.book(ctx, n)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if done {
			return nil
		}

		c.print("Do you want to book more tickets? (yes/no): ")

		answer, ok := c.readLine()
		if !ok || strings.ToLower(answer) != "yes" {
			c.println("Thank you for using the booking system!")
			return nil
		}
	}
}

// book reports done when the coach turned out to be full.
func (c *Console) book(ctx context.Context, n int) (bool, error) {
	b, err := c.booker.Book(ctx, n, "")

	var (
		tooMany      booking.TooManySeatsError
		insufficient booking.InsufficientSeatsError
	)

	switch {
	case err == nil:
	case errors.As(err, &tooMany):
		c.printf("You can only book a maximum of %d seats at a time.\n", tooMany.Max)
		return false, nil
	case errors.As(err, &insufficient):
		c.printf("Only %d seats are available. Please try again.\n", insufficient.Available)
		return false, nil
	case errors.Is(err, booking.ErrInvalidSeatCount):
		c.println("Please enter a positive number of seats.")
		return false, nil
	case errors.Is(err, booking.ErrCoachFull):
		c.println("The coach is fully booked! No more seats available.")
		return true, nil
	default:
		return false, err
	}

	c.printf("Seats booked: %s\n", formatSeats(b.Seats))

	ch, err := c.charts.Chart(ctx)
	if err != nil {
		return false, err
	}

	return false, chart.Render(c.out, *ch)
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		c.println()
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) print(s string)                 { _, _ = io.WriteString(c.out, s) }
func (c *Console) println(a ...any)               { _, _ = fmt.Fprintln(c.out, a...) }
func (c *Console) printf(format string, a ...any) { _, _ = fmt.Fprintf(c.out, format, a...) }

func formatSeats(seats []int) string {
	parts := make([]string, len(seats))
	for i, n := range seats {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
