package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidSeatCount  = errors.New("number of seats must be positive")
	ErrTooManySeats      = errors.New("too many seats for one booking")
	ErrInsufficientSeats = errors.New("not enough seats available")
	ErrCoachFull         = errors.New("the coach is fully booked")
	ErrRateLimited       = errors.New("rate limited")
)

type TooManySeatsError struct {
	Requested int
	Max       int
}

func (e TooManySeatsError) Error() string {
	return fmt.Sprintf("you can only book a maximum of %d seats at a time", e.Max)
}

func (e TooManySeatsError) Unwrap() error { return ErrTooManySeats }

type InsufficientSeatsError struct {
	Requested int
	Available int
}

func (e InsufficientSeatsError) Error() string {
	return fmt.Sprintf("only %d seats are available", e.Available)
}

func (e InsufficientSeatsError) Unwrap() error { return ErrInsufficientSeats }

type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}

func (e RateLimitedError) Unwrap() error { return ErrRateLimited }
