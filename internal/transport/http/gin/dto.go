package httpgin

import (
	"time"

	"github.com/kirinyoku/coachseat/internal/domain"
)

type CreateBookingRequest struct {
	Seats int `json:"seats" binding:"required"`
}

type BookingResponse struct {
	Reference string    `json:"reference"`
	Seats     []int     `json:"seats"`
	Rows      []int     `json:"rows"`
	BookedAt  time.Time `json:"booked_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type RowResponse struct {
	Index     int           `json:"row"`
	Low       int           `json:"low"`
	High      int           `json:"high"`
	Available int           `json:"available"`
	Seats     []domain.Seat `json:"seats"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	rows := make([]int, len(b.Seats))
	for i, n := range b.Seats {
		rows[i] = domain.RowOf(n)
	}

	return BookingResponse{
		Reference: b.Reference,
		Seats:     b.Seats,
		Rows:      rows,
		BookedAt:  b.BookedAt,
	}
}

func toRowResponse(r *domain.Row) RowResponse {
	available := 0
	for _, s := range r.Seats {
		if s.Available() {
			available++
		}
	}

	return RowResponse{
		Index:     r.Index,
		Low:       r.Low,
		High:      r.High,
		Available: available,
		Seats:     r.Seats,
	}
}
