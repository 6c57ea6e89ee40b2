package domain

import "time"

type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatBooked    SeatStatus = "booked"
)

func (s SeatStatus) Valid() bool {
	return s == SeatAvailable || s == SeatBooked
}

type Seat struct {
	Number int        `json:"seat_number"`
	Status SeatStatus `json:"status"`
}

func (s Seat) Available() bool {
	return s.Status == SeatAvailable
}

// Row is a derived view over a contiguous run of seats. It is never persisted.
type Row struct {
	Index int    `json:"row"`
	Low   int    `json:"low"`
	High  int    `json:"high"`
	Seats []Seat `json:"seats"`
}

type Chart struct {
	Rows    []Row  `json:"rows"`
	Unrowed []Seat `json:"unrowed,omitempty"`
}

type ChartCounts struct {
	Available int `json:"available"`
	Booked    int `json:"booked"`
	Total     int `json:"total"`
}

type Booking struct {
	Reference string    `json:"reference"`
	Seats     []int     `json:"seats"`
	BookedAt  time.Time `json:"booked_at"`
}

// Counts tallies the chart by status.
func (c Chart) Counts() ChartCounts {
	var out ChartCounts
	tally := func(seats []Seat) {
		for _, s := range seats {
			if s.Available() {
				out.Available++
			} else {
				out.Booked++
			}
		}
	}
	for _, r := range c.Rows {
		tally(r.Seats)
	}
	tally(c.Unrowed)
	out.Total = out.Available + out.Booked
	return out
}
