package domain

// Coach layout: ten rows of seven seats followed by a short last row.
const (
	TotalSeats  = 80
	RowCount    = 11
	SeatsPerRow = 7

	lastRowLow = TotalSeats - 2
)

// RowRange returns the inclusive seat-number bounds of a row. Rows are
// numbered from 1; ok is false for rows outside the coach.
func RowRange(row int) (low, high int, ok bool) {
	switch {
	case row >= 1 && row < RowCount:
		return row*SeatsPerRow - SeatsPerRow + 1, row * SeatsPerRow, true
	case row == RowCount:
		return lastRowLow, TotalSeats, true
	default:
		return 0, 0, false
	}
}

// RowOf returns the row a seat number belongs to, or 0 if no row spans it.
// Seats between the end of the tenth row and the start of the last row
// (71..77) exist in the chart but belong to no row; they are only ever
// reached by the fallback scan.
func RowOf(seat int) int {
	switch {
	case seat >= lastRowLow && seat <= TotalSeats:
		return RowCount
	case seat >= 1 && seat <= (RowCount-1)*SeatsPerRow:
		return (seat-1)/SeatsPerRow + 1
	default:
		return 0
	}
}

// ValidSeat reports whether n names a seat of the coach.
func ValidSeat(n int) bool {
	return n >= 1 && n <= TotalSeats
}

// BuildChart groups seats into rows. Seats of the coach that no row spans
// go to Unrowed; seat numbers outside the coach are dropped. Order within a
// row follows the input.
func BuildChart(seats []Seat) Chart {
	rows := make([]Row, RowCount)
	var unrowed []Seat
	for i := range rows {
		low, high, _ := RowRange(i + 1)
		rows[i] = Row{Index: i + 1, Low: low, High: high}
	}

	for _, s := range seats {
		if !ValidSeat(s.Number) {
			continue
		}
		r := RowOf(s.Number)
		if r == 0 {
			unrowed = append(unrowed, s)
			continue
		}
		rows[r-1].Seats = append(rows[r-1].Seats, s)
	}

	return Chart{Rows: rows, Unrowed: unrowed}
}
