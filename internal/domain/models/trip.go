package models

// Segment is a sub-leg of a trip between two intermediate stops, with
// independent seat availability.
type Segment struct {
	ID             int64  `json:"id"`
	TripID         int64  `json:"trip_id"`
	FromStation    string `json:"from_station"`
	ToStation      string `json:"to_station"`
	DepartureTime  string `json:"departure_time"`
	AvailableSeats int    `json:"available_seats"`
}

// Trip is an operator-run journey between two stops at a scheduled time.
// Read-only to clients.
type Trip struct {
	ID           int64       `json:"id"`
	Operator     string      `json:"operator"`
	FromStation  string      `json:"from_station"`
	ToStation    string      `json:"to_station"`
	TripDate     string      `json:"trip_date"`
	TripTime     string      `json:"trip_time"`
	PricePerSeat int64       `json:"price_per_seat"`
	SeatCount    int         `json:"seat_count"`
	Layout       *SeatLayout `json:"layout,omitempty"`
	Segments     []Segment   `json:"segments,omitempty"`
}

// AvailableSeats is the trip-level availability: the minimum across its
// segments (capacity is segment-bottlenecked). Without segments the trip's
// own seat count stands in.
func (t Trip) AvailableSeats() int {
	if len(t.Segments) == 0 {
		return t.SeatCount
	}
	min := t.Segments[0].AvailableSeats
	for _, seg := range t.Segments[1:] {
		if seg.AvailableSeats < min {
			min = seg.AvailableSeats
		}
	}
	return min
}

// LayoutOrDefault returns the trip's layout, falling back to the default
// 11x4 grid when the backend supplied none.
func (t Trip) LayoutOrDefault() SeatLayout {
	if t.Layout != nil && t.Layout.Rows > 0 && t.Layout.Cols > 0 {
		return *t.Layout
	}
	return DefaultSeatLayout()
}
