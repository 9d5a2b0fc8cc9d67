package models

// SeatStatus is the per-seat, per-trip occupancy state.
type SeatStatus string

const (
	// SeatAvailable means the seat can be picked.
	SeatAvailable SeatStatus = "available"
	// SeatSelected is session-local and transient (pre-hold).
	SeatSelected SeatStatus = "selected"
	// SeatHold is a server-confirmed time-boxed claim.
	SeatHold SeatStatus = "hold"
	// SeatPaid means payment was confirmed for the seat.
	SeatPaid SeatStatus = "paid"
	// SeatOfflineReserved is a seat reserved through an offline/manual
	// channel; rendered occupied but distinguishable.
	SeatOfflineReserved SeatStatus = "offline_reserved"
)

// SeatLayout describes a vehicle's physical seat grid.
type SeatLayout struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
	// AisleAfterCol inserts an aisle gap after this 1-based column.
	// Zero means no aisle.
	AisleAfterCol int      `json:"aisle_after_col,omitempty"`
	ColumnLabels  []string `json:"column_labels,omitempty"`
}

// DefaultSeatLayout is the fallback 11x4 grid with a single center aisle
// used when a trip carries no layout of its own.
func DefaultSeatLayout() SeatLayout {
	return SeatLayout{Rows: 11, Cols: 4, AisleAfterCol: 2}
}

func (l SeatLayout) TotalSeats() int {
	return l.Rows * l.Cols
}
