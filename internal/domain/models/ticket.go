package models

// Ticket statuses as reported by the reservation backend.
const (
	TicketAvailable = "AVAILABLE"
	TicketHold      = "HOLD"
	TicketPaid      = "PAID"
	TicketEmbarked  = "EMBARKED"
	TicketCancelled = "CANCELLED"
)

// Ticket is the authoritative record of a reservation.
type Ticket struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"user_id"`
	TripID         int64  `json:"trip_id"`
	SegmentID      int64  `json:"segment_id,omitempty"`
	SeatCode       string `json:"seat_code"`
	PassengerName  string `json:"passenger_name"`
	PassengerPhone string `json:"passenger_phone,omitempty"`
	Status         string `json:"status"`
	Code           string `json:"code"`
	QRCode         string `json:"qr_code"`
	RouteFrom      string `json:"route_from"`
	RouteTo        string `json:"route_to"`
	TripDate       string `json:"trip_date"`
	TripTime       string `json:"trip_time"`
	Operator       string `json:"operator"`
	PricePaid      int64  `json:"price_paid"`
	CanCancel      bool   `json:"can_cancel"`
}
