package models

// PassengerInfo carries the identity captured for one passenger slot.
// BookingFor is "self" or "other". One PassengerInfo exists per slot for
// the life of the booking flow and is reused unmodified for a return leg.
type PassengerInfo struct {
	BookingFor string `json:"booking_for"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
}
