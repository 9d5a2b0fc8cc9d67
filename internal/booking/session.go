package booking

import (
	"time"

	"fasobus/internal/domain/models"
)

// Stage is one step of the per-passenger booking state machine.
type Stage string

const (
	StageBookingFor    Stage = "booking-for"
	StagePassengerInfo Stage = "passenger-info"
	StageSeatSelection Stage = "seat-selection"
)

// Leg identifies the direction currently being booked.
type Leg string

const (
	LegOutbound Leg = "outbound"
	LegReturn   Leg = "return"
)

// PassengerSlot pairs one passenger's identity with their seat per leg.
// The identity is collected once on the outbound leg and reused unchanged
// for the return leg.
type PassengerSlot struct {
	Info         models.PassengerInfo
	OutboundSeat string
	ReturnSeat   string
}

func (s *PassengerSlot) seat(leg Leg) string {
	if leg == LegReturn {
		return s.ReturnSeat
	}
	return s.OutboundSeat
}

func (s *PassengerSlot) setSeat(leg Leg, code string) {
	if leg == LegReturn {
		s.ReturnSeat = code
	} else {
		s.OutboundSeat = code
	}
}

// Session is one booking attempt: N passenger slots walked through the
// booking-for → passenger-info → seat-selection machine, an optional
// return leg, and at most one hold shared by every selected seat.
type Session struct {
	ID             string
	UserID         int64
	OutboundTripID int64
	ReturnTripID   int64
	RoundTrip      bool

	Leg     Leg
	Current int
	Stage   Stage
	Slots   []PassengerSlot

	HoldToken       string
	ReturnHoldToken string
	HoldExpiresAt   time.Time
	HoldExpired     bool

	countdown *Countdown
	CreatedAt time.Time
}

func (s *Session) holdToken(leg Leg) string {
	if leg == LegReturn {
		return s.ReturnHoldToken
	}
	return s.HoldToken
}

func (s *Session) seats(leg Leg) []string {
	out := make([]string, 0, len(s.Slots))
	for i := range s.Slots {
		if code := s.Slots[i].seat(leg); code != "" {
			out = append(out, code)
		}
	}
	return out
}

func (s *Session) allSeated(leg Leg) bool {
	for i := range s.Slots {
		if s.Slots[i].seat(leg) == "" {
			return false
		}
	}
	return true
}

// SlotView is the read model for one passenger slot.
type SlotView struct {
	BookingFor   string `json:"booking_for,omitempty"`
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	OutboundSeat string `json:"outbound_seat,omitempty"`
	ReturnSeat   string `json:"return_seat,omitempty"`
}

// SessionView is the read model handed to HTTP handlers. Total is
// recomputed on every read so it always reflects current trip data.
type SessionView struct {
	ID             string     `json:"id"`
	Stage          Stage      `json:"stage"`
	Leg            Leg        `json:"leg"`
	Current        int        `json:"current_passenger"`
	RoundTrip      bool       `json:"round_trip"`
	OutboundTripID int64      `json:"outbound_trip_id"`
	ReturnTripID   int64      `json:"return_trip_id,omitempty"`
	Slots          []SlotView `json:"passengers"`
	HoldToken      string     `json:"hold_token,omitempty"`
	HoldExpiresAt  *time.Time `json:"hold_expires_at,omitempty"`
	HoldExpired    bool       `json:"hold_expired,omitempty"`
	Total          int64      `json:"total"`
}

// ContinueResult is the outcome of the continue action.
type ContinueResult struct {
	// Kind is next-passenger, return-search or summary.
	Kind         string        `json:"kind"`
	ReturnSearch *ReturnSearch `json:"return_search,omitempty"`
	Summary      *Summary      `json:"summary,omitempty"`
}

// ReturnSearch directs the client into a return-trip search pre-filtered
// to the outbound operator, with passenger info carried forward unchanged.
type ReturnSearch struct {
	Operator   string                 `json:"operator"`
	From       string                 `json:"from"`
	To         string                 `json:"to"`
	Passengers []models.PassengerInfo `json:"passengers"`
}

// Summary is the assembled reservation handed to the payment step.
type Summary struct {
	OutboundTripID int64                  `json:"outbound_trip_id"`
	ReturnTripID   int64                  `json:"return_trip_id,omitempty"`
	OutboundSeats  []string               `json:"outbound_seats"`
	ReturnSeats    []string               `json:"return_seats,omitempty"`
	Passengers     []models.PassengerInfo `json:"passengers"`
	Total          int64                  `json:"total"`
	HoldToken      string                 `json:"hold_token"`
	HoldExpiresAt  time.Time              `json:"hold_expires_at"`
}
