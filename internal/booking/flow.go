// Package booking runs the seat-selection flow: passenger identity capture,
// per-passenger seat picking under one time-boxed hold, and the round-trip
// handoff into a return-leg search.
package booking

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"fasobus/internal/domain"
	"fasobus/internal/domain/models"
	"fasobus/internal/holds"
	"fasobus/internal/seatmap"
	"fasobus/internal/trips"
	"fasobus/internal/utils"

	"github.com/google/uuid"
)

// UserLookup resolves the stored name/phone of an account, used when a
// passenger books for "self".
type UserLookup func(userID int64) (name, phone string, err error)

// Flow orchestrates booking sessions. All state transitions run under one
// mutex; transitions are applied synchronously per user event.
type Flow struct {
	mu       sync.Mutex
	sessions map[string]*Session

	trips  trips.Source
	holds  *holds.Registry
	lookup UserLookup
}

func NewFlow(src trips.Source, registry *holds.Registry, lookup UserLookup) *Flow {
	return &Flow{
		sessions: make(map[string]*Session),
		trips:    src,
		holds:    registry,
		lookup:   lookup,
	}
}

// Create opens a session with one slot per passenger, starting at the
// booking-for stage of passenger 1.
func (f *Flow) Create(userID, tripID int64, passengerCount int, roundTrip bool) (SessionView, error) {
	if passengerCount < 1 {
		return SessionView{}, domain.ValidationError{Field: "passenger_count", Msg: "at least one passenger is required"}
	}

	trip, err := f.trips.Get(tripID)
	if err != nil {
		return SessionView{}, err
	}
	if passengerCount > trip.AvailableSeats() {
		return SessionView{}, domain.ConflictError{Resource: "trip", Msg: "not enough seats available"}
	}

	s := &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		OutboundTripID: tripID,
		RoundTrip:      roundTrip,
		Leg:            LegOutbound,
		Stage:          StageBookingFor,
		Slots:          make([]PassengerSlot, passengerCount),
		CreatedAt:      time.Now(),
	}

	f.mu.Lock()
	f.sessions[s.ID] = s
	view := f.viewLocked(s)
	f.mu.Unlock()

	utils.LogEvent("", "booking", "session_created", "session="+s.ID+" trip="+strconv.FormatInt(tripID, 10))
	return view, nil
}

// View returns the current session read model.
func (f *Flow) View(sessionID string) (SessionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.sessionLocked(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return f.viewLocked(s), nil
}

// BookingFor applies the self/other choice for the current passenger.
// "self" auto-fills the account's stored name and phone.
func (f *Flow) BookingFor(sessionID, choice string) (SessionView, error) {
	norm := normalizeBookingFor(choice)
	if norm == "" {
		return SessionView{}, domain.ValidationError{Field: "booking_for", Msg: "must be self or other"}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.sessionLocked(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if s.Stage != StageBookingFor {
		return SessionView{}, domain.ConflictError{Resource: "session", Msg: "not at booking-for stage"}
	}
	s.HoldExpired = false

	slot := &s.Slots[s.Current]
	slot.Info.BookingFor = norm

	if norm == "self" {
		name, phone, err := f.lookup(s.UserID)
		if err != nil {
			return SessionView{}, err
		}
		slot.Info.Name = name
		slot.Info.Phone = phone
		s.Stage = StageSeatSelection
	} else {
		s.Stage = StagePassengerInfo
	}
	return f.viewLocked(s), nil
}

// PassengerInfo validates and commits the current passenger's identity.
// Validation failures block the transition; nothing is partially saved.
func (f *Flow) PassengerInfo(sessionID, name, phone string) (SessionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.sessionLocked(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if s.Stage != StagePassengerInfo {
		return SessionView{}, domain.ConflictError{Resource: "session", Msg: "not at passenger-info stage"}
	}

	if err := ValidateFullName(name); err != nil {
		return SessionView{}, err
	}
	normPhone, err := NormalizePhone(phone)
	if err != nil {
		return SessionView{}, err
	}

	slot := &s.Slots[s.Current]
	slot.Info.Name = strings.TrimSpace(name)
	slot.Info.Phone = normPhone
	s.Stage = StageSeatSelection
	return f.viewLocked(s), nil
}

// ToggleSeat selects, replaces or deselects the current passenger's seat.
// The first seat of the first passenger creates the hold; its expiry comes
// back from the holds registry and is shared by every later seat,
// including return-leg seats.
func (f *Flow) ToggleSeat(sessionID, seatID string) (SessionView, error) {
	code := strings.ToUpper(strings.TrimSpace(seatID))
	if code == "" {
		return SessionView{}, domain.ValidationError{Field: "seat_id", Msg: "seat is required"}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.sessionLocked(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if s.Stage != StageSeatSelection {
		return SessionView{}, domain.ConflictError{Resource: "session", Msg: "not at seat-selection stage"}
	}

	slot := &s.Slots[s.Current]
	leg := s.Leg
	token := s.holdToken(leg)

	// Re-clicking the selected seat deselects it.
	if slot.seat(leg) == code {
		if token != "" {
			if _, err := f.holds.RemoveSeat(token, code); err != nil && !domain.IsNotFound(err) {
				if domain.IsExpired(err) {
					f.expireLocked(s)
				}
				return SessionView{}, err
			}
		}
		slot.setSeat(leg, "")
		return f.viewLocked(s), nil
	}

	tripID := s.OutboundTripID
	if leg == LegReturn {
		tripID = s.ReturnTripID
	}

	trip, err := f.trips.Get(tripID)
	if err != nil {
		return SessionView{}, err
	}
	if !seatmap.HasSeat(trip.LayoutOrDefault(), code) {
		return SessionView{}, domain.ValidationError{Field: "seat_id", Msg: code + " is not in this coach's layout"}
	}

	if token == "" {
		var h models.Hold
		if leg == LegReturn {
			// Return seats ride on the outbound hold's deadline; without
			// a live one the session must restart from the outbound leg.
			if s.HoldExpiresAt.IsZero() {
				return SessionView{}, domain.ConflictError{Resource: "session", Msg: "no live outbound hold"}
			}
			h, err = f.holds.CreateAt(tripID, []string{code}, s.HoldExpiresAt)
		} else {
			h, err = f.holds.Create(tripID, []string{code}, s.ID)
		}
		if err != nil {
			if domain.IsExpired(err) {
				f.expireLocked(s)
			}
			return SessionView{}, err
		}
		if leg == LegReturn {
			s.ReturnHoldToken = h.Token
		} else {
			s.HoldToken = h.Token
			s.HoldExpiresAt = h.ExpiresAt
			f.startCountdownLocked(s)
		}
	} else {
		if _, err := f.holds.AddSeat(token, code); err != nil {
			if domain.IsExpired(err) {
				f.expireLocked(s)
			}
			return SessionView{}, err
		}
	}

	// Replacing a previous pick releases it after the new seat is secured.
	if old := slot.seat(leg); old != "" {
		if _, err := f.holds.RemoveSeat(s.holdToken(leg), old); err != nil && !domain.IsNotFound(err) {
			return SessionView{}, err
		}
	}
	slot.setSeat(leg, code)
	return f.viewLocked(s), nil
}

// Continue advances past the current passenger's seat selection. It blocks
// while the current passenger has no seat, loops the state machine for the
// next passenger, branches to the return search on round trips, and
// otherwise assembles the reservation summary.
func (f *Flow) Continue(sessionID string) (ContinueResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.sessionLocked(sessionID)
	if err != nil {
		return ContinueResult{}, err
	}
	if s.Stage != StageSeatSelection {
		return ContinueResult{}, domain.ConflictError{Resource: "session", Msg: "not at seat-selection stage"}
	}
	if s.Slots[s.Current].seat(s.Leg) == "" {
		return ContinueResult{}, domain.ValidationError{Field: "seat", Msg: "select a seat before continuing"}
	}

	if s.Current < len(s.Slots)-1 {
		s.Current++
		if s.Leg == LegOutbound {
			s.Stage = StageBookingFor
		}
		// Return leg keeps seat-selection; identity is already known.
		return ContinueResult{Kind: "next-passenger"}, nil
	}

	if s.Leg == LegOutbound && s.RoundTrip && s.ReturnTripID == 0 {
		trip, err := f.trips.Get(s.OutboundTripID)
		if err != nil {
			return ContinueResult{}, err
		}
		return ContinueResult{
			Kind: "return-search",
			ReturnSearch: &ReturnSearch{
				Operator:   trip.Operator,
				From:       trip.ToStation,
				To:         trip.FromStation,
				Passengers: passengerInfos(s),
			},
		}, nil
	}

	// A summary is only assembled over a complete selection on every leg.
	if !s.allSeated(LegOutbound) || (s.ReturnTripID != 0 && !s.allSeated(LegReturn)) {
		return ContinueResult{}, domain.ConflictError{Resource: "session", Msg: "seat selection is incomplete"}
	}

	total, err := f.totalLocked(s)
	if err != nil {
		return ContinueResult{}, err
	}
	return ContinueResult{
		Kind: "summary",
		Summary: &Summary{
			OutboundTripID: s.OutboundTripID,
			ReturnTripID:   s.ReturnTripID,
			OutboundSeats:  s.seats(LegOutbound),
			ReturnSeats:    s.seats(LegReturn),
			Passengers:     passengerInfos(s),
			Total:          total,
			HoldToken:      s.HoldToken,
			HoldExpiresAt:  s.HoldExpiresAt,
		},
	}, nil
}

// SelectReturnTrip enters the return leg directly at seat-selection for
// passenger 1, reusing all collected identities.
func (f *Flow) SelectReturnTrip(sessionID string, returnTripID int64) (SessionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.sessionLocked(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if !s.RoundTrip {
		return SessionView{}, domain.ConflictError{Resource: "session", Msg: "not a round trip"}
	}
	if !s.allSeated(LegOutbound) {
		return SessionView{}, domain.ConflictError{Resource: "session", Msg: "outbound seats are incomplete"}
	}

	outbound, err := f.trips.Get(s.OutboundTripID)
	if err != nil {
		return SessionView{}, err
	}
	ret, err := f.trips.Get(returnTripID)
	if err != nil {
		return SessionView{}, err
	}
	if !strings.EqualFold(ret.Operator, outbound.Operator) {
		return SessionView{}, domain.ValidationError{Field: "trip_id", Msg: "return trip must be run by the same operator"}
	}

	s.ReturnTripID = returnTripID
	s.Leg = LegReturn
	s.Current = 0
	s.Stage = StageSeatSelection
	return f.viewLocked(s), nil
}

// Occupancy merges the authoritative seat statuses of the session's
// current trip with the session's own picks: other passengers' seats show
// as hold, the current passenger's as selected.
func (f *Flow) Occupancy(sessionID string) (int64, map[string]models.SeatStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.sessionLocked(sessionID)
	if err != nil {
		return 0, nil, err
	}

	tripID := s.OutboundTripID
	if s.Leg == LegReturn {
		tripID = s.ReturnTripID
	}

	occ := f.holds.Occupancy(tripID)
	for i := range s.Slots {
		code := s.Slots[i].seat(s.Leg)
		if code == "" {
			continue
		}
		if i == s.Current {
			occ[code] = models.SeatSelected
		} else {
			occ[code] = models.SeatHold
		}
	}
	return tripID, occ, nil
}

// Release drops the session and frees its holds, e.g. when the client
// abandons the flow.
func (f *Flow) Release(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[sessionID]
	if !ok {
		return
	}
	f.dropHoldsLocked(s)
	delete(f.sessions, sessionID)
}

// SweepExpired force-expires every session whose hold deadline passed
// without the countdown firing, e.g. when its goroutine was lost. Runs
// from the janitor ticker next to the hold registry's own sweep. Returns
// how many sessions were rewound.
func (f *Flow) SweepExpired() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	n := 0
	for _, s := range f.sessions {
		if s.HoldExpiresAt.IsZero() || now.Before(s.HoldExpiresAt) {
			continue
		}
		f.expireLocked(s)
		n++
	}
	return n
}

func (f *Flow) expire(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		f.expireLocked(s)
	}
}

// expireLocked implements hold expiry: selections on both legs are
// cleared, the holds dropped, and the machine rewound to booking-for of
// passenger 1 on the outbound leg. The chosen return trip is forgotten
// too; seat selection restarts from the beginning.
func (f *Flow) expireLocked(s *Session) {
	f.dropHoldsLocked(s)

	for i := range s.Slots {
		s.Slots[i].OutboundSeat = ""
		s.Slots[i].ReturnSeat = ""
	}
	s.HoldToken = ""
	s.ReturnHoldToken = ""
	s.HoldExpiresAt = time.Time{}
	s.HoldExpired = true
	s.Current = 0
	s.Leg = LegOutbound
	s.ReturnTripID = 0
	s.Stage = StageBookingFor
	utils.LogEvent("", "booking", "hold_expired", "session="+s.ID)
}

func (f *Flow) dropHoldsLocked(s *Session) {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
	if s.HoldToken != "" {
		f.holds.Release(s.HoldToken)
	}
	if s.ReturnHoldToken != "" {
		f.holds.Release(s.ReturnHoldToken)
	}
}

func (f *Flow) startCountdownLocked(s *Session) {
	if s.countdown != nil {
		s.countdown.Stop()
	}
	id := s.ID
	s.countdown = NewCountdown(s.HoldExpiresAt, nil, func() { f.expire(id) })
	s.countdown.Start()
}

func (f *Flow) sessionLocked(sessionID string) (*Session, error) {
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, domain.NotFoundError{Resource: "session"}
	}
	return s, nil
}

// totalLocked recomputes sum(legBasePrice × passengerCount) from current
// trip data on every call; nothing is cached.
func (f *Flow) totalLocked(s *Session) (int64, error) {
	outbound, err := f.trips.Get(s.OutboundTripID)
	if err != nil {
		return 0, err
	}
	total := outbound.PricePerSeat * int64(len(s.Slots))
	if s.ReturnTripID != 0 {
		ret, err := f.trips.Get(s.ReturnTripID)
		if err != nil {
			return 0, err
		}
		total += ret.PricePerSeat * int64(len(s.Slots))
	}
	return total, nil
}

func (f *Flow) viewLocked(s *Session) SessionView {
	view := SessionView{
		ID:             s.ID,
		Stage:          s.Stage,
		Leg:            s.Leg,
		Current:        s.Current,
		RoundTrip:      s.RoundTrip,
		OutboundTripID: s.OutboundTripID,
		ReturnTripID:   s.ReturnTripID,
		HoldToken:      s.HoldToken,
		HoldExpired:    s.HoldExpired,
	}
	if !s.HoldExpiresAt.IsZero() {
		expires := s.HoldExpiresAt
		view.HoldExpiresAt = &expires
	}
	for i := range s.Slots {
		view.Slots = append(view.Slots, SlotView{
			BookingFor:   s.Slots[i].Info.BookingFor,
			Name:         s.Slots[i].Info.Name,
			Phone:        s.Slots[i].Info.Phone,
			OutboundSeat: s.Slots[i].OutboundSeat,
			ReturnSeat:   s.Slots[i].ReturnSeat,
		})
	}
	if total, err := f.totalLocked(s); err == nil {
		view.Total = total
	}
	return view
}

func passengerInfos(s *Session) []models.PassengerInfo {
	out := make([]models.PassengerInfo, 0, len(s.Slots))
	for i := range s.Slots {
		out = append(out, s.Slots[i].Info)
	}
	return out
}
