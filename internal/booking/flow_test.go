package booking

import (
	"testing"
	"time"

	"fasobus/internal/domain"
	"fasobus/internal/domain/models"
	"fasobus/internal/holds"
)

type stubSource struct {
	trips map[int64]models.Trip
}

func (s stubSource) Search(from, to, date, operator string) ([]models.Trip, error) {
	var out []models.Trip
	for _, t := range s.trips {
		out = append(out, t)
	}
	return out, nil
}

func (s stubSource) Get(id int64) (models.Trip, error) {
	t, ok := s.trips[id]
	if !ok {
		return models.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	return t, nil
}

func testFlow(t *testing.T) (*Flow, *holds.Registry) {
	t.Helper()
	src := stubSource{trips: map[int64]models.Trip{
		100: {ID: 100, Operator: "Rakieta", FromStation: "Ouagadougou", ToStation: "Bobo-Dioulasso",
			TripDate: "2026-04-01", TripTime: "06:30", PricePerSeat: 7500, SeatCount: 44},
		200: {ID: 200, Operator: "Rakieta", FromStation: "Bobo-Dioulasso", ToStation: "Ouagadougou",
			TripDate: "2026-04-03", TripTime: "09:00", PricePerSeat: 7500, SeatCount: 44},
		300: {ID: 300, Operator: "TSR", FromStation: "Bobo-Dioulasso", ToStation: "Ouagadougou",
			TripDate: "2026-04-03", TripTime: "12:30", PricePerSeat: 7000, SeatCount: 44},
	}}
	registry := holds.NewRegistry(10 * time.Minute)
	lookup := func(userID int64) (string, string, error) {
		return "Awa Kaboré", "70123456", nil
	}
	return NewFlow(src, registry, lookup), registry
}

func TestSelfBookingSinglePassenger(t *testing.T) {
	f, _ := testFlow(t)

	view, err := f.Create(1, 100, 1, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.Stage != StageBookingFor || len(view.Slots) != 1 {
		t.Fatalf("unexpected initial view: %+v", view)
	}

	view, err = f.BookingFor(view.ID, "self")
	if err != nil {
		t.Fatalf("booking-for: %v", err)
	}
	if view.Stage != StageSeatSelection {
		t.Fatalf("self must jump straight to seat-selection, got %s", view.Stage)
	}
	if view.Slots[0].Name != "Awa Kaboré" || view.Slots[0].Phone != "70123456" {
		t.Fatalf("self choice must auto-fill account identity: %+v", view.Slots[0])
	}

	view, err = f.ToggleSeat(view.ID, "a1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if view.HoldToken == "" || view.HoldExpiresAt == nil {
		t.Fatalf("first seat must create the hold: %+v", view)
	}
	if view.Slots[0].OutboundSeat != "A1" {
		t.Fatalf("seat not recorded: %+v", view.Slots[0])
	}

	res, err := f.Continue(view.ID)
	if err != nil {
		t.Fatalf("continue: %v", err)
	}
	if res.Kind != "summary" || res.Summary == nil {
		t.Fatalf("one-way single passenger should finish with a summary: %+v", res)
	}
	if res.Summary.Total != 7500 {
		t.Fatalf("total = %d, want 7500", res.Summary.Total)
	}
	if len(res.Summary.OutboundSeats) != 1 || res.Summary.OutboundSeats[0] != "A1" {
		t.Fatalf("summary seats wrong: %v", res.Summary.OutboundSeats)
	}
	if res.Summary.HoldExpiresAt.IsZero() {
		t.Fatalf("summary must carry the hold expiry")
	}
}

func TestPassengerInfoValidationBlocksTransition(t *testing.T) {
	f, _ := testFlow(t)
	view, _ := f.Create(1, 100, 1, false)

	view, err := f.BookingFor(view.ID, "other")
	if err != nil {
		t.Fatalf("booking-for: %v", err)
	}
	if view.Stage != StagePassengerInfo {
		t.Fatalf("other must go to passenger-info, got %s", view.Stage)
	}

	if _, err := f.PassengerInfo(view.ID, "Marie", ""); !domain.IsValidation(err) {
		t.Fatalf("single-token name must block: %v", err)
	}
	if _, err := f.PassengerInfo(view.ID, "Marie Ouédraogo", "701234"); !domain.IsValidation(err) {
		t.Fatalf("6-digit phone must block: %v", err)
	}

	after, err := f.View(view.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if after.Stage != StagePassengerInfo || after.Slots[0].Name != "" {
		t.Fatalf("failed validation must not partially commit: %+v", after)
	}

	ok, err := f.PassengerInfo(view.ID, "Marie Ouédraogo", "70 12 34 56")
	if err != nil {
		t.Fatalf("valid info rejected: %v", err)
	}
	if ok.Stage != StageSeatSelection || ok.Slots[0].Phone != "70123456" {
		t.Fatalf("valid info not committed: %+v", ok)
	}
}

func TestToggleDeselectAndReplace(t *testing.T) {
	f, registry := testFlow(t)
	view, _ := f.Create(1, 100, 1, false)
	view, _ = f.BookingFor(view.ID, "self")

	view, err := f.ToggleSeat(view.ID, "A1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}

	// Re-click deselects but keeps the hold alive.
	view, err = f.ToggleSeat(view.ID, "A1")
	if err != nil {
		t.Fatalf("deselect: %v", err)
	}
	if view.Slots[0].OutboundSeat != "" {
		t.Fatalf("seat not deselected: %+v", view.Slots[0])
	}
	if _, ok := registry.Occupancy(100)["A1"]; ok {
		t.Fatalf("deselected seat still occupied")
	}

	view, err = f.ToggleSeat(view.ID, "B2")
	if err != nil {
		t.Fatalf("re-select: %v", err)
	}
	view, err = f.ToggleSeat(view.ID, "C3")
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if view.Slots[0].OutboundSeat != "C3" {
		t.Fatalf("replacement not applied: %+v", view.Slots[0])
	}
	occ := registry.Occupancy(100)
	if _, ok := occ["B2"]; ok {
		t.Fatalf("replaced seat must be released")
	}
	if occ["C3"] != models.SeatHold {
		t.Fatalf("new seat not held: %v", occ)
	}
}

func TestHoldSharedAcrossPassengers(t *testing.T) {
	f, _ := testFlow(t)
	view, _ := f.Create(1, 100, 2, false)

	view, _ = f.BookingFor(view.ID, "self")
	view, err := f.ToggleSeat(view.ID, "A1")
	if err != nil {
		t.Fatalf("toggle p1: %v", err)
	}
	firstToken := view.HoldToken
	firstExpiry := *view.HoldExpiresAt

	if _, err := f.Continue(view.ID); err != nil {
		t.Fatalf("continue to p2: %v", err)
	}
	view, err = f.BookingFor(view.ID, "other")
	if err != nil {
		t.Fatalf("booking-for p2: %v", err)
	}
	view, err = f.PassengerInfo(view.ID, "Idrissa Sawadogo", "")
	if err != nil {
		t.Fatalf("info p2: %v", err)
	}
	view, err = f.ToggleSeat(view.ID, "A2")
	if err != nil {
		t.Fatalf("toggle p2: %v", err)
	}
	if view.HoldToken != firstToken {
		t.Fatalf("second passenger must join the existing hold")
	}
	if !view.HoldExpiresAt.Equal(firstExpiry) {
		t.Fatalf("all seats must share one expiry")
	}
}

func TestContinueBlockedWithoutSeat(t *testing.T) {
	f, _ := testFlow(t)
	view, _ := f.Create(1, 100, 2, false)
	if len(view.Slots) != 2 {
		t.Fatalf("expected 2 passenger slots, got %d", len(view.Slots))
	}
	view, _ = f.BookingFor(view.ID, "self")

	if _, err := f.Continue(view.ID); !domain.IsValidation(err) {
		t.Fatalf("continue without a seat must block: %v", err)
	}
}

func TestWithinSessionDoublePickBlocked(t *testing.T) {
	f, _ := testFlow(t)
	view, _ := f.Create(1, 100, 2, false)
	view, _ = f.BookingFor(view.ID, "self")
	view, _ = f.ToggleSeat(view.ID, "A1")
	f.Continue(view.ID)
	f.BookingFor(view.ID, "self")

	if _, err := f.ToggleSeat(view.ID, "A1"); !domain.IsConflict(err) {
		t.Fatalf("picking another passenger's seat must conflict: %v", err)
	}

	_, occ, err := f.Occupancy(view.ID)
	if err != nil {
		t.Fatalf("occupancy: %v", err)
	}
	if occ["A1"] != models.SeatHold {
		t.Fatalf("first passenger's seat must render as hold: %v", occ)
	}
}

func TestRoundTripCarriesPassengersForward(t *testing.T) {
	f, _ := testFlow(t)
	view, _ := f.Create(1, 100, 2, true)

	view, _ = f.BookingFor(view.ID, "self")
	view, _ = f.ToggleSeat(view.ID, "A1")
	f.Continue(view.ID)
	f.BookingFor(view.ID, "other")
	f.PassengerInfo(view.ID, "Marie Ouédraogo", "70123456")
	view, err := f.ToggleSeat(view.ID, "A2")
	if err != nil {
		t.Fatalf("toggle p2: %v", err)
	}

	res, err := f.Continue(view.ID)
	if err != nil {
		t.Fatalf("continue: %v", err)
	}
	if res.Kind != "return-search" || res.ReturnSearch == nil {
		t.Fatalf("round trip must branch into return search: %+v", res)
	}
	if res.ReturnSearch.Operator != "Rakieta" {
		t.Fatalf("return search must be filtered to the outbound operator")
	}
	if res.ReturnSearch.From != "Bobo-Dioulasso" || res.ReturnSearch.To != "Ouagadougou" {
		t.Fatalf("return search must swap the route: %+v", res.ReturnSearch)
	}
	if len(res.ReturnSearch.Passengers) != 2 {
		t.Fatalf("passenger info must carry forward")
	}
	if res.ReturnSearch.Passengers[1].Name != "Marie Ouédraogo" {
		t.Fatalf("passenger info altered: %+v", res.ReturnSearch.Passengers[1])
	}

	// Wrong operator is rejected; right one enters seat-selection directly.
	if _, err := f.SelectReturnTrip(view.ID, 300); !domain.IsValidation(err) {
		t.Fatalf("different operator must be rejected: %v", err)
	}
	view, err = f.SelectReturnTrip(view.ID, 200)
	if err != nil {
		t.Fatalf("select return trip: %v", err)
	}
	if view.Leg != LegReturn || view.Stage != StageSeatSelection || view.Current != 0 {
		t.Fatalf("return leg must start at seat-selection of passenger 1: %+v", view)
	}

	view, err = f.ToggleSeat(view.ID, "B1")
	if err != nil {
		t.Fatalf("toggle return p1: %v", err)
	}
	f.Continue(view.ID)
	view, err = f.ToggleSeat(view.ID, "B2")
	if err != nil {
		t.Fatalf("toggle return p2: %v", err)
	}
	res, err = f.Continue(view.ID)
	if err != nil {
		t.Fatalf("final continue: %v", err)
	}
	if res.Kind != "summary" || res.Summary == nil {
		t.Fatalf("completed round trip must summarize: %+v", res)
	}
	if res.Summary.Total != 2*7500+2*7500 {
		t.Fatalf("total = %d, want 30000", res.Summary.Total)
	}
	if len(res.Summary.ReturnSeats) != 2 {
		t.Fatalf("return seats missing from summary: %v", res.Summary.ReturnSeats)
	}
}

func TestExpiryResetsOutboundFlow(t *testing.T) {
	f, registry := testFlow(t)
	view, _ := f.Create(1, 100, 2, false)
	view, _ = f.BookingFor(view.ID, "self")
	view, _ = f.ToggleSeat(view.ID, "A1")

	f.expire(view.ID)

	after, err := f.View(view.ID)
	if err != nil {
		t.Fatalf("view after expiry: %v", err)
	}
	if !after.HoldExpired {
		t.Fatalf("expiry must be surfaced to the user")
	}
	if after.Stage != StageBookingFor || after.Current != 0 {
		t.Fatalf("expiry must rewind to booking-for of passenger 1: %+v", after)
	}
	if after.Slots[0].OutboundSeat != "" || after.HoldToken != "" {
		t.Fatalf("selections must be cleared on expiry: %+v", after)
	}
	if len(registry.Occupancy(100)) != 0 {
		t.Fatalf("expired hold seats must be released server-side")
	}

	// Restarting clears the notice.
	restarted, err := f.BookingFor(view.ID, "self")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if restarted.HoldExpired {
		t.Fatalf("restart should clear the expiry notice")
	}
}

func TestReturnLegExpiryRestartsOutbound(t *testing.T) {
	f, registry := testFlow(t)
	view, _ := f.Create(1, 100, 1, true)
	view, _ = f.BookingFor(view.ID, "self")
	view, _ = f.ToggleSeat(view.ID, "A1")
	f.Continue(view.ID)
	view, _ = f.SelectReturnTrip(view.ID, 200)
	view, err := f.ToggleSeat(view.ID, "B3")
	if err != nil {
		t.Fatalf("toggle return seat: %v", err)
	}

	f.expire(view.ID)

	after, err := f.View(view.ID)
	if err != nil {
		t.Fatalf("view after expiry: %v", err)
	}
	if after.Leg != LegOutbound || after.Stage != StageBookingFor || after.ReturnTripID != 0 {
		t.Fatalf("return-leg expiry must restart the outbound leg: %+v", after)
	}
	if after.Slots[0].OutboundSeat != "" || after.Slots[0].ReturnSeat != "" || after.HoldToken != "" {
		t.Fatalf("selections must be cleared on expiry: %+v", after)
	}
	if len(registry.Occupancy(100)) != 0 || len(registry.Occupancy(200)) != 0 {
		t.Fatalf("expired seats must be released on both legs")
	}

	// The restarted flow runs through the return search again; it never
	// jumps to a summary over a half-empty selection.
	view, err = f.BookingFor(view.ID, "self")
	if err != nil {
		t.Fatalf("restart booking-for: %v", err)
	}
	view, err = f.ToggleSeat(view.ID, "A1")
	if err != nil {
		t.Fatalf("restart toggle: %v", err)
	}
	if view.HoldExpiresAt == nil {
		t.Fatalf("restarted hold must carry a fresh expiry")
	}
	res, err := f.Continue(view.ID)
	if err != nil {
		t.Fatalf("restart continue: %v", err)
	}
	if res.Kind != "return-search" {
		t.Fatalf("restart must branch into return search, got %q", res.Kind)
	}
}

func TestContinueRefusesSummaryWithIncompleteSeats(t *testing.T) {
	f, _ := testFlow(t)
	view, _ := f.Create(1, 100, 1, true)
	view, _ = f.BookingFor(view.ID, "self")
	view, _ = f.ToggleSeat(view.ID, "A1")
	f.Continue(view.ID)
	view, _ = f.SelectReturnTrip(view.ID, 200)
	view, _ = f.ToggleSeat(view.ID, "B3")

	f.mu.Lock()
	f.sessions[view.ID].Slots[0].OutboundSeat = ""
	f.mu.Unlock()

	if _, err := f.Continue(view.ID); !domain.IsConflict(err) {
		t.Fatalf("summary over missing outbound seats must be refused: %v", err)
	}
}

func TestSweepExpiredRewindsStaleSessions(t *testing.T) {
	f, registry := testFlow(t)
	view, _ := f.Create(1, 100, 1, false)
	view, _ = f.BookingFor(view.ID, "self")
	view, _ = f.ToggleSeat(view.ID, "A1")

	// Simulate a lost countdown: the deadline passed but nothing fired.
	f.mu.Lock()
	s := f.sessions[view.ID]
	s.countdown.Stop()
	s.countdown = nil
	s.HoldExpiresAt = time.Now().Add(-time.Second)
	f.mu.Unlock()

	if n := f.SweepExpired(); n != 1 {
		t.Fatalf("swept %d sessions, want 1", n)
	}
	if n := f.SweepExpired(); n != 0 {
		t.Fatalf("second sweep must be a no-op, rewound %d", n)
	}

	after, err := f.View(view.ID)
	if err != nil {
		t.Fatalf("view after sweep: %v", err)
	}
	if !after.HoldExpired || after.Stage != StageBookingFor {
		t.Fatalf("swept session must be rewound: %+v", after)
	}
	if len(registry.Occupancy(100)) != 0 {
		t.Fatalf("swept session's seats must be released")
	}
}

func TestToggleRejectsSeatOutsideLayout(t *testing.T) {
	f, registry := testFlow(t)
	view, _ := f.Create(1, 100, 1, false)
	view, _ = f.BookingFor(view.ID, "self")

	if _, err := f.ToggleSeat(view.ID, "Z99"); !domain.IsValidation(err) {
		t.Fatalf("seat outside the coach layout must be rejected: %v", err)
	}
	if len(registry.Occupancy(100)) != 0 {
		t.Fatalf("rejected seat must not be held")
	}
}

func TestCreateRejectsOversubscription(t *testing.T) {
	f, _ := testFlow(t)
	if _, err := f.Create(1, 100, 45, false); !domain.IsConflict(err) {
		t.Fatalf("expected conflict for oversubscribed trip, got %v", err)
	}
	if _, err := f.Create(1, 100, 0, false); !domain.IsValidation(err) {
		t.Fatalf("expected validation for zero passengers, got %v", err)
	}
}
