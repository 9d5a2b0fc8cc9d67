package realtime

import (
	"encoding/json"
	"testing"

	"fasobus/internal/domain/models"
	"fasobus/internal/holds"
)

func TestBroadcastReachesOnlySubscribedTrip(t *testing.T) {
	h := NewHub()
	a := &Client{ID: "a", Send: make(chan []byte, 1)}
	b := &Client{ID: "b", Send: make(chan []byte, 1)}
	h.Register(a)
	h.Register(b)
	h.Subscribe(a, 100)
	h.Subscribe(b, 200)

	h.BroadcastSeatChange(holds.ChangeEvent{
		TripID: 100,
		Seats:  map[string]models.SeatStatus{"A1": models.SeatHold},
	})

	select {
	case payload := <-a.Send:
		var ev seatEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.Type != "seat_change" || ev.TripID != 100 {
			t.Fatalf("event = %+v", ev)
		}
		if ev.Seats["A1"] != models.SeatHold {
			t.Fatalf("seat map = %v", ev.Seats)
		}
	default:
		t.Fatalf("subscribed client got nothing")
	}
	select {
	case <-b.Send:
		t.Fatalf("other trip's client must not receive the event")
	default:
	}
}

func TestSlowClientDropsMessageNotStream(t *testing.T) {
	h := NewHub()
	c := &Client{ID: "c", Send: make(chan []byte, 1)}
	h.Register(c)
	h.Subscribe(c, 100)

	ev := holds.ChangeEvent{TripID: 100, Seats: map[string]models.SeatStatus{"A1": models.SeatHold}}
	h.BroadcastSeatChange(ev) // fills the buffer
	h.BroadcastSeatChange(ev) // dropped, must not block

	if len(c.Send) != 1 {
		t.Fatalf("buffered = %d, want 1", len(c.Send))
	}
}

func TestParseSubscribe(t *testing.T) {
	if _, ok := ParseSubscribe([]byte(`{"action":"ping"}`)); ok {
		t.Fatalf("unknown action accepted")
	}
	if _, ok := ParseSubscribe([]byte(`not json`)); ok {
		t.Fatalf("garbage accepted")
	}
	msg, ok := ParseSubscribe([]byte(`{"action":"subscribe","trip_id":100}`))
	if !ok || msg.TripID != 100 {
		t.Fatalf("subscribe not parsed: %+v %v", msg, ok)
	}
}
