package tickets

import (
	"testing"
	"time"

	"fasobus/internal/domain"
	"fasobus/internal/domain/models"
)

func TestServiceOverMemRepo(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.Local)
	svc := Service{Repo: NewMemRepo(), Now: func() time.Time { return now }}
	trip := models.Trip{
		ID: 100, Operator: "Rakieta",
		FromStation: "Ouagadougou", ToStation: "Bobo-Dioulasso",
		TripDate: "2026-04-01", TripTime: "16:00",
		PricePerSeat: 7500, SeatCount: 44,
	}

	issued, err := svc.Issue(1, trip, []string{"A1", "A2"}, []models.PassengerInfo{
		{Name: "Awa Kaboré", Phone: "70123456"},
		{Name: "Idrissa Sawadogo"},
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(issued) != 2 || issued[0].Status != models.TicketHold || !issued[0].CanCancel {
		t.Fatalf("unexpected issued tickets: %+v", issued)
	}

	list, err := svc.List(1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list = %d tickets, want 2", len(list))
	}
	other, err := svc.List(2)
	if err != nil || len(other) != 0 {
		t.Fatalf("other user's list = %v, %v", other, err)
	}

	if _, err := svc.Get(2, issued[0].ID); !domain.IsNotFound(err) {
		t.Fatalf("foreign ticket must read as not found: %v", err)
	}

	if err := svc.Cancel(1, issued[0].ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := svc.Cancel(1, issued[0].ID); !domain.IsConflict(err) {
		t.Fatalf("second cancel must conflict: %v", err)
	}
	after, err := svc.Get(1, issued[0].ID)
	if err != nil {
		t.Fatalf("get after cancel: %v", err)
	}
	if after.Status != models.TicketCancelled {
		t.Fatalf("status = %s, want %s", after.Status, models.TicketCancelled)
	}
}
