package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"fasobus/internal/booking"
	intconfig "fasobus/internal/config"
	"fasobus/internal/domain"
	"fasobus/internal/domain/models"
	"fasobus/internal/holds"
	h "fasobus/internal/http/handlers"
	"fasobus/internal/tickets"
)

func testRouter(t *testing.T) (*gin.Engine, intconfig.Env) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := intconfig.Env{
		DataMode:  "mock",
		JWTSecret: "test-secret",
		HoldTTL:   10 * time.Minute,
	}
	source := newStubSource()
	registry := holds.NewRegistry(env.HoldTTL)
	flow := booking.NewFlow(source, registry, func(int64) (string, string, error) {
		return "Awa Kabore", "70123456", nil
	})
	a := h.API{
		Env:     env,
		Trips:   source,
		Flow:    flow,
		Holds:   registry,
		Tickets: tickets.Service{Repo: tickets.NewMemRepo()},
	}
	return NewRouter(env, a, nil), env
}

type stubSource struct {
	trips map[int64]models.Trip
}

func newStubSource() stubSource {
	return stubSource{trips: map[int64]models.Trip{
		100: {
			ID: 100, Operator: "Rakieta",
			FromStation: "Ouagadougou", ToStation: "Bobo-Dioulasso",
			TripDate: "2026-05-10", TripTime: "06:30",
			PricePerSeat: 7500, SeatCount: 44,
		},
	}}
}

func (s stubSource) Search(from, to, date, operator string) ([]models.Trip, error) {
	out := []models.Trip{}
	for _, trip := range s.trips {
		out = append(out, trip)
	}
	return out, nil
}

func (s stubSource) Get(id int64) (models.Trip, error) {
	trip, ok := s.trips[id]
	if !ok {
		return models.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	return trip, nil
}

func bearer(t *testing.T, secret string, userID int64) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func doJSON(r *gin.Engine, method, path, auth string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	r, _ := testRouter(t)
	rec := doJSON(r, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTripSeatsIncludesGrid(t *testing.T) {
	r, _ := testRouter(t)
	rec := doJSON(r, http.MethodGet, "/api/trips/100/seats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		TripID int64          `json:"trip_id"`
		Grid   [][]any        `json:"grid"`
		Layout map[string]any `json:"layout"`
		Occ    map[string]any `json:"occupied_seats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TripID != 100 || len(resp.Grid) == 0 {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
}

func TestReserveRequiresAuth(t *testing.T) {
	r, _ := testRouter(t)
	rec := doJSON(r, http.MethodPost, "/api/tickets/reserve", "", gin.H{
		"trip_id": 100, "seats": []string{"A1"},
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestReserveReturnsServerExpiry(t *testing.T) {
	r, env := testRouter(t)
	auth := bearer(t, env.JWTSecret, 1)

	rec := doJSON(r, http.MethodPost, "/api/tickets/reserve", auth, gin.H{
		"trip_id": 100, "seats": []string{"A1", "A2"}, "idempotency_key": "k1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Hold struct {
			Token     string    `json:"hold_token"`
			ExpiresAt time.Time `json:"hold_expires_at"`
		} `json:"hold"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Hold.Token == "" || !resp.Hold.ExpiresAt.After(time.Now()) {
		t.Fatalf("missing server expiry: %s", rec.Body.String())
	}

	// Same seats under a different key conflict.
	rec = doJSON(r, http.MethodPost, "/api/tickets/reserve", auth, gin.H{
		"trip_id": 100, "seats": []string{"A2"}, "idempotency_key": "k2",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestBookingSessionOverHTTP(t *testing.T) {
	r, env := testRouter(t)
	auth := bearer(t, env.JWTSecret, 1)

	rec := doJSON(r, http.MethodPost, "/api/booking/sessions", auth, gin.H{
		"trip_id": 100, "passenger_count": 1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := created.Session.ID

	rec = doJSON(r, http.MethodPost, "/api/booking/sessions/"+id+"/booking-for", auth, gin.H{"booking_for": "self"})
	if rec.Code != http.StatusOK {
		t.Fatalf("booking-for status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(r, http.MethodPost, "/api/booking/sessions/"+id+"/seats/toggle", auth, gin.H{"seat_id": "B3"})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(r, http.MethodPost, "/api/booking/sessions/"+id+"/continue", auth, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("continue status = %d body = %s", rec.Code, rec.Body.String())
	}
	var cont struct {
		Result struct {
			Kind    string `json:"kind"`
			Summary *struct {
				Total int64 `json:"total"`
			} `json:"summary"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &cont); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cont.Result.Kind != "summary" || cont.Result.Summary == nil || cont.Result.Summary.Total != 7500 {
		t.Fatalf("unexpected continue result: %s", rec.Body.String())
	}
}

func TestMyTicketsEmptyBeforeAnyBooking(t *testing.T) {
	r, env := testRouter(t)
	auth := bearer(t, env.JWTSecret, 1)

	rec := doJSON(r, http.MethodGet, "/api/users/me/tickets", auth, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var list []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty ticket list, got %s", rec.Body.String())
	}
}

func TestConfirmIssuesTicketsInMockWiring(t *testing.T) {
	r, env := testRouter(t)
	auth := bearer(t, env.JWTSecret, 1)

	rec := doJSON(r, http.MethodPost, "/api/tickets/reserve", auth, gin.H{
		"trip_id": 100, "seats": []string{"A1"}, "idempotency_key": "confirm-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("reserve status = %d body = %s", rec.Code, rec.Body.String())
	}
	var reserved struct {
		Hold struct {
			Token string `json:"hold_token"`
		} `json:"hold"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &reserved); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(r, http.MethodPost, "/api/tickets/confirm", auth, gin.H{
		"hold_token": reserved.Hold.Token,
		"passengers": []gin.H{{"name": "Awa Kabore", "phone": "70123456"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d body = %s", rec.Code, rec.Body.String())
	}
	var confirmed struct {
		Tickets []struct {
			SeatCode string `json:"seat_code"`
			Status   string `json:"status"`
		} `json:"tickets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &confirmed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(confirmed.Tickets) != 1 || confirmed.Tickets[0].SeatCode != "A1" {
		t.Fatalf("unexpected issued tickets: %s", rec.Body.String())
	}

	rec = doJSON(r, http.MethodGet, "/api/users/me/tickets", auth, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d body = %s", rec.Code, rec.Body.String())
	}
	var list []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 ticket after confirm, got %s", rec.Body.String())
	}
}

func TestReserveRejectsSeatOutsideLayout(t *testing.T) {
	r, env := testRouter(t)
	auth := bearer(t, env.JWTSecret, 1)

	rec := doJSON(r, http.MethodPost, "/api/tickets/reserve", auth, gin.H{
		"trip_id": 100, "seats": []string{"Z99"}, "idempotency_key": "bad-seat",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
}

func TestReserveIdempotencyKeyHeaderWins(t *testing.T) {
	r, env := testRouter(t)
	auth := bearer(t, env.JWTSecret, 1)

	send := func(bodyKey string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		_ = json.NewEncoder(&buf).Encode(gin.H{
			"trip_id": 100, "seats": []string{"C4"}, "idempotency_key": bodyKey,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/tickets/reserve", &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", auth)
		req.Header.Set("Idempotency-Key", "header-key")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	token := func(rec *httptest.ResponseRecorder) string {
		var resp struct {
			Hold struct {
				Token string `json:"hold_token"`
			} `json:"hold"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp.Hold.Token
	}

	first := send("body-key-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("first reserve status = %d body = %s", first.Code, first.Body.String())
	}
	second := send("body-key-2")
	if second.Code != http.StatusCreated {
		t.Fatalf("second reserve status = %d body = %s", second.Code, second.Body.String())
	}
	if token(first) != token(second) {
		t.Fatalf("header key must override the body key and replay the hold")
	}
}

func TestOfflineSeatsShowInOccupancy(t *testing.T) {
	r, env := testRouter(t)
	auth := bearer(t, env.JWTSecret, 1)

	rec := doJSON(r, http.MethodPost, "/api/trips/100/seats/offline", auth, gin.H{
		"seats": []string{"C1"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(r, http.MethodGet, "/api/trips/100/seats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("seats status = %d", rec.Code)
	}
	var resp struct {
		Occ map[string]string `json:"occupied_seats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Occ["C1"] != string(models.SeatOfflineReserved) {
		t.Fatalf("C1 = %q, want %q", resp.Occ["C1"], models.SeatOfflineReserved)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	r, _ := testRouter(t)
	rec := doJSON(r, http.MethodGet, "/api/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
