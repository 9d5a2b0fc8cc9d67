// Package holds owns the authoritative seat inventory per trip and the
// time-boxed holds placed on it. Clients treat their local selections as
// provisional; this registry decides.
package holds

import (
	"strings"
	"sync"
	"time"

	"fasobus/internal/domain"
	"fasobus/internal/domain/models"

	"github.com/google/uuid"
)

// ChangeEvent describes seat status changes on one trip, for the realtime
// feed.
type ChangeEvent struct {
	TripID int64                        `json:"trip_id"`
	Seats  map[string]models.SeatStatus `json:"seats"`
}

type Registry struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	seats    map[int64]map[string]models.SeatStatus
	holds    map[string]*models.Hold
	byIdem   map[string]string
	onChange func(ChangeEvent)
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:    ttl,
		now:    time.Now,
		seats:  make(map[int64]map[string]models.SeatStatus),
		holds:  make(map[string]*models.Hold),
		byIdem: make(map[string]string),
	}
}

// OnChange registers the single change listener. Must be called before the
// registry is shared between goroutines.
func (r *Registry) OnChange(fn func(ChangeEvent)) {
	r.onChange = fn
}

// TTL reports the configured hold lifetime.
func (r *Registry) TTL() time.Duration { return r.ttl }

// Create places a hold on the given seats. The expiry is chosen here, never
// by the caller. A repeated idempotency key returns the original hold while
// it is still live.
func (r *Registry) Create(tripID int64, seats []string, idemKey string) (models.Hold, error) {
	return r.create(tripID, seats, idemKey, time.Time{})
}

// CreateAt places a hold expiring at a caller-supplied instant. The booking
// flow uses it to link a return-leg hold to the outbound hold's deadline so
// every seat of one booking session shares a single expiry.
func (r *Registry) CreateAt(tripID int64, seats []string, expiresAt time.Time) (models.Hold, error) {
	return r.create(tripID, seats, "", expiresAt)
}

func (r *Registry) create(tripID int64, seats []string, idemKey string, expiresAt time.Time) (models.Hold, error) {
	codes := normalizeSeats(seats)
	if len(codes) == 0 {
		return models.Hold{}, domain.ValidationError{Field: "seats", Msg: "at least one seat is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if idemKey != "" {
		if token, ok := r.byIdem[idemKey]; ok {
			if h, ok := r.holds[token]; ok && !h.Expired(now) {
				return copyHold(*h), nil
			}
		}
	}
	if expiresAt.IsZero() {
		expiresAt = now.Add(r.ttl)
	}
	if !expiresAt.After(now) {
		return models.Hold{}, domain.ExpiredError{Resource: "hold"}
	}

	occ := r.tripSeats(tripID)
	for _, code := range codes {
		if status, ok := occ[code]; ok && status != models.SeatAvailable {
			return models.Hold{}, domain.ConflictError{Resource: "seat", Msg: code + " is not available"}
		}
	}

	h := &models.Hold{
		Token:          uuid.NewString(),
		TripID:         tripID,
		Seats:          codes,
		IdempotencyKey: idemKey,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
	}
	r.holds[h.Token] = h
	if idemKey != "" {
		r.byIdem[idemKey] = h.Token
	}

	changed := map[string]models.SeatStatus{}
	for _, code := range codes {
		occ[code] = models.SeatHold
		changed[code] = models.SeatHold
	}
	r.emit(tripID, changed)

	return copyHold(*h), nil
}

// AddSeat extends a live hold with one more seat; the hold keeps its
// original expiry.
func (r *Registry) AddSeat(token, seat string) (models.Hold, error) {
	code := strings.ToUpper(strings.TrimSpace(seat))
	if code == "" {
		return models.Hold{}, domain.ValidationError{Field: "seat", Msg: "seat is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.liveHold(token)
	if err != nil {
		return models.Hold{}, err
	}

	occ := r.tripSeats(h.TripID)
	if status, ok := occ[code]; ok && status != models.SeatAvailable {
		return models.Hold{}, domain.ConflictError{Resource: "seat", Msg: code + " is not available"}
	}

	h.Seats = append(h.Seats, code)
	occ[code] = models.SeatHold
	r.emit(h.TripID, map[string]models.SeatStatus{code: models.SeatHold})
	return copyHold(*h), nil
}

// RemoveSeat releases one seat from a live hold.
func (r *Registry) RemoveSeat(token, seat string) (models.Hold, error) {
	code := strings.ToUpper(strings.TrimSpace(seat))

	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.liveHold(token)
	if err != nil {
		return models.Hold{}, err
	}

	kept := h.Seats[:0]
	removed := false
	for _, s := range h.Seats {
		if s == code && !removed {
			removed = true
			continue
		}
		kept = append(kept, s)
	}
	h.Seats = kept
	if removed {
		delete(r.tripSeats(h.TripID), code)
		r.emit(h.TripID, map[string]models.SeatStatus{code: models.SeatAvailable})
	}
	return copyHold(*h), nil
}

// Release drops a hold and frees its seats. Releasing an unknown token is a
// no-op.
func (r *Registry) Release(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseLocked(token)
}

// Confirm converts a live hold's seats to paid and retires the hold.
func (r *Registry) Confirm(token string) (models.Hold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.liveHold(token)
	if err != nil {
		return models.Hold{}, err
	}

	occ := r.tripSeats(h.TripID)
	changed := map[string]models.SeatStatus{}
	for _, code := range h.Seats {
		occ[code] = models.SeatPaid
		changed[code] = models.SeatPaid
	}
	out := copyHold(*h)
	delete(r.holds, token)
	if h.IdempotencyKey != "" {
		delete(r.byIdem, h.IdempotencyKey)
	}
	r.emit(h.TripID, changed)
	return out, nil
}

// Get returns a copy of a hold when it exists, expired or not.
func (r *Registry) Get(token string) (models.Hold, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.holds[token]
	if !ok {
		return models.Hold{}, false
	}
	return copyHold(*h), true
}

// Occupancy returns a copy of the non-available seats of a trip.
func (r *Registry) Occupancy(tripID int64) map[string]models.SeatStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := map[string]models.SeatStatus{}
	for code, status := range r.tripSeats(tripID) {
		out[code] = status
	}
	return out
}

// MarkOfflineReserved records seats reserved through an offline/manual
// channel (counter sales). They render occupied but distinguishable.
func (r *Registry) MarkOfflineReserved(tripID int64, seats []string) {
	codes := normalizeSeats(seats)
	if len(codes) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	occ := r.tripSeats(tripID)
	changed := map[string]models.SeatStatus{}
	for _, code := range codes {
		occ[code] = models.SeatOfflineReserved
		changed[code] = models.SeatOfflineReserved
	}
	r.emit(tripID, changed)
}

// Sweep releases every expired hold and returns how many were dropped.
// Meant to run from a janitor ticker.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	dropped := 0
	for token, h := range r.holds {
		if h.Expired(now) {
			r.releaseLocked(token)
			dropped++
		}
	}
	return dropped
}

func (r *Registry) liveHold(token string) (*models.Hold, error) {
	h, ok := r.holds[token]
	if !ok {
		return nil, domain.NotFoundError{Resource: "hold"}
	}
	if h.Expired(r.now()) {
		r.releaseLocked(token)
		return nil, domain.ExpiredError{Resource: "hold"}
	}
	return h, nil
}

func (r *Registry) releaseLocked(token string) {
	h, ok := r.holds[token]
	if !ok {
		return
	}
	delete(r.holds, token)
	if h.IdempotencyKey != "" {
		delete(r.byIdem, h.IdempotencyKey)
	}

	occ := r.tripSeats(h.TripID)
	changed := map[string]models.SeatStatus{}
	for _, code := range h.Seats {
		if occ[code] == models.SeatHold {
			delete(occ, code)
			changed[code] = models.SeatAvailable
		}
	}
	if len(changed) > 0 {
		r.emit(h.TripID, changed)
	}
}

func (r *Registry) tripSeats(tripID int64) map[string]models.SeatStatus {
	occ, ok := r.seats[tripID]
	if !ok {
		occ = map[string]models.SeatStatus{}
		r.seats[tripID] = occ
	}
	return occ
}

func (r *Registry) emit(tripID int64, seats map[string]models.SeatStatus) {
	if r.onChange == nil || len(seats) == 0 {
		return
	}
	r.onChange(ChangeEvent{TripID: tripID, Seats: seats})
}

func copyHold(h models.Hold) models.Hold {
	seats := make([]string, len(h.Seats))
	copy(seats, h.Seats)
	h.Seats = seats
	return h
}

func normalizeSeats(arr []string) []string {
	out := make([]string, 0, len(arr))
	seen := map[string]bool{}
	for _, s := range arr {
		x := strings.ToUpper(strings.TrimSpace(s))
		if x == "" || seen[x] {
			continue
		}
		seen[x] = true
		out = append(out, x)
	}
	return out
}
