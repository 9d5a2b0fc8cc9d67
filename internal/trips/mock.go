package trips

import (
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"fasobus/internal/domain"
	"fasobus/internal/domain/models"
)

var mockDepartures = []struct {
	Time     string
	Operator string
}{
	{"06:30", "Rakieta"},
	{"09:00", "TSR"},
	{"12:30", "STAF"},
	{"16:00", "TCV"},
}

// MockSource fabricates a deterministic daily schedule for every served
// station pair. Trips returned from Search are remembered so Get can
// resolve them later in the booking flow.
type MockSource struct {
	mu   sync.Mutex
	byID map[int64]models.Trip
}

func NewMockSource() *MockSource {
	return &MockSource{byID: make(map[int64]models.Trip)}
}

func (m *MockSource) Search(from, to, date, operator string) ([]models.Trip, error) {
	fromDisplay, fromKey, toDisplay, toKey, err := resolvePair(from, to)
	if err != nil {
		return nil, err
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(date)); err != nil {
		return nil, domain.ValidationError{Field: "date", Msg: "format must be YYYY-MM-DD"}
	}

	fare := FarePerSeat(fromKey, toKey)
	if fare == 0 {
		return []models.Trip{}, nil
	}

	date = strings.TrimSpace(date)
	out := make([]models.Trip, 0, len(mockDepartures))

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, dep := range mockDepartures {
		trip := models.Trip{
			ID:           mockTripID(fromKey, toKey, date, dep.Time),
			Operator:     dep.Operator,
			FromStation:  fromDisplay,
			ToStation:    toDisplay,
			TripDate:     date,
			TripTime:     dep.Time,
			PricePerSeat: fare,
			SeatCount:    models.DefaultSeatLayout().TotalSeats(),
		}
		trip.Segments = []models.Segment{
			{
				ID:             trip.ID*10 + 1,
				TripID:         trip.ID,
				FromStation:    fromDisplay,
				ToStation:      toDisplay,
				DepartureTime:  dep.Time,
				AvailableSeats: trip.SeatCount,
			},
		}
		m.byID[trip.ID] = trip
		if matchesOperator(trip, operator) {
			out = append(out, trip)
		}
	}
	return out, nil
}

func (m *MockSource) Get(id int64) (models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.byID[id]
	if !ok {
		return models.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	return trip, nil
}

// mockTripID derives a stable positive id from the trip coordinates so the
// same search always yields the same ids.
func mockTripID(fromKey, toKey, date, tm string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fromKey + "|" + toKey + "|" + date + "|" + tm))
	return int64(h.Sum64() & 0x7fffffffffff)
}
