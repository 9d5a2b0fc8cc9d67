package tickets

import (
	"sort"
	"sync"

	"fasobus/internal/domain"
	"fasobus/internal/domain/models"
)

// MemRepo keeps tickets in memory. The mock data mode runs the full
// issue/list/cancel cycle against it, so demo sessions behave like live
// ones without a database.
type MemRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]models.Ticket
}

func NewMemRepo() *MemRepo {
	return &MemRepo{nextID: 1, byID: make(map[int64]models.Ticket)}
}

func (m *MemRepo) Insert(t models.Ticket) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t.ID = m.nextID
	m.nextID++
	m.byID[t.ID] = t
	return t.ID, nil
}

func (m *MemRepo) GetByID(id int64) (models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.byID[id]
	if !ok {
		return models.Ticket{}, domain.NotFoundError{Resource: "ticket"}
	}
	return t, nil
}

func (m *MemRepo) ListByUser(userID int64) ([]models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Ticket{}
	for _, t := range m.byID {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	// Newest first, matching the SQL ordering.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemRepo) UpdateStatus(id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.byID[id]
	if !ok {
		return domain.NotFoundError{Resource: "ticket"}
	}
	t.Status = status
	m.byID[id] = t
	return nil
}
