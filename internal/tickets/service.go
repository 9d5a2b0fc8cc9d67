// Package tickets owns the reservation records behind a confirmed hold:
// listing, lookup, cancellation and e-ticket PDF generation.
package tickets

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fasobus/internal/domain"
	"fasobus/internal/domain/models"
	"fasobus/internal/utils"
)

// CancelCutoff is the minimum lead before departure for a cancellation.
const CancelCutoff = time.Hour

// Store is the persistence behind the service. Repo implements it over
// MySQL; MemRepo backs the mock data mode.
type Store interface {
	Insert(t models.Ticket) (int64, error)
	GetByID(id int64) (models.Ticket, error)
	ListByUser(userID int64) ([]models.Ticket, error)
	UpdateStatus(id int64, status string) error
}

type Service struct {
	Repo      Store
	RequestID string
	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func (s Service) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue writes one HOLD ticket per seat of a freshly confirmed hold.
// Passenger infos line up with seats by position; missing entries fall
// back to the first passenger.
func (s Service) Issue(userID int64, trip models.Trip, seats []string, passengers []models.PassengerInfo) ([]models.Ticket, error) {
	if len(seats) == 0 {
		return nil, domain.ValidationError{Field: "seats", Msg: "at least one seat required"}
	}
	out := make([]models.Ticket, 0, len(seats))
	for i, seat := range seats {
		var p models.PassengerInfo
		if i < len(passengers) {
			p = passengers[i]
		} else if len(passengers) > 0 {
			p = passengers[0]
		}
		code := ticketCode(trip.ID, seat)
		t := models.Ticket{
			UserID:         userID,
			TripID:         trip.ID,
			SeatCode:       seat,
			PassengerName:  p.Name,
			PassengerPhone: p.Phone,
			Status:         models.TicketHold,
			Code:           code,
			QRCode:         code,
			RouteFrom:      trip.FromStation,
			RouteTo:        trip.ToStation,
			TripDate:       trip.TripDate,
			TripTime:       trip.TripTime,
			Operator:       trip.Operator,
			PricePaid:      trip.PricePerSeat,
		}
		id, err := s.Repo.Insert(t)
		if err != nil {
			return nil, err
		}
		t.ID = id
		t.CanCancel = s.cancellable(t)
		out = append(out, t)
	}
	utils.LogEvent(s.RequestID, "tickets", "issue", fmt.Sprintf("user_id=%d trip_id=%d seats=%d", userID, trip.ID, len(seats)))
	return out, nil
}

func (s Service) List(userID int64) ([]models.Ticket, error) {
	list, err := s.Repo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].CanCancel = s.cancellable(list[i])
	}
	return list, nil
}

// Get returns a ticket owned by userID. Other users' tickets read as
// not found, never as forbidden.
func (s Service) Get(userID, ticketID int64) (models.Ticket, error) {
	t, err := s.Repo.GetByID(ticketID)
	if err != nil {
		return models.Ticket{}, err
	}
	if t.UserID != userID {
		return models.Ticket{}, domain.NotFoundError{Resource: "ticket"}
	}
	t.CanCancel = s.cancellable(t)
	return t, nil
}

// Cancel voids a ticket when departure is still at least CancelCutoff away.
func (s Service) Cancel(userID, ticketID int64) error {
	t, err := s.Get(userID, ticketID)
	if err != nil {
		return err
	}
	switch t.Status {
	case models.TicketHold, models.TicketPaid:
	case models.TicketCancelled:
		return domain.ConflictError{Resource: "ticket", Msg: "already cancelled"}
	default:
		return domain.ConflictError{Resource: "ticket", Msg: "not cancellable in status " + t.Status}
	}
	if !s.cancellable(t) {
		return domain.ValidationError{Field: "departure", Msg: "cancellation closes 1h before departure"}
	}
	if err := s.Repo.UpdateStatus(ticketID, models.TicketCancelled); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "tickets", "cancel", fmt.Sprintf("ticket_id=%d", ticketID))
	return nil
}

// ETicketPDF renders the printable e-ticket, returning bytes and a
// download filename.
func (s Service) ETicketPDF(userID, ticketID int64) ([]byte, string, error) {
	t, err := s.Get(userID, ticketID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "tickets", "generate_eticket", fmt.Sprintf("ticket_id=%d", ticketID))
	return buildETicketPDF(t)
}

func (s Service) cancellable(t models.Ticket) bool {
	if t.Status != models.TicketHold && t.Status != models.TicketPaid {
		return false
	}
	departure, err := utils.ParseTripDateTime(t.TripDate, t.TripTime)
	if err != nil {
		return false
	}
	return departure.Sub(s.clock()) >= CancelCutoff
}

func ticketCode(tripID int64, seat string) string {
	short := strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
	return fmt.Sprintf("FBX-%d-%s-%s", tripID, seat, short)
}
