package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"fasobus/internal/domain"
	"fasobus/internal/domain/models"
	"fasobus/internal/http/middleware"
	"fasobus/internal/seatmap"
	"fasobus/internal/utils"

	"github.com/gin-gonic/gin"
)

type reserveRequest struct {
	TripID         int64    `json:"trip_id"`
	Seats          []string `json:"seats"`
	IdempotencyKey string   `json:"idempotency_key"`
}

// POST /api/tickets/reserve
//
// Places the server-side hold. The expiry in the response is the only
// deadline that counts; clients render it, they never extend it.
func (a API) Reserve(c *gin.Context) {
	var req reserveRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	trip, err := a.Trips.Get(req.TripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	layout := trip.LayoutOrDefault()
	for _, seat := range req.Seats {
		code := strings.ToUpper(strings.TrimSpace(seat))
		if code != "" && !seatmap.HasSeat(layout, code) {
			RespondDomainError(c, domain.ValidationError{Field: "seats", Msg: code + " is not in this coach's layout"})
			return
		}
	}

	// The header wins over the body copy of the key.
	idemKey := utils.FirstNonEmpty(c.GetHeader("Idempotency-Key"), req.IdempotencyKey)

	hold, err := a.Holds.Create(req.TripID, req.Seats, idemKey)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"hold": hold})
}

type confirmRequest struct {
	HoldToken  string                 `json:"hold_token"`
	Passengers []models.PassengerInfo `json:"passengers"`
}

// POST /api/tickets/confirm
//
// Converts a live hold into HOLD tickets, one per seat.
func (a API) Confirm(c *gin.Context) {
	var req confirmRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	hold, err := a.Holds.Confirm(req.HoldToken)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	trip, err := a.Trips.Get(hold.TripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	issued, err := a.Tickets.Issue(middleware.GetUserID(c), trip, hold.Seats, req.Passengers)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hold": hold, "tickets": issued})
}

// GET /api/users/me/tickets
func (a API) MyTickets(c *gin.Context) {
	list, err := a.Tickets.List(middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/tickets/:id
func (a API) GetTicket(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid ticket id")
		return
	}
	t, err := a.Tickets.Get(middleware.GetUserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": t})
}

// GET /api/tickets/:id/pdf
func (a API) TicketPDF(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid ticket id")
		return
	}
	blob, filename, err := a.Tickets.ETicketPDF(middleware.GetUserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", blob)
}

// DELETE /api/tickets/:id
func (a API) CancelTicket(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid ticket id")
		return
	}
	if err := a.Tickets.Cancel(middleware.GetUserID(c), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}
