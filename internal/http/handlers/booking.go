package handlers

import (
	"net/http"

	"fasobus/internal/http/middleware"
	"fasobus/internal/seatmap"

	"github.com/gin-gonic/gin"
)

type createSessionRequest struct {
	TripID         int64 `json:"trip_id"`
	PassengerCount int   `json:"passenger_count"`
	RoundTrip      bool  `json:"round_trip"`
}

// POST /api/booking/sessions
func (a API) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	view, err := a.Flow.Create(middleware.GetUserID(c), req.TripID, req.PassengerCount, req.RoundTrip)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": view})
}

// GET /api/booking/sessions/:id
func (a API) GetSession(c *gin.Context) {
	view, err := a.Flow.View(c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": view})
}

type bookingForRequest struct {
	BookingFor string `json:"booking_for"`
}

// POST /api/booking/sessions/:id/booking-for
func (a API) SessionBookingFor(c *gin.Context) {
	var req bookingForRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	view, err := a.Flow.BookingFor(c.Param("id"), req.BookingFor)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": view})
}

type passengerInfoRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// POST /api/booking/sessions/:id/passenger-info
func (a API) SessionPassengerInfo(c *gin.Context) {
	var req passengerInfoRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	view, err := a.Flow.PassengerInfo(c.Param("id"), req.Name, req.Phone)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": view})
}

type toggleSeatRequest struct {
	SeatID string `json:"seat_id"`
}

// POST /api/booking/sessions/:id/seats/toggle
func (a API) SessionToggleSeat(c *gin.Context) {
	var req toggleSeatRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	view, err := a.Flow.ToggleSeat(c.Param("id"), req.SeatID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": view})
}

// GET /api/booking/sessions/:id/seats
//
// The session's view of the seat map: registry occupancy overlaid with the
// session's own picks.
func (a API) SessionSeats(c *gin.Context) {
	sessionID := c.Param("id")
	tripID, occupied, err := a.Flow.Occupancy(sessionID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	trip, err := a.Trips.Get(tripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	layout := trip.LayoutOrDefault()
	c.JSON(http.StatusOK, gin.H{
		"trip_id":        tripID,
		"layout":         layout,
		"occupied_seats": occupied,
		"grid":           seatmap.BuildGrid(layout, occupied),
	})
}

// POST /api/booking/sessions/:id/continue
func (a API) SessionContinue(c *gin.Context) {
	result, err := a.Flow.Continue(c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

type returnTripRequest struct {
	TripID int64 `json:"trip_id"`
}

// POST /api/booking/sessions/:id/return-trip
func (a API) SessionReturnTrip(c *gin.Context) {
	var req returnTripRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	view, err := a.Flow.SelectReturnTrip(c.Param("id"), req.TripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": view})
}

// DELETE /api/booking/sessions/:id
func (a API) ReleaseSession(c *gin.Context) {
	a.Flow.Release(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"released": true})
}
