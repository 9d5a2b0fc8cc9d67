package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"fasobus/internal/domain"
	"fasobus/internal/seatmap"
	intrips "fasobus/internal/trips"

	"github.com/gin-gonic/gin"
)

// GET /api/stations
func (a API) Stations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stations": intrips.Stations()})
}

// GET /api/trips?from=&to=&date=&operator=
func (a API) SearchTrips(c *gin.Context) {
	list, err := a.Trips.Search(
		c.Query("from"),
		c.Query("to"),
		c.Query("date"),
		c.Query("operator"),
	)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": list})
}

// GET /api/trips/:id
func (a API) GetTrip(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid trip id")
		return
	}
	trip, err := a.Trips.Get(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// GET /api/trips/:id/seats
//
// Returns the layout, the authoritative occupancy and the rendered grid in
// one payload, so a client never composes seat state from two fetches.
func (a API) TripSeats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid trip id")
		return
	}
	trip, err := a.Trips.Get(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	layout := trip.LayoutOrDefault()
	occupied := a.Holds.Occupancy(id)
	c.JSON(http.StatusOK, gin.H{
		"trip_id":        trip.ID,
		"layout":         layout,
		"occupied_seats": occupied,
		"grid":           seatmap.BuildGrid(layout, occupied),
	})
}

type offlineSeatsRequest struct {
	Seats []string `json:"seats"`
}

// POST /api/trips/:id/seats/offline
//
// Records counter sales. Station agents sell seats at the desk; this is
// how those seats reach the online seat map, rendered occupied but
// distinguishable from holds.
func (a API) MarkOfflineSeats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid trip id")
		return
	}
	trip, err := a.Trips.Get(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	var req offlineSeatsRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if len(req.Seats) == 0 {
		RespondDomainError(c, domain.ValidationError{Field: "seats", Msg: "at least one seat is required"})
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

	a.Holds.MarkOfflineReserved(id, req.Seats)
	c.JSON(http.StatusOK, gin.H{
		"trip_id":        id,
		"occupied_seats": a.Holds.Occupancy(id),
	})
}
