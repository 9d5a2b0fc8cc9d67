// Package handlers exposes the booking service over HTTP. Handlers stay
// thin: bind, call into the domain packages, map errors.
package handlers

import (
	"fasobus/internal/booking"
	"fasobus/internal/config"
	"fasobus/internal/holds"
	"fasobus/internal/tickets"
	"fasobus/internal/trips"
)

// API bundles the wired dependencies behind every route.
type API struct {
	Env     config.Env
	Trips   trips.Source
	Flow    *booking.Flow
	Holds   *holds.Registry
	Tickets tickets.Service
}
