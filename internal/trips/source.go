// Package trips supplies trip search and lookup. Source has one mock and
// one SQL-backed implementation; main picks one at composition time so no
// call site ever branches on the data mode.
package trips

import (
	"strings"

	"fasobus/internal/domain"
	"fasobus/internal/domain/models"
)

type Source interface {
	// Search returns the trips serving from→to on a YYYY-MM-DD date,
	// ordered by departure time. Optional operator narrows the result
	// (used for return-leg searches).
	Search(from, to, date, operator string) ([]models.Trip, error)
	// Get returns one trip by id.
	Get(id int64) (models.Trip, error)
}

// resolvePair canonicalizes a search pair or reports which side failed.
func resolvePair(from, to string) (fromDisplay, fromKey, toDisplay, toKey string, err error) {
	fromDisplay, fromKey, ok := CanonicalStation(from)
	if !ok {
		return "", "", "", "", domain.ValidationError{Field: "from", Msg: "origin not supported"}
	}
	toDisplay, toKey, ok = CanonicalStation(to)
	if !ok {
		return "", "", "", "", domain.ValidationError{Field: "to", Msg: "destination not supported"}
	}
	if fromKey == toKey {
		return "", "", "", "", domain.ValidationError{Field: "to", Msg: "origin and destination must differ"}
	}
	return fromDisplay, fromKey, toDisplay, toKey, nil
}

func matchesOperator(trip models.Trip, operator string) bool {
	operator = strings.TrimSpace(operator)
	return operator == "" || strings.EqualFold(trip.Operator, operator)
}
