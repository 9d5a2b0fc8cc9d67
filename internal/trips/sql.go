package trips

import (
	"database/sql"
	"strings"
	"time"

	"fasobus/internal/domain"
	"fasobus/internal/domain/models"
)

// SQLSource reads the operator-maintained schedule from MySQL.
type SQLSource struct {
	DB *sql.DB
}

const tripColumns = `id, operator, from_station, to_station, trip_date, trip_time,
	       price_per_seat, seat_count,
	       COALESCE(layout_rows,0), COALESCE(layout_cols,0),
	       COALESCE(layout_aisle_after,0), COALESCE(layout_labels,'')`

func (s SQLSource) Search(from, to, date, operator string) ([]models.Trip, error) {
	fromDisplay, _, toDisplay, _, err := resolvePair(from, to)
	if err != nil {
		return nil, err
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(date)); err != nil {
		return nil, domain.ValidationError{Field: "date", Msg: "format must be YYYY-MM-DD"}
	}

	rows, err := s.DB.Query(`
		SELECT `+tripColumns+`
		FROM trips
		WHERE from_station = ? AND to_station = ? AND trip_date = ?
		ORDER BY trip_time ASC, id ASC
	`, fromDisplay, toDisplay, strings.TrimSpace(date))
	if err != nil {
		return nil, domain.InternalError{Msg: "trip search failed", Err: err}
	}
	defer rows.Close()

	var out []models.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, domain.InternalError{Msg: "trip scan failed", Err: err}
		}
		if !matchesOperator(trip, operator) {
			continue
		}
		out = append(out, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.InternalError{Msg: "trip rows failed", Err: err}
	}

	for i := range out {
		segments, err := s.segments(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Segments = segments
	}
	if out == nil {
		out = []models.Trip{}
	}
	return out, nil
}

func (s SQLSource) Get(id int64) (models.Trip, error) {
	row := s.DB.QueryRow(`
		SELECT `+tripColumns+`
		FROM trips
		WHERE id = ?
	`, id)

	trip, err := scanTrip(row)
	if err == sql.ErrNoRows {
		return models.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	if err != nil {
		return models.Trip{}, domain.InternalError{Msg: "trip lookup failed", Err: err}
	}

	segments, err := s.segments(id)
	if err != nil {
		return models.Trip{}, err
	}
	trip.Segments = segments
	return trip, nil
}

func (s SQLSource) segments(tripID int64) ([]models.Segment, error) {
	rows, err := s.DB.Query(`
		SELECT id, trip_id, from_station, to_station, departure_time, available_seats
		FROM trip_segments
		WHERE trip_id = ?
		ORDER BY id ASC
	`, tripID)
	if err != nil {
		return nil, domain.InternalError{Msg: "segment query failed", Err: err}
	}
	defer rows.Close()

	var out []models.Segment
	for rows.Next() {
		var seg models.Segment
		if err := rows.Scan(&seg.ID, &seg.TripID, &seg.FromStation, &seg.ToStation, &seg.DepartureTime, &seg.AvailableSeats); err != nil {
			return nil, domain.InternalError{Msg: "segment scan failed", Err: err}
		}
		out = append(out, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.InternalError{Msg: "segment rows failed", Err: err}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (models.Trip, error) {
	var (
		t          models.Trip
		rowsN      int
		colsN      int
		aisleAfter int
		labels     string
	)
	if err := row.Scan(
		&t.ID, &t.Operator, &t.FromStation, &t.ToStation, &t.TripDate, &t.TripTime,
		&t.PricePerSeat, &t.SeatCount,
		&rowsN, &colsN, &aisleAfter, &labels,
	); err != nil {
		return t, err
	}
	if rowsN > 0 && colsN > 0 {
		layout := models.SeatLayout{Rows: rowsN, Cols: colsN, AisleAfterCol: aisleAfter}
		if labels = strings.TrimSpace(labels); labels != "" {
			layout.ColumnLabels = strings.Split(labels, ",")
		}
		t.Layout = &layout
	}
	return t, nil
}
