package tickets

import (
	"database/sql"

	"fasobus/internal/domain"
	"fasobus/internal/domain/models"
)

const ticketColumns = `
	id, user_id, trip_id, COALESCE(segment_id, 0),
	seat_code, passenger_name, COALESCE(passenger_phone, ''),
	status, code, COALESCE(qr_code, ''),
	route_from, route_to, trip_date, trip_time,
	COALESCE(operator, ''), price_paid`

type Repo struct {
	DB *sql.DB
}

func (r Repo) Insert(t models.Ticket) (int64, error) {
	res, err := r.DB.Exec(`
		INSERT INTO tickets
			(user_id, trip_id, segment_id, seat_code, passenger_name, passenger_phone,
			 status, code, qr_code, route_from, route_to, trip_date, trip_time, operator, price_paid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.UserID, t.TripID, t.SegmentID, t.SeatCode, t.PassengerName, t.PassengerPhone,
		t.Status, t.Code, t.QRCode, t.RouteFrom, t.RouteTo, t.TripDate, t.TripTime, t.Operator, t.PricePaid,
	)
	if err != nil {
		return 0, domain.InternalError{Msg: "ticket insert failed", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.InternalError{Msg: "ticket insert id failed", Err: err}
	}
	return id, nil
}

func (r Repo) GetByID(id int64) (models.Ticket, error) {
	row := r.DB.QueryRow(`SELECT `+ticketColumns+` FROM tickets WHERE id = ? LIMIT 1`, id)
	t, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return models.Ticket{}, domain.NotFoundError{Resource: "ticket"}
	}
	if err != nil {
		return models.Ticket{}, domain.InternalError{Msg: "ticket read failed", Err: err}
	}
	return t, nil
}

func (r Repo) ListByUser(userID int64) ([]models.Ticket, error) {
	rows, err := r.DB.Query(`
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE user_id = ?
		ORDER BY trip_date DESC, trip_time DESC, id DESC
	`, userID)
	if err != nil {
		return nil, domain.InternalError{Msg: "ticket list failed", Err: err}
	}
	defer rows.Close()

	out := []models.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, domain.InternalError{Msg: "ticket scan failed", Err: err}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.InternalError{Msg: "ticket rows failed", Err: err}
	}
	return out, nil
}

func (r Repo) UpdateStatus(id int64, status string) error {
	res, err := r.DB.Exec(`UPDATE tickets SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return domain.InternalError{Msg: "ticket status update failed", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundError{Resource: "ticket"}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (models.Ticket, error) {
	var t models.Ticket
	err := row.Scan(
		&t.ID, &t.UserID, &t.TripID, &t.SegmentID,
		&t.SeatCode, &t.PassengerName, &t.PassengerPhone,
		&t.Status, &t.Code, &t.QRCode,
		&t.RouteFrom, &t.RouteTo, &t.TripDate, &t.TripTime,
		&t.Operator, &t.PricePaid,
	)
	return t, err
}
