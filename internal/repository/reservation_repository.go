package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hotel-front-office/internal/model"
)

// ReservationRepo provides access to the reservations table.  Reservations
// are created by ingestion and are never deleted here; the engine mutates
// only the room_number and updated_at columns, and always through a
// transaction that has first passed the availability check.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// reservationCols lists the selected columns in scan order.  Optional text
// columns are coalesced to empty strings to keep scanning simple; only
// room_number keeps its NULL so "no room assigned yet" stays distinguishable
// from an empty assignment.
const reservationCols = `id, arrival_date, depart_date, room_number,
	COALESCE(room_type_code,''), COALESCE(reservation_no,''), COALESCE(guest_name,''),
	COALESCE(main_client,''), COALESCE(adults,0), COALESCE(children,0),
	COALESCE(total_guests,0), COALESCE(nights,0), COALESCE(meal_plan,''),
	COALESCE(rate_code,''), COALESCE(channel,''), COALESCE(main_remark,''),
	COALESCE(total_remarks,''), COALESCE(contact_name,''), COALESCE(contact_phone,''),
	COALESCE(contact_email,''), COALESCE(reservation_status,'CONFIRMED'),
	COALESCE(created_at,''), COALESCE(updated_at,'')`

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var res model.Reservation
	var room sql.NullString
	err := row.Scan(
		&res.ID, &res.ArrivalDate, &res.DepartDate, &room,
		&res.RoomTypeCode, &res.ReservationNo, &res.GuestName,
		&res.MainClient, &res.Adults, &res.Children,
		&res.TotalGuests, &res.Nights, &res.MealPlan,
		&res.RateCode, &res.Channel, &res.MainRemark,
		&res.TotalRemarks, &res.ContactName, &res.ContactPhone,
		&res.ContactEmail, &res.Status,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if room.Valid && room.String != "" {
		rn := room.String
		res.RoomNumber = &rn
	}
	return &res, nil
}

// InsertBulk appends a batch of validated reservation records inside one
// transaction and returns the number inserted.  This is the ingestion
// interface: records arrive pre-validated (arrival before departure, dates
// present); room numbers, when present, are stored as given and validated
// later by the allocation path.
func (r *ReservationRepo) InsertBulk(ctx context.Context, rows []model.Reservation) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const q = `INSERT INTO reservations (arrival_date, depart_date, room_number,
		room_type_code, reservation_no, guest_name, main_client, adults, children,
		total_guests, nights, meal_plan, rate_code, channel, main_remark,
		total_remarks, contact_name, contact_phone, contact_email,
		reservation_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC().Format(model.TimestampLayout)
	for _, res := range rows {
		status := res.Status
		if status == "" {
			status = "CONFIRMED"
		}
		var room any
		if res.RoomNumber != nil && *res.RoomNumber != "" {
			room = *res.RoomNumber
		}
		if _, err := tx.ExecContext(ctx, q,
			res.ArrivalDate, res.DepartDate, room,
			res.RoomTypeCode, res.ReservationNo, res.GuestName, res.MainClient,
			res.Adults, res.Children, res.TotalGuests, res.Nights,
			res.MealPlan, res.RateCode, res.Channel, res.MainRemark,
			res.TotalRemarks, res.ContactName, res.ContactPhone, res.ContactEmail,
			status, now, now,
		); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return len(rows), nil
}

// GetByID returns a single reservation or sql.ErrNoRows.
func (r *ReservationRepo) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationCols+` FROM reservations WHERE id = ?`, id)
	return scanReservation(row)
}

// GetByIDTx is GetByID within an existing transaction.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+reservationCols+` FROM reservations WHERE id = ?`, id)
	return scanReservation(row)
}

// UpdateRoomTx writes the (already validated and normalized) room number
// onto a reservation, or clears the assignment when room is blank.  Only
// the allocation path may call this.
func (r *ReservationRepo) UpdateRoomTx(ctx context.Context, tx *sql.Tx, id int64, room string) error {
	now := time.Now().UTC().Format(model.TimestampLayout)
	var value any
	if room != "" {
		value = room
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET room_number = ?, updated_at = ? WHERE id = ?`,
		value, now, id)
	return err
}

// FirstAssignmentConflictTx returns the first other reservation that already
// has the given room tentatively assigned over an overlapping half-open
// interval, or nil when the room is clear.  Cancelled reservations do not
// block.  This covers the pre-check-in assignment validation; confirmed
// physical occupancy is checked separately against CHECKED_IN stays.
func (r *ReservationRepo) FirstAssignmentConflictTx(ctx context.Context, tx *sql.Tx, room, arrival, depart string, excludeID int64) (*Conflict, error) {
	const q = `SELECT COALESCE(guest_name,''), COALESCE(reservation_no,''), depart_date
		FROM reservations
		WHERE room_number = ?
		  AND reservation_status <> 'CANCELLED'
		  AND arrival_date < ? AND depart_date > ?
		  AND id <> ?
		ORDER BY arrival_date
		LIMIT 1`
	var c Conflict
	err := tx.QueryRowContext(ctx, q, room, depart, arrival, excludeID).Scan(&c.GuestName, &c.ReservationNo, &c.Until)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ArrivalsForDate returns reservations arriving on the given date that have
// no stay record at all.  A reservation that is already checked in is no
// longer pending, and one that has completed its stay must not reappear as a
// pending arrival, so any stay row excludes the reservation.  Ordered by
// assigned room then guest name for the desk list.
func (r *ReservationRepo) ArrivalsForDate(ctx context.Context, d string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations r
		WHERE r.arrival_date = ?
		  AND NOT EXISTS (SELECT 1 FROM stays s WHERE s.reservation_id = r.id)
		ORDER BY COALESCE(r.room_number, ''), r.guest_name`
	rows, err := r.db.QueryContext(ctx, q, d)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// Search performs the free-text desk search over guest, room, reservation
// number, client and channel.  Capped at 500 rows, newest arrivals first.
func (r *ReservationRepo) Search(ctx context.Context, q string) ([]model.Reservation, error) {
	like := "%" + q + "%"
	const sel = `SELECT ` + reservationCols + ` FROM reservations
		WHERE guest_name LIKE ? OR room_number LIKE ? OR reservation_no LIKE ?
		   OR main_client LIKE ? OR channel LIKE ?
		ORDER BY arrival_date DESC
		LIMIT 500`
	rows, err := r.db.QueryContext(ctx, sel, like, like, like, like, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}
