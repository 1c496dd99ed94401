package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/hotel-front-office/internal/model"
)

// StayRepo provides access to the stays table – the authoritative record of
// physical occupancy.  Rows only ever exist in CHECKED_IN or CHECKED_OUT
// state; creation happens exclusively through the engine's check-in and
// walk-through checkout paths.  All timestamps are UTC text.
type StayRepo struct {
	db *sql.DB
}

// NewStayRepo returns a new StayRepo bound to the given database.
func NewStayRepo(db *sql.DB) *StayRepo { return &StayRepo{db: db} }

// StayDetail is a stay joined with the guest fields the desk lists need.
type StayDetail struct {
	model.Stay
	GuestName     string `json:"guest_name"`
	ReservationNo string `json:"reservation_no"`
}

const stayCols = `id, reservation_id, room_number, status, checkin_planned,
	checkout_planned, checkin_actual, checkout_actual, COALESCE(breakfast_code,''),
	COALESCE(comment,''), parking_space, parking_plate, parking_notes`

func scanStay(row rowScanner, extra ...any) (*model.Stay, error) {
	var s model.Stay
	var inActual, outActual, space, plate, notes sql.NullString
	dest := []any{
		&s.ID, &s.ReservationID, &s.RoomNumber, &s.Status, &s.CheckinPlanned,
		&s.CheckoutPlanned, &inActual, &outActual, &s.BreakfastCode,
		&s.Comment, &space, &plate, &notes,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if inActual.Valid {
		v := inActual.String
		s.CheckinActual = &v
	}
	if outActual.Valid {
		v := outActual.String
		s.CheckoutActual = &v
	}
	if space.Valid {
		v := space.String
		s.ParkingSpace = &v
	}
	if plate.Valid {
		v := plate.String
		s.ParkingPlate = &v
	}
	if notes.Valid {
		v := notes.String
		s.ParkingNotes = &v
	}
	return &s, nil
}

// GetByID returns a single stay or sql.ErrNoRows.
func (r *StayRepo) GetByID(ctx context.Context, id int64) (*model.Stay, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+stayCols+` FROM stays WHERE id = ?`, id)
	return scanStay(row)
}

// GetByIDTx is GetByID within an existing transaction.
func (r *StayRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*model.Stay, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+stayCols+` FROM stays WHERE id = ?`, id)
	return scanStay(row)
}

// FirstConflictTx returns the first CHECKED_IN stay whose planned half-open
// interval [checkin_planned, checkout_planned) overlaps [arrival, depart)
// for the given room, or nil when the room is clear.  The overlap predicate
// is strict half-open intersection: existing.checkin < depart AND
// existing.checkout > arrival, so a checkout date never collides with the
// following check-in date.  excludeReservationID, when non-zero, leaves out
// the reservation under consideration so a re-assignment cannot conflict
// with itself.
func (r *StayRepo) FirstConflictTx(ctx context.Context, tx *sql.Tx, room, arrival, depart string, excludeReservationID int64) (*Conflict, error) {
	const q = `SELECT COALESCE(res.guest_name,''), COALESCE(res.reservation_no,''), s.checkout_planned
		FROM stays s
		JOIN reservations res ON res.id = s.reservation_id
		WHERE s.room_number = ?
		  AND s.status = 'CHECKED_IN'
		  AND s.checkin_planned < ? AND s.checkout_planned > ?
		  AND (? = 0 OR s.reservation_id <> ?)
		ORDER BY s.checkin_planned
		LIMIT 1`
	var c Conflict
	err := tx.QueryRowContext(ctx, q, room, depart, arrival, excludeReservationID, excludeReservationID).
		Scan(&c.GuestName, &c.ReservationNo, &c.Until)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertTx creates a stay row within the provided transaction and populates
// the generated ID.  Status, planned dates and the actual timestamps are
// taken from the record as-is; the engine is responsible for only ever
// creating CHECKED_IN stays (check-in) or terminal CHECKED_OUT stays
// (walk-through departures).
func (r *StayRepo) InsertTx(ctx context.Context, tx *sql.Tx, s *model.Stay) error {
	const q = `INSERT INTO stays (reservation_id, room_number, status,
		checkin_planned, checkout_planned, checkin_actual, checkout_actual)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	var inActual, outActual any
	if s.CheckinActual != nil {
		inActual = *s.CheckinActual
	}
	if s.CheckoutActual != nil {
		outActual = *s.CheckoutActual
	}
	result, err := tx.ExecContext(ctx, q, s.ReservationID, s.RoomNumber, s.Status,
		s.CheckinPlanned, s.CheckoutPlanned, inActual, outActual)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// SetCheckedOutTx advances a stay to CHECKED_OUT with the given actual
// checkout timestamp.
func (r *StayRepo) SetCheckedOutTx(ctx context.Context, tx *sql.Tx, id int64, at string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE stays SET status = ?, checkout_actual = ? WHERE id = ?`,
		model.StayCheckedOut, at, id)
	return err
}

// ReopenTx reverses a checkout: the stay returns to CHECKED_IN and the
// actual checkout timestamp is cleared.
func (r *StayRepo) ReopenTx(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE stays SET status = ?, checkout_actual = NULL WHERE id = ?`,
		model.StayCheckedIn, id)
	return err
}

// DeleteTx removes a stay row.  Used only by cancel-check-in, which undoes a
// check-in as if it never happened.
func (r *StayRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM stays WHERE id = ?`, id)
	return err
}

// ActiveForReservation returns the ID of the CHECKED_IN stay referencing
// the reservation, or 0 when none exists.  A reservation may accumulate
// several historical stays, but at most one may be active at a time.
func (r *StayRepo) ActiveForReservation(ctx context.Context, reservationID int64) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM stays WHERE reservation_id = ? AND status = ? LIMIT 1`,
		reservationID, model.StayCheckedIn).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ActiveForReservationTx is ActiveForReservation within an existing transaction.
func (r *StayRepo) ActiveForReservationTx(ctx context.Context, tx *sql.Tx, reservationID int64) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM stays WHERE reservation_id = ? AND status = ? LIMIT 1`,
		reservationID, model.StayCheckedIn).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AnyOtherCheckedInForRoomTx reports whether a CHECKED_IN stay other than
// excludeStayID references the room.  The engine uses it to decide whether a
// departure or cancelled check-in leaves the room VACANT.
func (r *StayRepo) AnyOtherCheckedInForRoomTx(ctx context.Context, tx *sql.Tx, room string, excludeStayID int64) (bool, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM stays WHERE room_number = ? AND status = ? AND id <> ? LIMIT 1`,
		room, model.StayCheckedIn, excludeStayID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DistinctCheckedInRoomsTx returns the distinct room numbers that currently
// have at least one CHECKED_IN stay, regardless of planned dates.  Whether
// anyone is checked in right now is a point-in-time fact independent of the
// calendar, which is why the synchronizer is date-agnostic.
func (r *StayRepo) DistinctCheckedInRoomsTx(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT room_number FROM stays WHERE status = ?`, model.StayCheckedIn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var rn string
		if err := rows.Scan(&rn); err != nil {
			return nil, err
		}
		out = append(out, rn)
	}
	return out, rows.Err()
}

// queryDetails runs a stays+reservations join and scans StayDetail rows.
func (r *StayRepo) queryDetails(ctx context.Context, q string, args ...any) ([]StayDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]StayDetail, 0)
	for rows.Next() {
		var guest, resNo string
		s, err := scanStay(rows, &guest, &resNo)
		if err != nil {
			return nil, err
		}
		out = append(out, StayDetail{Stay: *s, GuestName: guest, ReservationNo: resNo})
	}
	return out, rows.Err()
}

// detailCols prefixes stayCols with the stays alias and appends guest
// columns.  LENGTH-then-lexicographic ordering sorts numeric room strings
// numerically on both drivers without a CAST.
const detailCols = `s.id, s.reservation_id, s.room_number, s.status, s.checkin_planned,
	s.checkout_planned, s.checkin_actual, s.checkout_actual, COALESCE(s.breakfast_code,''),
	COALESCE(s.comment,''), s.parking_space, s.parking_plate, s.parking_notes,
	COALESCE(res.guest_name,''), COALESCE(res.reservation_no,'')`

// InHouseForDate returns the CHECKED_IN stays whose planned interval covers
// the date.  The boundary convention is half-open, matching the conflict
// predicate: a guest is in house from checkin_planned up to but excluding
// checkout_planned; on the checkout day they appear under departures
// instead.
func (r *StayRepo) InHouseForDate(ctx context.Context, d string) ([]StayDetail, error) {
	const q = `SELECT ` + detailCols + `
		FROM stays s JOIN reservations res ON res.id = s.reservation_id
		WHERE s.status = 'CHECKED_IN'
		  AND s.checkin_planned <= ? AND s.checkout_planned > ?
		ORDER BY LENGTH(s.room_number), s.room_number`
	return r.queryDetails(ctx, q, d, d)
}

// DeparturesForDate returns the stays due to leave on the date that have not
// yet been checked out.
func (r *StayRepo) DeparturesForDate(ctx context.Context, d string) ([]StayDetail, error) {
	const q = `SELECT ` + detailCols + `
		FROM stays s JOIN reservations res ON res.id = s.reservation_id
		WHERE s.status = 'CHECKED_IN'
		  AND s.checkout_planned = ?
		ORDER BY LENGTH(s.room_number), s.room_number`
	return r.queryDetails(ctx, q, d)
}

// CheckedOutForDate returns the stays whose actual checkout happened on the
// date (by the date part of the UTC timestamp).
func (r *StayRepo) CheckedOutForDate(ctx context.Context, d string) ([]StayDetail, error) {
	const q = `SELECT ` + detailCols + `
		FROM stays s JOIN reservations res ON res.id = s.reservation_id
		WHERE s.status = 'CHECKED_OUT'
		  AND SUBSTR(s.checkout_actual, 1, 10) = ?
		ORDER BY LENGTH(s.room_number), s.room_number`
	return r.queryDetails(ctx, q, d)
}

// UpdateParking stores the optional parking fields on a stay.  Blank values
// clear the column rather than storing empty strings.
func (r *StayRepo) UpdateParking(ctx context.Context, id int64, space, plate, notes string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE stays SET parking_space = ?, parking_plate = ?, parking_notes = ? WHERE id = ?`,
		nullIfEmpty(space), nullIfEmpty(plate), nullIfEmpty(notes), id)
	return err
}

// ParkingForDate lists the stays covering the date that carry any parking
// info, ordered by space then room.
func (r *StayRepo) ParkingForDate(ctx context.Context, d string) ([]StayDetail, error) {
	const q = `SELECT ` + detailCols + `
		FROM stays s JOIN reservations res ON res.id = s.reservation_id
		WHERE s.checkin_planned <= ? AND s.checkout_planned > ?
		  AND (s.parking_space IS NOT NULL OR s.parking_plate IS NOT NULL)
		ORDER BY s.parking_space, LENGTH(s.room_number), s.room_number`
	return r.queryDetails(ctx, q, d, d)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
