package repository

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/iliyamo/hotel-front-office/internal/model"
)

// RoomRepo provides access to the rooms table.  The status column is derived
// state owned by the lifecycle engine; nothing else writes it.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// Seed inserts a VACANT row for every inventory room number that does not
// already have one.  Existing rows keep their status and attributes, so the
// seed is idempotent and safe to run on every start.  The floor is the
// leading digits of the room number.
func (r *RoomRepo) Seed(ctx context.Context, numbers []string) error {
	rows, err := r.db.QueryContext(ctx, `SELECT room_number FROM rooms`)
	if err != nil {
		return err
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var rn string
		if err := rows.Scan(&rn); err != nil {
			rows.Close()
			return err
		}
		existing[rn] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, rn := range numbers {
		if existing[rn] {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rooms (room_number, floor, status) VALUES (?, ?, ?)`,
			rn, floorOf(rn), model.RoomVacant); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// EnsureExistsTx inserts a VACANT row for the room if none exists.  Check-in
// against a valid but never-seeded number must not fail on the status write.
func (r *RoomRepo) EnsureExistsTx(ctx context.Context, tx *sql.Tx, number string) error {
	var found string
	err := tx.QueryRowContext(ctx,
		`SELECT room_number FROM rooms WHERE room_number = ?`, number).Scan(&found)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO rooms (room_number, floor, status) VALUES (?, ?, ?)`,
		number, floorOf(number), model.RoomVacant)
	return err
}

// SetStatusTx writes the derived status for one room.
func (r *RoomRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, number, status string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE rooms SET status = ? WHERE room_number = ?`, status, number)
	return err
}

// ResetAllVacantTx marks every room VACANT.  The synchronizer follows this
// with targeted OCCUPIED writes so the end state matches the stays table
// exactly, including rooms whose last occupant's row was removed.
func (r *RoomRepo) ResetAllVacantTx(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `UPDATE rooms SET status = ?`, model.RoomVacant)
	return err
}

// List returns all rooms in numeric order.  Room numbers are digit strings,
// so ordering by length first then lexicographically is numeric order
// without a per-driver CAST.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	const q = `SELECT room_number, COALESCE(room_type,''), COALESCE(floor,0), status, COALESCE(is_twin,0)
		FROM rooms ORDER BY LENGTH(room_number), room_number`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		var rm model.Room
		var twin int
		if err := rows.Scan(&rm.RoomNumber, &rm.RoomType, &rm.Floor, &rm.Status, &twin); err != nil {
			return nil, err
		}
		rm.IsTwin = twin != 0
		out = append(out, rm)
	}
	return out, rows.Err()
}

// GetStatus returns the stored status for one room or sql.ErrNoRows.
func (r *RoomRepo) GetStatus(ctx context.Context, number string) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM rooms WHERE room_number = ?`, number).Scan(&status)
	return status, err
}

// floorOf derives the floor from a room number: everything but the last two
// digits.  Rooms below 100 have no floor prefix and map to 0.
func floorOf(number string) int {
	n, err := strconv.Atoi(number)
	if err != nil {
		return 0
	}
	return n / 100
}
