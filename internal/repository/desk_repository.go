package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hotel-front-office/internal/model"
)

// DeskRepo covers the shift-handover side tables: tasks, no-shows and the
// per-date spare-room list.  Plain bookkeeping without engine invariants.
type DeskRepo struct {
	db *sql.DB
}

// NewDeskRepo returns a new DeskRepo bound to the given database.
func NewDeskRepo(db *sql.DB) *DeskRepo { return &DeskRepo{db: db} }

// AddTask inserts a handover task and populates its generated ID.
func (r *DeskRepo) AddTask(ctx context.Context, t *model.Task) error {
	t.CreatedAt = time.Now().UTC().Format(model.TimestampLayout)
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (task_date, title, created_by, assigned_to, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.TaskDate, t.Title, t.CreatedBy, t.AssignedTo, t.Comment, t.CreatedAt)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// TasksForDate lists tasks for a date, oldest first.
func (r *DeskRepo) TasksForDate(ctx context.Context, d string) ([]model.Task, error) {
	const q = `SELECT id, task_date, title, COALESCE(created_by,''), COALESCE(assigned_to,''),
		COALESCE(comment,''), COALESCE(created_at,'')
		FROM tasks WHERE task_date = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, d)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.TaskDate, &t.Title, &t.CreatedBy, &t.AssignedTo, &t.Comment, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AddNoShow records a guest that never arrived and populates the generated ID.
func (r *DeskRepo) AddNoShow(ctx context.Context, n *model.NoShow) error {
	n.CreatedAt = time.Now().UTC().Format(model.TimestampLayout)
	charged := 0
	if n.Charged {
		charged = 1
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO no_shows (arrival_date, guest_name, main_client, charged, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.ArrivalDate, n.GuestName, n.MainClient, charged, n.Comment, n.CreatedAt)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = id
	return nil
}

// NoShowsForDate lists the no-shows recorded for an arrival date.
func (r *DeskRepo) NoShowsForDate(ctx context.Context, d string) ([]model.NoShow, error) {
	const q = `SELECT id, arrival_date, guest_name, COALESCE(main_client,''),
		COALESCE(charged,0), COALESCE(comment,''), COALESCE(created_at,'')
		FROM no_shows WHERE arrival_date = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, d)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.NoShow, 0)
	for rows.Next() {
		var n model.NoShow
		var charged int
		if err := rows.Scan(&n.ID, &n.ArrivalDate, &n.GuestName, &n.MainClient, &charged, &n.Comment, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Charged = charged != 0
		out = append(out, n)
	}
	return out, rows.Err()
}

// SetSpareRooms replaces the spare-room list for a date.  Replace-all keeps
// the stored list identical to what the desk last submitted.
func (r *DeskRepo) SetSpareRooms(ctx context.Context, d string, numbers []string) error {
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
	if _, err := tx.ExecContext(ctx, `DELETE FROM spare_rooms WHERE target_date = ?`, d); err != nil {
		return err
	}
	for _, rn := range numbers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO spare_rooms (target_date, room_number) VALUES (?, ?)`, d, rn); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SpareRoomsForDate returns the spare-room numbers stored for a date.
func (r *DeskRepo) SpareRoomsForDate(ctx context.Context, d string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT room_number FROM spare_rooms WHERE target_date = ? ORDER BY LENGTH(room_number), room_number`, d)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var rn string
		if err := rows.Scan(&rn); err != nil {
			return nil, err
		}
		out = append(out, rn)
	}
	return out, rows.Err()
}
