package database

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates every table the service uses if it does not already
// exist.  It is safe to run on every process start.  The statements are
// shared between sqlite and MySQL except for the auto-increment primary key
// clause, which is substituted per driver.  Dates are stored as ISO
// "YYYY-MM-DD" text and timestamps as "YYYY-MM-DD HH:MM:SS" UTC text so that
// comparisons are plain lexicographic string comparisons on both drivers.
func EnsureSchema(ctx context.Context, db *sql.DB, driver string) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == "mysql" {
		pk = "BIGINT PRIMARY KEY AUTO_INCREMENT"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS reservations (
			id %s,
			arrival_date VARCHAR(10) NOT NULL,
			depart_date VARCHAR(10) NOT NULL,
			room_number VARCHAR(16),
			room_type_code VARCHAR(16),
			reservation_no VARCHAR(32),
			guest_name VARCHAR(255),
			main_client VARCHAR(255),
			adults INTEGER DEFAULT 0,
			children INTEGER DEFAULT 0,
			total_guests INTEGER DEFAULT 0,
			nights INTEGER DEFAULT 0,
			meal_plan VARCHAR(32),
			rate_code VARCHAR(32),
			channel VARCHAR(64),
			main_remark TEXT,
			total_remarks TEXT,
			contact_name VARCHAR(255),
			contact_phone VARCHAR(64),
			contact_email VARCHAR(255),
			reservation_status VARCHAR(16) DEFAULT 'CONFIRMED',
			created_at VARCHAR(19),
			updated_at VARCHAR(19)
		)`, pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS stays (
			id %s,
			reservation_id BIGINT NOT NULL,
			room_number VARCHAR(16) NOT NULL,
			status VARCHAR(16) NOT NULL,
			checkin_planned VARCHAR(10) NOT NULL,
			checkout_planned VARCHAR(10) NOT NULL,
			checkin_actual VARCHAR(19),
			checkout_actual VARCHAR(19),
			breakfast_code VARCHAR(16),
			comment TEXT,
			parking_space VARCHAR(16),
			parking_plate VARCHAR(32),
			parking_notes TEXT
		)`, pk),

		`CREATE TABLE IF NOT EXISTS rooms (
			room_number VARCHAR(16) PRIMARY KEY,
			room_type VARCHAR(32),
			floor INTEGER DEFAULT 0,
			status VARCHAR(16) NOT NULL DEFAULT 'VACANT',
			is_twin INTEGER DEFAULT 0
		)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tasks (
			id %s,
			task_date VARCHAR(10) NOT NULL,
			title VARCHAR(255) NOT NULL,
			created_by VARCHAR(64),
			assigned_to VARCHAR(64),
			comment TEXT,
			created_at VARCHAR(19)
		)`, pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS no_shows (
			id %s,
			arrival_date VARCHAR(10) NOT NULL,
			guest_name VARCHAR(255) NOT NULL,
			main_client VARCHAR(255),
			charged INTEGER DEFAULT 0,
			comment TEXT,
			created_at VARCHAR(19)
		)`, pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS spare_rooms (
			id %s,
			target_date VARCHAR(10) NOT NULL,
			room_number VARCHAR(16) NOT NULL
		)`, pk),
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
