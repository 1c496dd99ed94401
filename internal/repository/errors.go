// Package repository provides data access to the front-office tables.  Each
// repository is bound to a *sql.DB; methods with a Tx suffix run against a
// caller-supplied transaction so the engine can compose "read conflicting
// stays, then write" into one atomic unit.  Missing rows are reported as
// sql.ErrNoRows so callers can distinguish not-found from storage faults.
package repository

// Conflict describes the first stay or assignment blocking a room over a
// requested interval.  Until is the date the blocking occupancy ends, which
// the desk needs to resolve the clash with the guest.
type Conflict struct {
	GuestName     string
	ReservationNo string
	Until         string
}
