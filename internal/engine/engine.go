// Package engine implements the room allocation and stay lifecycle rules:
// room-number validation, conflict-checked assignment, the CHECKED_IN /
// CHECKED_OUT state machine with its reversals, and the derived room-status
// synchronizer.  Every mutation runs inside one database transaction and
// under a per-room lock, so concurrent desk stations cannot double-book a
// room between the availability read and the write.
package engine

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/hotel-front-office/internal/inventory"
	"github.com/iliyamo/hotel-front-office/internal/model"
	"github.com/iliyamo/hotel-front-office/internal/queue"
	"github.com/iliyamo/hotel-front-office/internal/repository"
)

// keyedMutex hands out one mutex per room number.  Locks are never released
// from the map; the inventory is a few hundred rooms, so the map stays small.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) *sync.Mutex {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m
}

// Engine owns all occupancy mutations.  Reads for the desk views go straight
// to the repositories; writes go through here.
type Engine struct {
	db           *sql.DB
	reservations *repository.ReservationRepo
	stays        *repository.StayRepo
	rooms        *repository.RoomRepo
	blocks       inventory.Blocks
	publish      func(queue.StayEvent)
	now          func() time.Time
	roomLocks    keyedMutex
}

// New wires an Engine.  publish is called after a check-in or checkout
// commits; pass nil to disable event publishing.
func New(db *sql.DB, reservations *repository.ReservationRepo, stays *repository.StayRepo,
	rooms *repository.RoomRepo, blocks inventory.Blocks, publish func(queue.StayEvent)) *Engine {
	return &Engine{
		db:           db,
		reservations: reservations,
		stays:        stays,
		rooms:        rooms,
		blocks:       blocks,
		publish:      publish,
		now:          time.Now,
		roomLocks:    keyedMutex{locks: make(map[string]*sync.Mutex)},
	}
}

// ValidateRoomNumber normalizes a raw room-number input or reports why it is
// not a valid room.
func (e *Engine) ValidateRoomNumber(raw string) (string, error) {
	room, err := e.blocks.Normalize(raw)
	if err != nil {
		return "", invalid(err.Error())
	}
	return room, nil
}

func (e *Engine) today() string {
	return e.now().UTC().Format(model.DateLayout)
}

func (e *Engine) timestamp() string {
	return e.now().UTC().Format(model.TimestampLayout)
}

// begin starts a mutation transaction.  Callers must run the committed-flag
// rollback pattern around it.
func (e *Engine) begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storage("begin transaction", err)
	}
	return tx, nil
}

// AssignRoom validates the room number, verifies the room is free over the
// reservation's half-open [arrival, departure) window against both physical
// CHECKED_IN stays and other tentative assignments, and writes the
// assignment.  Passing a blank room clears the assignment.  A checked-in
// reservation cannot be moved: its stay pins the physical room, so the
// check-in must be cancelled (or the stay checked out) first.
func (e *Engine) AssignRoom(ctx context.Context, reservationID int64, raw string) (*model.Reservation, error) {
	if strings.TrimSpace(raw) == "" {
		return e.clearRoom(ctx, reservationID)
	}
	room, err := e.ValidateRoomNumber(raw)
	if err != nil {
		return nil, err
	}

	unlock := e.roomLocks.lock(room)
	defer unlock.Unlock()

	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := e.reservations.GetByIDTx(ctx, tx, reservationID)
	if err == sql.ErrNoRows {
		return nil, notFound("reservation %d not found", reservationID)
	}
	if err != nil {
		return nil, storage("load reservation", err)
	}

	if stayID, err := e.stays.ActiveForReservationTx(ctx, tx, reservationID); err != nil {
		return nil, storage("check active stay", err)
	} else if stayID != 0 {
		return nil, precondition("reservation %d is checked in, check out before moving the room", reservationID)
	}
	if c, err := e.stays.FirstConflictTx(ctx, tx, room, res.ArrivalDate, res.DepartDate, reservationID); err != nil {
		return nil, storage("check stay conflicts", err)
	} else if c != nil {
		return nil, conflictError(room, c)
	}
	if c, err := e.reservations.FirstAssignmentConflictTx(ctx, tx, room, res.ArrivalDate, res.DepartDate, reservationID); err != nil {
		return nil, storage("check assignment conflicts", err)
	} else if c != nil {
		return nil, conflictError(room, c)
	}

	if err := e.reservations.UpdateRoomTx(ctx, tx, reservationID, room); err != nil {
		return nil, storage("update room assignment", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storage("commit room assignment", err)
	}
	committed = true

	res.RoomNumber = &room
	return res, nil
}

func (e *Engine) clearRoom(ctx context.Context, reservationID int64) (*model.Reservation, error) {
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := e.reservations.GetByIDTx(ctx, tx, reservationID)
	if err == sql.ErrNoRows {
		return nil, notFound("reservation %d not found", reservationID)
	}
	if err != nil {
		return nil, storage("load reservation", err)
	}
	if stayID, err := e.stays.ActiveForReservationTx(ctx, tx, reservationID); err != nil {
		return nil, storage("check active stay", err)
	} else if stayID != 0 {
		return nil, precondition("reservation %d is checked in, check out before clearing the room", reservationID)
	}
	if err := e.reservations.UpdateRoomTx(ctx, tx, reservationID, ""); err != nil {
		return nil, storage("clear room assignment", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storage("commit room assignment", err)
	}
	committed = true
	res.RoomNumber = nil
	return res, nil
}

func conflictError(room string, c *repository.Conflict) *Error {
	guest := c.GuestName
	if guest == "" {
		guest = "another guest"
	}
	return &Error{
		Kind:    KindRoomConflict,
		Message: "room " + room + " is occupied by " + guest + " (res " + c.ReservationNo + ") until " + c.Until,
	}
}

// CheckIn creates the CHECKED_IN stay for a reservation and marks the room
// OCCUPIED.  The reservation must have a valid room assigned, must not
// already be checked in, and must not have departed in the past.  The room
// lock is taken from a pre-read; if the assignment changes between the
// pre-read and the transaction, the call fails and the desk retries.
func (e *Engine) CheckIn(ctx context.Context, reservationID int64) (*model.Stay, error) {
	pre, err := e.reservations.GetByID(ctx, reservationID)
	if err == sql.ErrNoRows {
		return nil, notFound("reservation %d not found", reservationID)
	}
	if err != nil {
		return nil, storage("load reservation", err)
	}
	if pre.RoomNumber == nil {
		return nil, precondition("reservation %d has no room assigned", reservationID)
	}
	room, err := e.ValidateRoomNumber(*pre.RoomNumber)
	if err != nil {
		return nil, err
	}

	unlock := e.roomLocks.lock(room)
	defer unlock.Unlock()

	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := e.reservations.GetByIDTx(ctx, tx, reservationID)
	if err != nil {
		return nil, storage("load reservation", err)
	}
	if res.RoomNumber == nil || *res.RoomNumber != room {
		return nil, precondition("room assignment changed during check-in, retry")
	}
	if stayID, err := e.stays.ActiveForReservationTx(ctx, tx, reservationID); err != nil {
		return nil, storage("check active stay", err)
	} else if stayID != 0 {
		return nil, precondition("reservation %d is already checked in", reservationID)
	}
	if res.DepartDate < e.today() {
		return nil, precondition("reservation %d departed %s, cannot check in a past stay", reservationID, res.DepartDate)
	}
	if c, err := e.stays.FirstConflictTx(ctx, tx, room, res.ArrivalDate, res.DepartDate, reservationID); err != nil {
		return nil, storage("check stay conflicts", err)
	} else if c != nil {
		return nil, conflictError(room, c)
	}

	checkin := e.timestamp()
	stay := &model.Stay{
		ReservationID:   reservationID,
		RoomNumber:      room,
		Status:          model.StayCheckedIn,
		CheckinPlanned:  res.ArrivalDate,
		CheckoutPlanned: res.DepartDate,
		CheckinActual:   &checkin,
	}
	if err := e.stays.InsertTx(ctx, tx, stay); err != nil {
		return nil, storage("insert stay", err)
	}
	if err := e.rooms.EnsureExistsTx(ctx, tx, room); err != nil {
		return nil, storage("ensure room row", err)
	}
	if err := e.rooms.SetStatusTx(ctx, tx, room, model.RoomOccupied); err != nil {
		return nil, storage("set room occupied", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storage("commit check-in", err)
	}
	committed = true

	e.emit(queue.EventCheckedIn, stay, res)
	return stay, nil
}

// CheckOut completes a stay: the stay becomes CHECKED_OUT with the current
// timestamp and the room returns to VACANT unless another CHECKED_IN stay
// still holds it.  The id is looked up as a stay first; when no stay exists
// it falls back to a reservation id, so walk-through departures of guests
// whose check-in was never recorded still work.  In that case a terminal
// CHECKED_OUT stay is synthesized for the reservation's room.
func (e *Engine) CheckOut(ctx context.Context, id int64) (*model.Stay, error) {
	stay, err := e.stays.GetByID(ctx, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, storage("load stay", err)
	}
	if err == sql.ErrNoRows {
		return e.checkOutByReservation(ctx, id)
	}
	if stay.Status == model.StayCheckedOut {
		return nil, precondition("stay %d is already checked out", id)
	}
	return e.checkOutStay(ctx, stay.ID, stay.RoomNumber)
}

func (e *Engine) checkOutStay(ctx context.Context, stayID int64, room string) (*model.Stay, error) {
	unlock := e.roomLocks.lock(room)
	defer unlock.Unlock()

	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	stay, err := e.stays.GetByIDTx(ctx, tx, stayID)
	if err == sql.ErrNoRows {
		return nil, notFound("stay %d not found", stayID)
	}
	if err != nil {
		return nil, storage("load stay", err)
	}
	if stay.Status == model.StayCheckedOut {
		return nil, precondition("stay %d is already checked out", stayID)
	}

	at := e.timestamp()
	if err := e.stays.SetCheckedOutTx(ctx, tx, stayID, at); err != nil {
		return nil, storage("set stay checked out", err)
	}
	if err := e.settleRoomTx(ctx, tx, stay.RoomNumber, stayID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storage("commit checkout", err)
	}
	committed = true

	stay.Status = model.StayCheckedOut
	stay.CheckoutActual = &at
	res, _ := e.reservations.GetByID(ctx, stay.ReservationID)
	e.emit(queue.EventCheckedOut, stay, res)
	return stay, nil
}

// checkOutByReservation handles the fallback path: the id named no stay, so
// it is treated as a reservation id.  An active stay on the reservation is
// checked out normally; otherwise a terminal CHECKED_OUT stay is synthesized
// so the departure leaves an audit record even though the check-in was never
// entered.
func (e *Engine) checkOutByReservation(ctx context.Context, reservationID int64) (*model.Stay, error) {
	res, err := e.reservations.GetByID(ctx, reservationID)
	if err == sql.ErrNoRows {
		return nil, notFound("no stay or reservation with id %d", reservationID)
	}
	if err != nil {
		return nil, storage("load reservation", err)
	}

	// An active stay is checked out against its own room, not the
	// reservation's current assignment; the two can differ in historical
	// data, and only the stay records where the guest physically is.
	if stayID, err := e.stays.ActiveForReservation(ctx, reservationID); err != nil {
		return nil, storage("check active stay", err)
	} else if stayID != 0 {
		stay, err := e.stays.GetByID(ctx, stayID)
		if err != nil {
			return nil, storage("load stay", err)
		}
		return e.checkOutStay(ctx, stay.ID, stay.RoomNumber)
	}

	if res.RoomNumber == nil || strings.TrimSpace(*res.RoomNumber) == "" {
		return nil, precondition("reservation %d has no room assigned, nothing to check out", reservationID)
	}
	// Checkout is deliberately tolerant of the stored room number: a guest
	// leaving must always be able to leave, even when the recorded room no
	// longer passes inventory validation.
	room := strings.TrimSpace(*res.RoomNumber)

	unlock := e.roomLocks.lock(room)
	defer unlock.Unlock()

	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if stayID, err := e.stays.ActiveForReservationTx(ctx, tx, reservationID); err != nil {
		return nil, storage("check active stay", err)
	} else if stayID != 0 {
		return nil, precondition("reservation %d was checked in concurrently, retry the checkout", reservationID)
	}

	at := e.timestamp()
	stay := &model.Stay{
		ReservationID:   reservationID,
		RoomNumber:      room,
		Status:          model.StayCheckedOut,
		CheckinPlanned:  res.ArrivalDate,
		CheckoutPlanned: res.DepartDate,
		CheckoutActual:  &at,
	}
	if err := e.stays.InsertTx(ctx, tx, stay); err != nil {
		return nil, storage("insert stay", err)
	}
	if err := e.rooms.EnsureExistsTx(ctx, tx, room); err != nil {
		return nil, storage("ensure room row", err)
	}
	if err := e.settleRoomTx(ctx, tx, room, stay.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storage("commit checkout", err)
	}
	committed = true

	e.emit(queue.EventCheckedOut, stay, res)
	return stay, nil
}

// settleRoomTx writes the room status implied by the remaining CHECKED_IN
// stays, ignoring the stay being mutated.
func (e *Engine) settleRoomTx(ctx context.Context, tx *sql.Tx, room string, excludeStayID int64) error {
	occupied, err := e.stays.AnyOtherCheckedInForRoomTx(ctx, tx, room, excludeStayID)
	if err != nil {
		return storage("check remaining occupancy", err)
	}
	status := model.RoomVacant
	if occupied {
		status = model.RoomOccupied
	}
	if err := e.rooms.SetStatusTx(ctx, tx, room, status); err != nil {
		return storage("set room status", err)
	}
	return nil
}

// CancelCheckIn undoes a check-in as if it never happened: the stay row is
// deleted and the reservation reappears on the arrivals list.  Only
// CHECKED_IN stays can be cancelled this way; a checked-out stay must have
// its checkout cancelled first.
func (e *Engine) CancelCheckIn(ctx context.Context, stayID int64) error {
	stay, err := e.stays.GetByID(ctx, stayID)
	if err == sql.ErrNoRows {
		return notFound("stay %d not found", stayID)
	}
	if err != nil {
		return storage("load stay", err)
	}
	if stay.Status != model.StayCheckedIn {
		return precondition("stay %d is checked out, cancel the checkout first", stayID)
	}

	unlock := e.roomLocks.lock(stay.RoomNumber)
	defer unlock.Unlock()

	tx, err := e.begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cur, err := e.stays.GetByIDTx(ctx, tx, stayID)
	if err == sql.ErrNoRows {
		return notFound("stay %d not found", stayID)
	}
	if err != nil {
		return storage("load stay", err)
	}
	if cur.Status != model.StayCheckedIn {
		return precondition("stay %d is checked out, cancel the checkout first", stayID)
	}
	if err := e.stays.DeleteTx(ctx, tx, stayID); err != nil {
		return storage("delete stay", err)
	}
	if err := e.settleRoomTx(ctx, tx, cur.RoomNumber, stayID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storage("commit cancel check-in", err)
	}
	committed = true
	return nil
}

// CancelCheckOut reverses a checkout: the stay returns to CHECKED_IN and the
// room to OCCUPIED.  It fails if someone else has physically occupied the
// room in the meantime, or if the reservation already has another active
// stay.
func (e *Engine) CancelCheckOut(ctx context.Context, stayID int64) (*model.Stay, error) {
	stay, err := e.stays.GetByID(ctx, stayID)
	if err == sql.ErrNoRows {
		return nil, notFound("stay %d not found", stayID)
	}
	if err != nil {
		return nil, storage("load stay", err)
	}
	if stay.Status != model.StayCheckedOut {
		return nil, precondition("stay %d is not checked out", stayID)
	}

	unlock := e.roomLocks.lock(stay.RoomNumber)
	defer unlock.Unlock()

	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cur, err := e.stays.GetByIDTx(ctx, tx, stayID)
	if err == sql.ErrNoRows {
		return nil, notFound("stay %d not found", stayID)
	}
	if err != nil {
		return nil, storage("load stay", err)
	}
	if cur.Status != model.StayCheckedOut {
		return nil, precondition("stay %d is not checked out", stayID)
	}
	if occupied, err := e.stays.AnyOtherCheckedInForRoomTx(ctx, tx, cur.RoomNumber, stayID); err != nil {
		return nil, storage("check room occupancy", err)
	} else if occupied {
		return nil, conflict("room " + cur.RoomNumber + " has been occupied since the checkout, cannot reopen the stay")
	}
	if otherID, err := e.stays.ActiveForReservationTx(ctx, tx, cur.ReservationID); err != nil {
		return nil, storage("check active stay", err)
	} else if otherID != 0 {
		return nil, precondition("reservation %d already has an active stay", cur.ReservationID)
	}
	if err := e.stays.ReopenTx(ctx, tx, stayID); err != nil {
		return nil, storage("reopen stay", err)
	}
	if err := e.rooms.SetStatusTx(ctx, tx, cur.RoomNumber, model.RoomOccupied); err != nil {
		return nil, storage("set room occupied", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storage("commit cancel checkout", err)
	}
	committed = true

	cur.Status = model.StayCheckedIn
	cur.CheckoutActual = nil
	return cur, nil
}

// Resync recomputes every room's status from the ground truth: a room is
// OCCUPIED exactly when at least one CHECKED_IN stay references it, VACANT
// otherwise.  Date-agnostic, idempotent, and the recovery path after manual
// data fixes.  Returns the number of rooms left OCCUPIED.
func (e *Engine) Resync(ctx context.Context) (int, error) {
	tx, err := e.begin(ctx)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := e.rooms.ResetAllVacantTx(ctx, tx); err != nil {
		return 0, storage("reset rooms vacant", err)
	}
	occupiedRooms, err := e.stays.DistinctCheckedInRoomsTx(ctx, tx)
	if err != nil {
		return 0, storage("list checked-in rooms", err)
	}
	for _, room := range occupiedRooms {
		if err := e.rooms.EnsureExistsTx(ctx, tx, room); err != nil {
			return 0, storage("ensure room row", err)
		}
		if err := e.rooms.SetStatusTx(ctx, tx, room, model.RoomOccupied); err != nil {
			return 0, storage("set room occupied", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, storage("commit resync", err)
	}
	committed = true
	return len(occupiedRooms), nil
}

// SetParking stores or clears the parking details on an existing stay.
func (e *Engine) SetParking(ctx context.Context, stayID int64, space, plate, notes string) error {
	if _, err := e.stays.GetByID(ctx, stayID); err == sql.ErrNoRows {
		return notFound("stay %d not found", stayID)
	} else if err != nil {
		return storage("load stay", err)
	}
	if err := e.stays.UpdateParking(ctx, stayID, space, plate, notes); err != nil {
		return storage("update parking", err)
	}
	return nil
}

func (e *Engine) emit(eventType string, stay *model.Stay, res *model.Reservation) {
	if e.publish == nil {
		return
	}
	ev := queue.StayEvent{
		Type:            eventType,
		StayID:          stay.ID,
		ReservationID:   stay.ReservationID,
		RoomNumber:      stay.RoomNumber,
		CheckinPlanned:  stay.CheckinPlanned,
		CheckoutPlanned: stay.CheckoutPlanned,
		OccurredAt:      e.timestamp(),
	}
	if res != nil {
		ev.GuestName = res.GuestName
		ev.ReservationNo = res.ReservationNo
	}
	e.publish(ev)
}
