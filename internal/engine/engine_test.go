package engine

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-front-office/internal/database"
	"github.com/iliyamo/hotel-front-office/internal/inventory"
	"github.com/iliyamo/hotel-front-office/internal/model"
	"github.com/iliyamo/hotel-front-office/internal/repository"
)

// newTestEngine builds an engine on an in-memory sqlite database with the
// default inventory seeded.  The clock is pinned to 2025-06-01 so the test
// scenarios around the 2025-06 dates are stable.
func newTestEngine(t *testing.T) (*Engine, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, database.EnsureSchema(ctx, db, "sqlite"))

	reservations := repository.NewReservationRepo(db)
	stays := repository.NewStayRepo(db)
	rooms := repository.NewRoomRepo(db)
	blocks := inventory.Default()
	require.NoError(t, rooms.Seed(ctx, blocks.Numbers()))

	e := New(db, reservations, stays, rooms, blocks, nil)
	e.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return e, db
}

// addReservation inserts one reservation and returns its id.
func addReservation(t *testing.T, e *Engine, guest, resNo, room, arrival, depart string) int64 {
	t.Helper()
	res := model.Reservation{
		ArrivalDate:   arrival,
		DepartDate:    depart,
		ReservationNo: resNo,
		GuestName:     guest,
	}
	if room != "" {
		res.RoomNumber = &room
	}
	n, err := e.reservations.InsertBulk(context.Background(), []model.Reservation{res})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	var id int64
	require.NoError(t, e.db.QueryRow(
		`SELECT id FROM reservations WHERE reservation_no = ?`, resNo).Scan(&id))
	return id
}

func roomStatus(t *testing.T, e *Engine, room string) string {
	t.Helper()
	status, err := e.rooms.GetStatus(context.Background(), room)
	require.NoError(t, err)
	return status
}

func TestSeedIsIdempotentAndPreservesStatus(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM rooms`).Scan(&count))
	require.Equal(t, len(e.blocks.Numbers()), count)

	_, err := db.Exec(`UPDATE rooms SET status = ? WHERE room_number = '105'`, model.RoomOccupied)
	require.NoError(t, err)

	require.NoError(t, e.rooms.Seed(ctx, e.blocks.Numbers()))

	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM rooms`).Scan(&count))
	require.Equal(t, len(e.blocks.Numbers()), count)
	require.Equal(t, model.RoomOccupied, roomStatus(t, e, "105"))
}

func TestValidateRoomNumber(t *testing.T) {
	e, _ := newTestEngine(t)

	got, err := e.ValidateRoomNumber("105")
	require.NoError(t, err)
	require.Equal(t, "105", got)

	_, err = e.ValidateRoomNumber("105.0")
	require.Error(t, err)
	require.Equal(t, KindInvalidRoomNumber, KindOf(err))
	require.Equal(t, "room number cannot have decimals, use whole numbers only", err.Error())

	_, err = e.ValidateRoomNumber("200")
	require.Error(t, err)
	require.Equal(t, KindInvalidRoomNumber, KindOf(err))
}

func TestCheckInOccupiesRoom(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	id := addReservation(t, e, "Guest A", "4711", "105", "2025-06-01", "2025-06-05")

	stay, err := e.CheckIn(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.StayCheckedIn, stay.Status)
	require.Equal(t, "105", stay.RoomNumber)
	require.Equal(t, "2025-06-01", stay.CheckinPlanned)
	require.Equal(t, "2025-06-05", stay.CheckoutPlanned)
	require.NotNil(t, stay.CheckinActual)
	require.Nil(t, stay.CheckoutActual)
	require.Equal(t, model.RoomOccupied, roomStatus(t, e, "105"))

	// A second check-in of the same reservation is a precondition failure.
	_, err = e.CheckIn(ctx, id)
	require.Error(t, err)
	require.Equal(t, KindPreconditionFailed, KindOf(err))
}

func TestCheckInRequiresRoomAssignment(t *testing.T) {
	e, _ := newTestEngine(t)

	id := addReservation(t, e, "Guest A", "100", "", "2025-06-01", "2025-06-05")
	_, err := e.CheckIn(context.Background(), id)
	require.Error(t, err)
	require.Equal(t, KindPreconditionFailed, KindOf(err))

	_, err = e.CheckIn(context.Background(), 99999)
	require.Error(t, err)
	require.Equal(t, KindNotFound, KindOf(err))
}

func TestCheckInRejectsPastStay(t *testing.T) {
	e, _ := newTestEngine(t)

	id := addReservation(t, e, "Guest A", "101", "105", "2025-05-01", "2025-05-05")
	_, err := e.CheckIn(context.Background(), id)
	require.Error(t, err)
	require.Equal(t, KindPreconditionFailed, KindOf(err))
}

func TestCheckInConflictIsHalfOpen(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	a := addReservation(t, e, "Guest A", "4711", "105", "2025-06-01", "2025-06-05")
	_, err := e.CheckIn(ctx, a)
	require.NoError(t, err)

	// Overlapping interval: must fail and name the blocking guest and the
	// date the room frees up.
	b := addReservation(t, e, "Guest B", "4712", "105", "2025-06-03", "2025-06-07")
	_, err = e.CheckIn(ctx, b)
	require.Error(t, err)
	require.Equal(t, KindRoomConflict, KindOf(err))
	require.Equal(t, "room 105 is occupied by Guest A (res 4711) until 2025-06-05", err.Error())

	// Back-to-back interval: B arrives the day A departs, no conflict.
	c := addReservation(t, e, "Guest C", "4713", "105", "2025-06-05", "2025-06-07")
	stay, err := e.CheckIn(ctx, c)
	require.NoError(t, err)
	require.Equal(t, model.StayCheckedIn, stay.Status)
}

func TestAssignRoom(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	a := addReservation(t, e, "Guest A", "4711", "105", "2025-06-01", "2025-06-05")
	_, err := e.CheckIn(ctx, a)
	require.NoError(t, err)

	b := addReservation(t, e, "Guest B", "4712", "", "2025-06-03", "2025-06-07")

	// Invalid number never reaches the conflict check.
	_, err = e.AssignRoom(ctx, b, "105.0")
	require.Error(t, err)
	require.Equal(t, KindInvalidRoomNumber, KindOf(err))

	// 105 is physically occupied over an overlapping window.
	_, err = e.AssignRoom(ctx, b, "105")
	require.Error(t, err)
	require.Equal(t, KindRoomConflict, KindOf(err))

	// A free room is assigned and normalized.
	res, err := e.AssignRoom(ctx, b, " 0300 ")
	require.NoError(t, err)
	require.NotNil(t, res.RoomNumber)
	require.Equal(t, "300", *res.RoomNumber)

	// A third reservation cannot take 300 for an overlapping window even
	// though nobody is checked in yet: tentative assignments also block.
	c := addReservation(t, e, "Guest C", "4713", "", "2025-06-04", "2025-06-06")
	_, err = e.AssignRoom(ctx, c, "300")
	require.Error(t, err)
	require.Equal(t, KindRoomConflict, KindOf(err))

	// Clearing the assignment frees the room for the other reservation.
	_, err = e.AssignRoom(ctx, b, "")
	require.NoError(t, err)
	res, err = e.AssignRoom(ctx, c, "300")
	require.NoError(t, err)
	require.Equal(t, "300", *res.RoomNumber)
}

func TestCheckOutAndCancelCheckOut(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	a := addReservation(t, e, "Guest A", "4711", "105", "2025-06-01", "2025-06-05")
	stay, err := e.CheckIn(ctx, a)
	require.NoError(t, err)

	out, err := e.CheckOut(ctx, stay.ID)
	require.NoError(t, err)
	require.Equal(t, model.StayCheckedOut, out.Status)
	require.NotNil(t, out.CheckoutActual)
	require.Equal(t, model.RoomVacant, roomStatus(t, e, "105"))

	// Checking out twice is a precondition failure.
	_, err = e.CheckOut(ctx, stay.ID)
	require.Error(t, err)
	require.Equal(t, KindPreconditionFailed, KindOf(err))

	// The reversal restores CHECKED_IN and clears checkout_actual.
	back, err := e.CancelCheckOut(ctx, stay.ID)
	require.NoError(t, err)
	require.Equal(t, model.StayCheckedIn, back.Status)
	require.Nil(t, back.CheckoutActual)
	require.Equal(t, model.RoomOccupied, roomStatus(t, e, "105"))
}

func TestCancelCheckInRemovesStay(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	a := addReservation(t, e, "Guest A", "4711", "105", "2025-06-01", "2025-06-05")
	stay, err := e.CheckIn(ctx, a)
	require.NoError(t, err)

	require.NoError(t, e.CancelCheckIn(ctx, stay.ID))
	_, err = e.stays.GetByID(ctx, stay.ID)
	require.Equal(t, sql.ErrNoRows, err)
	require.Equal(t, model.RoomVacant, roomStatus(t, e, "105"))

	// The reservation is free to check in again afterwards.
	again, err := e.CheckIn(ctx, a)
	require.NoError(t, err)
	require.NotEqual(t, stay.ID, again.ID)
}

func TestCheckOutByReservationIDSynthesizesStay(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	// Room 210 is outside the configured blocks on purpose: checkout honors
	// whatever room the reservation records.
	id := addReservation(t, e, "Guest A", "4711", "210", "2025-06-01", "2025-06-05")

	stay, err := e.CheckOut(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.StayCheckedOut, stay.Status)
	require.Equal(t, "210", stay.RoomNumber)
	require.Nil(t, stay.CheckinActual)
	require.NotNil(t, stay.CheckoutActual)
	require.Equal(t, model.RoomVacant, roomStatus(t, e, "210"))
}

func TestAssignRoomRejectsCheckedInReservation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	id := addReservation(t, e, "Guest A", "4711", "105", "2025-06-01", "2025-06-05")
	_, err := e.CheckIn(ctx, id)
	require.NoError(t, err)

	// The stay pins room 105; moving the reservation would strand the
	// occupied room.
	_, err = e.AssignRoom(ctx, id, "300")
	require.Error(t, err)
	require.Equal(t, KindPreconditionFailed, KindOf(err))
	require.Equal(t, model.RoomOccupied, roomStatus(t, e, "105"))
	require.Equal(t, model.RoomVacant, roomStatus(t, e, "300"))

	res, err := e.reservations.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, res.RoomNumber)
	require.Equal(t, "105", *res.RoomNumber)
}

func TestCheckOutByReservationIDReleasesStayRoom(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()

	// Reservation ids run ahead of stay ids: only the second reservation is
	// checked in, so its stay takes id 1 while the reservation holds id 2.
	addReservation(t, e, "Guest A", "4711", "", "2025-07-01", "2025-07-03")
	id := addReservation(t, e, "Guest B", "4712", "105", "2025-06-01", "2025-06-05")

	stay, err := e.CheckIn(ctx, id)
	require.NoError(t, err)
	require.NotEqual(t, id, stay.ID)

	// Drift the recorded assignment away from the stay, as imported legacy
	// rows can; the stay, not the assignment, says where the guest sleeps.
	_, err = db.Exec(`UPDATE reservations SET room_number = '302' WHERE id = ?`, id)
	require.NoError(t, err)

	out, err := e.CheckOut(ctx, id)
	require.NoError(t, err)
	require.Equal(t, stay.ID, out.ID)
	require.Equal(t, model.StayCheckedOut, out.Status)
	require.Equal(t, "105", out.RoomNumber)
	require.NotNil(t, out.CheckoutActual)
	require.Equal(t, model.RoomVacant, roomStatus(t, e, "105"))
	require.Equal(t, model.RoomVacant, roomStatus(t, e, "302"))
}

func TestCheckOutUnknownID(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.CheckOut(context.Background(), 424242)
	require.Error(t, err)
	require.Equal(t, KindNotFound, KindOf(err))
}

func TestResyncMatchesGroundTruth(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()

	a := addReservation(t, e, "Guest A", "4711", "105", "2025-06-01", "2025-06-05")
	_, err := e.CheckIn(ctx, a)
	require.NoError(t, err)

	// Mangle the derived state: occupied room marked vacant, vacant room
	// marked occupied.
	_, err = db.Exec(`UPDATE rooms SET status = 'VACANT' WHERE room_number = '105'`)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE rooms SET status = 'OCCUPIED' WHERE room_number = '300'`)
	require.NoError(t, err)

	occupied, err := e.Resync(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, occupied)
	require.Equal(t, model.RoomOccupied, roomStatus(t, e, "105"))
	require.Equal(t, model.RoomVacant, roomStatus(t, e, "300"))

	// With zero CHECKED_IN stays everything ends up VACANT.
	_, err = db.Exec(`DELETE FROM stays`)
	require.NoError(t, err)
	occupied, err = e.Resync(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, occupied)

	var n int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM rooms WHERE status <> 'VACANT'`).Scan(&n))
	require.Equal(t, 0, n)
}

func TestConcurrentCheckInsSameRoom(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	a := addReservation(t, e, "Guest A", "4711", "400", "2025-06-01", "2025-06-05")
	b := addReservation(t, e, "Guest B", "4712", "400", "2025-06-03", "2025-06-07")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []int64{a, b} {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, errs[i] = e.CheckIn(ctx, id)
		}(i, id)
	}
	wg.Wait()

	// Exactly one wins, the other gets a conflict.
	if errs[0] == nil {
		require.Error(t, errs[1])
		require.Equal(t, KindRoomConflict, KindOf(errs[1]))
	} else {
		require.NoError(t, errs[1])
		require.Equal(t, KindRoomConflict, KindOf(errs[0]))
	}
	require.Equal(t, model.RoomOccupied, roomStatus(t, e, "400"))
}

func TestDateScopedViews(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	a := addReservation(t, e, "Guest A", "4711", "105", "2025-06-01", "2025-06-05")
	stay, err := e.CheckIn(ctx, a)
	require.NoError(t, err)

	// In house from the arrival date up to but excluding the departure date.
	for _, d := range []string{"2025-06-01", "2025-06-04"} {
		inHouse, err := e.stays.InHouseForDate(ctx, d)
		require.NoError(t, err)
		require.Len(t, inHouse, 1, "date %s", d)
		require.Equal(t, "Guest A", inHouse[0].GuestName)
	}
	inHouse, err := e.stays.InHouseForDate(ctx, "2025-06-05")
	require.NoError(t, err)
	require.Empty(t, inHouse)

	// On the departure date the stay shows under departures instead.
	deps, err := e.stays.DeparturesForDate(ctx, "2025-06-05")
	require.NoError(t, err)
	require.Len(t, deps, 1)
	require.Equal(t, stay.ID, deps[0].ID)

	// After checkout it moves to the checked-out view for the actual date.
	_, err = e.CheckOut(ctx, stay.ID)
	require.NoError(t, err)
	deps, err = e.stays.DeparturesForDate(ctx, "2025-06-05")
	require.NoError(t, err)
	require.Empty(t, deps)

	outs, err := e.stays.CheckedOutForDate(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, outs, 1)
	require.Equal(t, stay.ID, outs[0].ID)
}

func TestArrivalsExcludeAnyStay(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	a := addReservation(t, e, "Guest A", "4711", "105", "2025-06-01", "2025-06-05")
	addReservation(t, e, "Guest B", "4712", "", "2025-06-01", "2025-06-03")

	arrivals, err := e.reservations.ArrivalsForDate(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, arrivals, 2)

	stay, err := e.CheckIn(ctx, a)
	require.NoError(t, err)

	arrivals, err = e.reservations.ArrivalsForDate(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, arrivals, 1)
	require.Equal(t, "Guest B", arrivals[0].GuestName)

	// A completed stay keeps the reservation off the arrivals list too.
	_, err = e.CheckOut(ctx, stay.ID)
	require.NoError(t, err)
	arrivals, err = e.reservations.ArrivalsForDate(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, arrivals, 1)
}

func TestSetParking(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	a := addReservation(t, e, "Guest A", "4711", "105", "2025-06-01", "2025-06-05")
	stay, err := e.CheckIn(ctx, a)
	require.NoError(t, err)

	require.NoError(t, e.SetParking(ctx, stay.ID, "P3", "B-AB 1234", "until noon"))
	list, err := e.stays.ParkingForDate(ctx, "2025-06-02")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].ParkingSpace)
	require.Equal(t, "P3", *list[0].ParkingSpace)

	// Blank values clear the register.
	require.NoError(t, e.SetParking(ctx, stay.ID, "", "", ""))
	list, err = e.stays.ParkingForDate(ctx, "2025-06-02")
	require.NoError(t, err)
	require.Empty(t, list)

	err = e.SetParking(ctx, 99999, "P1", "", "")
	require.Error(t, err)
	require.Equal(t, KindNotFound, KindOf(err))
}
