package model

// Stay statuses.  There is no stored EXPECTED state: a reservation without a
// stay row is "expected", and the stay row itself is created by check-in.
const (
	StayCheckedIn  = "CHECKED_IN"
	StayCheckedOut = "CHECKED_OUT"
)

// Storage layouts for the date and timestamp text columns.  ISO ordering
// makes string comparison equivalent to chronological comparison, which the
// overlap queries rely on.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Stay is the authoritative record of a guest physically occupying a room.
// The planned dates mirror the owning reservation's arrival/departure at
// creation time; conflict checks compare planned intervals of CHECKED_IN
// stays only, as half-open ranges [checkin, checkout).  CheckinActual and
// CheckoutActual are UTC "YYYY-MM-DD HH:MM:SS" timestamps; CheckoutActual is
// nil while the guest is in house, and CheckinActual is nil only for stays
// synthesized by a walk-through checkout that never saw an explicit check-in.
type Stay struct {
	ID              int64   `json:"id"`
	ReservationID   int64   `json:"reservation_id"`
	RoomNumber      string  `json:"room_number"`
	Status          string  `json:"status"`
	CheckinPlanned  string  `json:"checkin_planned"`
	CheckoutPlanned string  `json:"checkout_planned"`
	CheckinActual   *string `json:"checkin_actual,omitempty"`
	CheckoutActual  *string `json:"checkout_actual,omitempty"`
	BreakfastCode   string  `json:"breakfast_code,omitempty"`
	Comment         string  `json:"comment,omitempty"`
	ParkingSpace    *string `json:"parking_space,omitempty"`
	ParkingPlate    *string `json:"parking_plate,omitempty"`
	ParkingNotes    *string `json:"parking_notes,omitempty"`
}
