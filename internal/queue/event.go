package queue

// StayEventQueue is the durable queue stay lifecycle events are published to.
const StayEventQueue = "stay.events"

// Stay event types.
const (
	EventCheckedIn  = "checked_in"
	EventCheckedOut = "checked_out"
)

// StayEvent is the message emitted after a check-in or checkout commits.
// Consumers get the denormalized guest fields so they never need to query
// the service back.
type StayEvent struct {
	Type            string `json:"type"`
	StayID          int64  `json:"stay_id"`
	ReservationID   int64  `json:"reservation_id"`
	RoomNumber      string `json:"room_number"`
	GuestName       string `json:"guest_name"`
	ReservationNo   string `json:"reservation_no"`
	CheckinPlanned  string `json:"checkin_planned"`
	CheckoutPlanned string `json:"checkout_planned"`
	OccurredAt      string `json:"occurred_at"`
}
