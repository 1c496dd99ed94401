package model

// Room statuses.  Status is derived: it is a pure function of the current
// set of CHECKED_IN stays referencing the room and is only written by the
// lifecycle engine and the synchronizer, never set directly for business
// reasons.
const (
	RoomVacant   = "VACANT"
	RoomOccupied = "OCCUPIED"
)

// Room is one unit of physical inventory.  RoomNumber is the canonical
// integer string (no leading zeros, no decimal point) and must fall inside
// one of the configured inventory blocks.
type Room struct {
	RoomNumber string `json:"room_number"` // rooms.room_number (primary key)
	RoomType   string `json:"room_type,omitempty"`
	Floor      int    `json:"floor,omitempty"`
	Status     string `json:"status"`
	IsTwin     bool   `json:"is_twin"`
}
