package model

// Reservation is a booked stay intent imported from the reservation system.
// Dates are ISO "YYYY-MM-DD" strings exactly as stored; arrival is always
// strictly before departure.  RoomNumber stays nil until a room has been
// allocated through the engine, and is only ever written through the
// allocation validator.  The descriptive fields (channel, rate, remarks,
// contacts) are opaque to the engine and carried for the desk UI.
type Reservation struct {
	ID            int64   `json:"id"`
	ArrivalDate   string  `json:"arrival_date"`          // reservations.arrival_date
	DepartDate    string  `json:"depart_date"`           // reservations.depart_date
	RoomNumber    *string `json:"room_number,omitempty"` // reservations.room_number (nullable)
	RoomTypeCode  string  `json:"room_type_code,omitempty"`
	ReservationNo string  `json:"reservation_no"`
	GuestName     string  `json:"guest_name"`
	MainClient    string  `json:"main_client,omitempty"`
	Adults        int     `json:"adults,omitempty"`
	Children      int     `json:"children,omitempty"`
	TotalGuests   int     `json:"total_guests,omitempty"`
	Nights        int     `json:"nights,omitempty"`
	MealPlan      string  `json:"meal_plan,omitempty"`
	RateCode      string  `json:"rate_code,omitempty"`
	Channel       string  `json:"channel,omitempty"`
	MainRemark    string  `json:"main_remark,omitempty"`
	TotalRemarks  string  `json:"total_remarks,omitempty"`
	ContactName   string  `json:"contact_name,omitempty"`
	ContactPhone  string  `json:"contact_phone,omitempty"`
	ContactEmail  string  `json:"contact_email,omitempty"`
	Status        string  `json:"reservation_status"` // reservations.reservation_status
	CreatedAt     string  `json:"created_at,omitempty"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
}
