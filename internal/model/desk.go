package model

// Task is a handover note for a shift.  Plain bookkeeping, no invariants.
type Task struct {
	ID         int64  `json:"id"`
	TaskDate   string `json:"task_date"`
	Title      string `json:"title"`
	CreatedBy  string `json:"created_by,omitempty"`
	AssignedTo string `json:"assigned_to,omitempty"`
	Comment    string `json:"comment,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// NoShow records a reservation whose guest never arrived, and whether the
// no-show fee was charged.
type NoShow struct {
	ID          int64  `json:"id"`
	ArrivalDate string `json:"arrival_date"`
	GuestName   string `json:"guest_name"`
	MainClient  string `json:"main_client,omitempty"`
	Charged     bool   `json:"charged"`
	Comment     string `json:"comment,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}
