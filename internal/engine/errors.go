package engine

import "fmt"

// Kind classifies an engine failure so the transport layer can pick a status
// code without string matching.
type Kind string

const (
	KindInvalidRoomNumber  Kind = "INVALID_ROOM_NUMBER"
	KindRoomConflict       Kind = "ROOM_CONFLICT"
	KindNotFound           Kind = "NOT_FOUND"
	KindPreconditionFailed Kind = "PRECONDITION_FAILED"
	KindStorageFailure     Kind = "STORAGE_FAILURE"
)

// Error is the engine's failure value.  Business failures (bad room number,
// conflict, missing record, wrong state) carry a desk-facing Message;
// storage failures additionally wrap the underlying driver error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func invalid(msg string) *Error {
	return &Error{Kind: KindInvalidRoomNumber, Message: msg}
}

func conflict(msg string) *Error {
	return &Error{Kind: KindRoomConflict, Message: msg}
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func precondition(format string, args ...any) *Error {
	return &Error{Kind: KindPreconditionFailed, Message: fmt.Sprintf(format, args...)}
}

func storage(op string, err error) *Error {
	return &Error{Kind: KindStorageFailure, Message: op, Err: err}
}

// KindOf returns the Kind of an engine error, or KindStorageFailure for any
// other error so unknown failures surface as 500s rather than leaking.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindStorageFailure
}
