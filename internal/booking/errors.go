package booking

import "errors"

// Kind classifies admission failures so callers can decide how to recover.
type Kind int

const (
	// KindValidation marks malformed or ordering-violating input.
	KindValidation Kind = iota + 1
	// KindConflict marks a room or person double-booking.
	KindConflict
	// KindNotFound marks a missing room, person, or booking.
	KindNotFound
	// KindUnavailable marks an unreachable reference service.
	KindUnavailable
)

// Error is a structured admission failure with a human-readable reason.
// It is always returned as a value, never raised as a panic.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// ErrValidation, ErrConflict, ErrNotFound, ErrUnavailable build typed errors.
func ErrValidation(message string) *Error  { return newError(KindValidation, message) }
func ErrConflict(message string) *Error    { return newError(KindConflict, message) }
func ErrNotFound(message string) *Error    { return newError(KindNotFound, message) }
func ErrUnavailable(message string) *Error { return newError(KindUnavailable, message) }

// KindOf extracts the failure kind, or 0 when err is not an admission error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Sentinel errors returned by Repository implementations. The service maps
// them onto the caller-facing messages.
var (
	// ErrBookingNotFound is returned when no active booking has the id.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrRoomSlotTaken is returned by the atomic write path when the room
	// slot was taken between the pre-check and the commit.
	ErrRoomSlotTaken = errors.New("room slot taken")
	// ErrOwnerSlotTaken is the same race detected on the owning person.
	ErrOwnerSlotTaken = errors.New("owner slot taken")
)
