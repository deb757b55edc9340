package log

import (
	"time"
)

// Event is one captured provisioning record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the provisioning session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Category classifies the record.
	Category Category `cbor:"3,keyasint"`

	// Namespace and EventID identify a routed event.
	Namespace string `cbor:"4,keyasint,omitempty"`
	EventID   string `cbor:"5,keyasint,omitempty"`

	// Scheme is the transport scheme of the session.
	Scheme string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (at most one is set).
	Routed     *RoutedEventData `cbor:"7,keyasint,omitempty"`
	Transition *TransitionData  `cbor:"8,keyasint,omitempty"`
	Error      *ErrorEventData  `cbor:"9,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryEvent indicates an event delivered to the router.
	CategoryEvent Category = 0
	// CategoryState indicates a state transition.
	CategoryState Category = 1
	// CategoryError indicates a failed side effect or setup step.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryEvent:
		return "EVENT"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name as printed by String.
func ParseCategory(s string) (Category, bool) {
	for _, c := range []Category{CategoryEvent, CategoryState, CategoryError} {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// RoutedEventData describes how the router handled an event.
type RoutedEventData struct {
	// Detail is a printable form of the event. Passwords are never included.
	Detail string `cbor:"1,keyasint,omitempty"`

	// Actions lists the side effects the router requested.
	Actions []string `cbor:"2,keyasint,omitempty"`

	// Ignored is true when the event id is not routed.
	Ignored bool `cbor:"3,keyasint,omitempty"`

	// Outcome is the session outcome after the event.
	Outcome string `cbor:"4,keyasint,omitempty"`
}

// TransitionData captures a lifecycle change.
type TransitionData struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what changed state.
type StateEntity uint8

const (
	// StateEntitySession indicates a session outcome change.
	StateEntitySession StateEntity = 0
	// StateEntityManager indicates a provisioning manager state change.
	StateEntityManager StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntitySession:
		return "SESSION"
	case StateEntityManager:
		return "MANAGER"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures a failed operation.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
