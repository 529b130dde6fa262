package backend

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindRejected is an application-level refusal; Msg is the backend's text.
	KindRejected Kind = iota + 1
	// KindTransport covers network, HTTP status and decode failures.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

type Error struct {
	Op   string
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindRejected {
		return e.Msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Rejected builds the error a backend returns for a refused operation.
func Rejected(op, msg string) error {
	return &Error{Op: op, Kind: KindRejected, Msg: msg}
}

func Transport(op string, err error) error {
	return &Error{Op: op, Kind: KindTransport, Err: err}
}

func IsRejected(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindRejected
}

func IsTransport(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTransport
}

// Message is the text a page shows for err: the backend's own words for a
// rejection, fallback for everything else.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindRejected && e.Msg != "" {
		return e.Msg
	}
	return fallback
}
