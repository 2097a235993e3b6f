package models

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide between aborting the run,
// skipping a page, or skipping a single record.
type Kind string

const (
	// KindInvalidCriteria is a caller error raised before any request is made.
	KindInvalidCriteria Kind = "INVALID_CRITERIA"
	// KindStructureChanged means the page no longer has the expected data container.
	KindStructureChanged Kind = "STRUCTURE_CHANGED"
	// KindBlocked means the remote site rejected the request as automated.
	KindBlocked Kind = "BLOCKED"
	// KindHTTPError covers any other non-2xx response.
	KindHTTPError Kind = "HTTP_ERROR"
	// KindNetworkError covers transport failures.
	KindNetworkError Kind = "NETWORK_ERROR"
	// KindPerRecordFetchFailure is a profile fetch or parse failure for one agent.
	KindPerRecordFetchFailure Kind = "PER_RECORD_FETCH_FAILURE"
	// KindMalformedCard is one unusable listing card.
	KindMalformedCard Kind = "MALFORMED_CARD"
)

// Error is the error type used across the harvester.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
