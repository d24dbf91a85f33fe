package ctdf

import (
	"fmt"
	"time"
)

// NetworkError is a failed fetch. Callers may retry it.
type NetworkError struct {
	URI        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.URI, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URI, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError is a malformed or incomplete JSON-LD document
type ParseError struct {
	URI   string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("parsing %s: missing or invalid property %q", e.URI, e.Field)
	}
	return fmt.Sprintf("parsing %s: %v", e.URI, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnreachableDestinationError describes a completed scan that never labelled the destination.
// It is informational, a plan that ends this way still succeeds with no routes.
type UnreachableDestinationError struct {
	Origin       string
	Destination  string
	MaxTransfers int
}

func (e *UnreachableDestinationError) Error() string {
	return fmt.Sprintf("no route from %s to %s within %d transfers", e.Origin, e.Destination, e.MaxTransfers)
}

// IncompleteDataError means the pagination safety bound was hit before the requested horizon was covered
type IncompleteDataError struct {
	Pages   int
	Horizon time.Time
	Reached time.Time
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("stopped after %d pages at %s before reaching %s",
		e.Pages, e.Reached.Format(time.RFC3339), e.Horizon.Format(time.RFC3339))
}

type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError is returned by lookups instead of an empty placeholder record
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find a matching %s for %s", e.Kind, e.ID)
}
