package repository

import "fmt"

// StoreUnavailableError wraps an underlying store failure. It is not
// retried internally; the invocation fails and recovery relies on the
// webhook source redelivering the event.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }
