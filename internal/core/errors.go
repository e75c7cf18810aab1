package core

import "fmt"

// MalformedEventError marks a webhook payload that is missing required
// fields. It is unrecoverable per-event and must not be retried.
type MalformedEventError struct {
	Field string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed webhook event: missing %s", e.Field)
}

// WorkerNotFoundError is returned when no payroll worker can be resolved for
// the CT user on the event. The webhook answers 404 and the event is not
// retried.
type WorkerNotFoundError struct {
	ConnecteamUserID string
}

func (e *WorkerNotFoundError) Error() string {
	return fmt.Sprintf("no actionable worker found for connecteam user %s", e.ConnecteamUserID)
}

// PayrollAPIError is a non-2xx payroll response other than 404-on-delete.
// The outcome is still persisted as a first-class row before this error is
// surfaced.
type PayrollAPIError struct {
	Code    int
	Message string
}

func (e *PayrollAPIError) Error() string {
	return fmt.Sprintf("payroll api error %d: %s", e.Code, e.Message)
}

// SchedulerError is a deferred-trigger create/cancel failure. Callers must
// not advance the sync state when they see it, so a redelivery retries the
// same transition.
type SchedulerError struct {
	Op   string
	Name string
	Err  error
}

func (e *SchedulerError) Error() string {
	return fmt.Sprintf("scheduler %s failed for %s: %v", e.Op, e.Name, e.Err)
}

func (e *SchedulerError) Unwrap() error { return e.Err }
