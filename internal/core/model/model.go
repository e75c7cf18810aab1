package model

import (
	"strings"
	"time"
)

// ActivityType identifies the kind of timesheet activity CT emits.
type ActivityType string

const (
	ActivityShift   ActivityType = "shift"
	ActivityTimeOff ActivityType = "time_off"
)

// EventType is the raw event classification from the CT webhook
// (create, edit, delete, shift_declined, time_off_declined, ...).
type EventType string

// IsRetraction reports whether the event retracts a previously reported
// activity. Declined events count: a declined shift must be removed from
// payroll the same way a deleted one is.
func (e EventType) IsRetraction() bool {
	s := strings.ToLower(string(e))
	return strings.Contains(s, "delete") || strings.Contains(s, "declined")
}

// ActionType is the effect to apply against the payroll system.
type ActionType string

const (
	ActionCreate ActionType = "create"
	ActionUpdate ActionType = "update"
	ActionDelete ActionType = "delete"
)

// SyncState tracks whether a record's payroll effect is pending, deferred,
// to-be-retracted or settled. The zero value means no state has been
// resolved yet.
type SyncState string

const (
	SyncStateUnset     SyncState = ""
	SyncStateScheduled SyncState = "SCHEDULED"
	SyncStateSent      SyncState = "SENT"
	SyncStateDelete    SyncState = "DELETE"
)

// WebhookEvent is the decoded CT webhook payload before normalization.
// Pointer fields are absent for point-in-time events (e.g. plain deletes).
type WebhookEvent struct {
	RequestID           string   `json:"requestId"`
	Company             string   `json:"company"`
	TimeActivityID      string   `json:"timeActivityId"`
	ConnecteamUserID    string   `json:"userId"`
	TimeClockID         string   `json:"timeClockId"`
	ActivityType        string   `json:"activityType"`
	EventType           string   `json:"eventType"`
	EventTimestamp      int64    `json:"eventTimestamp"`
	StartTimestamp      *int64   `json:"startTimestamp,omitempty"`
	EndTimestamp        *int64   `json:"endTimestamp,omitempty"`
	StartTimezone       string   `json:"startTimezone,omitempty"`
	EndTimezone         string   `json:"endTimezone,omitempty"`
	CreatedAt           *int64   `json:"createdAt,omitempty"`
	ModifiedAt          *int64   `json:"modifiedAt,omitempty"`
	JobID               string   `json:"jobId,omitempty"`
	SubJobID            string   `json:"subJobId,omitempty"`
	IsAutoClockOut      bool     `json:"isAutoClockOut,omitempty"`
	TimeOffPolicyTypeID string   `json:"timeOffPolicyTypeId,omitempty"`
	TimeOffDuration     *float64 `json:"timeOffDurationValue,omitempty"`
	TimeOffIsAllDay     bool     `json:"timeOffIsAllDay,omitempty"`
}

// CanonicalTimesheetRecord is the normalized, typed representation of one
// webhook delivery. It is immutable once built and persisted keyed by
// TimeActivityID, the stable business key assigned by CT.
type CanonicalTimesheetRecord struct {
	RequestID        string       `json:"requestId"`
	Company          string       `json:"company"`
	TimeActivityID   string       `json:"timeActivityId"`
	ConnecteamUserID string       `json:"connecteamUserId"`
	TimeClockID      string       `json:"timeClockId"`
	ActivityType     ActivityType `json:"activityType"`
	EventType        EventType    `json:"eventType"`
	EventTimestamp   time.Time    `json:"eventTimestamp"`

	StartTimestamp *int64     `json:"startTimestamp,omitempty"`
	EndTimestamp   *int64     `json:"endTimestamp,omitempty"`
	StartTimezone  string     `json:"startTimezone,omitempty"`
	EndTimezone    string     `json:"endTimezone,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`

	JobID               string `json:"jobId,omitempty"`
	SubJobID            string `json:"subJobId,omitempty"`
	IsAutoClockOut      bool   `json:"isAutoClockOut,omitempty"`
	TimeOffPolicyTypeID string `json:"timeOffPolicyTypeId,omitempty"`

	// Local date/time strings derived from the start/end timezone pair,
	// kept for audit and for the payroll note text.
	ShiftStartDate string `json:"shiftStartDate,omitempty"`
	ShiftEndDate   string `json:"shiftEndDate,omitempty"`
	ShiftStartTime string `json:"shiftStartTime,omitempty"`
	ShiftEndTime   string `json:"shiftEndTime,omitempty"`

	// ContentHash is an MD5 digest over the payroll-relevant fields.
	// Equal business key + equal hash means the delivery is semantically
	// identical to what is already stored.
	ContentHash string `json:"contentHash"`
}

// EndsAfter reports whether the record carries an end timestamp strictly in
// the future of now, i.e. the shift has not yet ended.
func (r *CanonicalTimesheetRecord) EndsAfter(now time.Time) bool {
	return r.EndTimestamp != nil && time.Unix(*r.EndTimestamp, 0).After(now)
}

// SyncRecord is the durable sync state attached to a business key.
type SyncRecord struct {
	TimeActivityID string     `json:"timeActivityId"`
	ActionType     ActionType `json:"actionType"`
	SyncState      SyncState  `json:"syncState"`
	ContentHash    string     `json:"contentHash"`
}

// WorkerDetails is the payroll identity and pay context for one CT user,
// resolved from the workers reference tables.
type WorkerDetails struct {
	WorkerID         string   `json:"workerId"`
	ExternalWorkerID *string  `json:"externalWorkerId"`
	FullName         string   `json:"fullName"`
	Note             string   `json:"note"`
	OverrideRate     *float64 `json:"overrideRate"`
}

// HasPayrollIdentity reports whether at least one payroll-side worker
// identifier is present. Without one no payroll effect is possible.
func (w *WorkerDetails) HasPayrollIdentity() bool {
	return w.WorkerID != "" || (w.ExternalWorkerID != nil && *w.ExternalWorkerID != "")
}

// PayrollShiftRecord is the latest known outcome of a payroll API
// interaction for one (worker, business key) pair. Failed attempts are
// stored too, with a placeholder shift id, so they show up as first-class
// rows rather than discarded errors.
type PayrollShiftRecord struct {
	PayrollShiftID   string     `json:"payrollShiftId"`
	WorkerID         string     `json:"workerId"`
	ExternalWorkerID *string    `json:"externalWorkerId"`
	FullName         string     `json:"fullName"`
	TimeActivityID   string     `json:"timeActivityId"`
	ActionType       ActionType `json:"actionType"`
	EventType        EventType  `json:"eventType"`
	Note             string     `json:"note"`
	StatusCode       int        `json:"statusCode"`
	StatusMessage    string     `json:"statusMessage"`
	LoadedAt         time.Time  `json:"loadedAt"`
}

// PlaceholderShiftID derives the deterministic shift id used to persist
// outcomes that produced no real payroll shift id, so the upsert key is
// always defined.
func PlaceholderShiftID(timeActivityID string) string {
	return timeActivityID + "_Null"
}

// IsPlaceholder reports whether the record carries a synthesized shift id
// rather than one assigned by the payroll system.
func (p *PayrollShiftRecord) IsPlaceholder() bool {
	return p.PayrollShiftID == PlaceholderShiftID(p.TimeActivityID)
}
