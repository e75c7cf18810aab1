package repository

import (
	"context"

	"timesheetsync.service/internal/core/model"
)

// Repository contract for the timesheet sync store. Lookups return
// (nil, nil) when no row exists; only store unavailability is an error.
type Repository interface {
	// UpsertTimesheet inserts or fully overwrites the canonical record row
	// for its business key in one atomic statement (last-write-wins).
	UpsertTimesheet(ctx context.Context, rec *model.CanonicalTimesheetRecord, action model.ActionType, state model.SyncState) error

	// GetSyncRecord fetches the stored action/state/hash for a business key.
	GetSyncRecord(ctx context.Context, timeActivityID string) (*model.SyncRecord, error)

	// UpdateSyncState moves the stored sync state for a business key. Used
	// only by the deferred-send coordinator on settlement.
	UpdateSyncState(ctx context.Context, timeActivityID string, state model.SyncState) error

	// UpsertPayrollShift records the latest payroll interaction outcome,
	// keyed by the (possibly placeholder) payroll shift id.
	UpsertPayrollShift(ctx context.Context, rec *model.PayrollShiftRecord) error

	// FindPayrollShift returns the latest successfully created payroll
	// shift for a business key, used to find the id for a compensating
	// delete. Failed-attempt placeholder rows are not returned.
	FindPayrollShift(ctx context.Context, timeActivityID string) (*model.PayrollShiftRecord, error)

	// FindWorkerDetails resolves payroll identity and pay context for the
	// CT user on the record. The query shape depends on the event class:
	// retractions need identity only, time off joins the time-off policy
	// rates, shifts join hourly pay rates and job titles.
	FindWorkerDetails(ctx context.Context, rec *model.CanonicalTimesheetRecord) (*model.WorkerDetails, error)
}
