package messaging

import (
	"time"

	"timesheetsync.service/internal/core/model"
)

// SyncEvent is the JSON payload delivered to the sync queue. It carries
// everything the worker needs to execute the payroll effect without
// re-reading the webhook.
type SyncEvent struct {
	Record       model.CanonicalTimesheetRecord `json:"record"`
	Worker       model.WorkerDetails            `json:"worker"`
	ActionType   model.ActionType               `json:"actionType"`
	SyncState    model.SyncState                `json:"syncState"`
	ScheduleName string                         `json:"scheduleName,omitempty"`
}

// SettlementEvent is the fire-and-forget notification to the companion
// process responsible for deferred-trigger bookkeeping, published when a
// record reaches its terminal sync state.
type SettlementEvent struct {
	TimeActivityID string          `json:"timeActivityId"`
	ScheduleAction string          `json:"scheduleAction"`
	ScheduleName   string          `json:"scheduleName"`
	SyncState      model.SyncState `json:"syncState"`
	SettledAt      time.Time       `json:"settledAt"`
}
