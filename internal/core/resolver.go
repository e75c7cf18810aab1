package core

import (
	"context"
	"time"

	"timesheetsync.service/internal/core/model"
	"timesheetsync.service/internal/ports/repository"
)

// Resolution is the resolver's verdict for one canonical record. It is the
// single source of truth for all downstream branching: whether to send to
// payroll now, register a deferred send, or cancel a previously registered
// one.
type Resolution struct {
	ActionType model.ActionType
	SyncState  model.SyncState

	// PriorState is the sync state stored before this event arrived. It is
	// carried forward because it determines whether a deferred send must be
	// canceled.
	PriorState model.SyncState

	// Unchanged is set when the stored content hash matches the incoming
	// record, meaning the delivery is a duplicate and must not re-trigger a
	// payroll effect.
	Unchanged bool
}

// RequiresPayrollEffect reports whether the orchestrator should act on this
// resolution.
func (r Resolution) RequiresPayrollEffect() bool {
	if r.SyncState == model.SyncStateUnset || r.Unchanged {
		return false
	}
	return r.SyncState == model.SyncStateSent || r.SyncState == model.SyncStateDelete
}

// Resolver classifies an inbound record against prior history. Its only
// I/O is the single sync-record lookup.
type Resolver struct {
	repo repository.Repository
}

func NewResolver(repo repository.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve derives the action type and sync state for rec as of now.
func (r *Resolver) Resolve(ctx context.Context, rec *model.CanonicalTimesheetRecord, now time.Time) (Resolution, error) {
	prior, err := r.repo.GetSyncRecord(ctx, rec.TimeActivityID)
	if err != nil {
		return Resolution{}, err
	}

	var res Resolution
	switch {
	case prior == nil:
		res.ActionType = model.ActionCreate
	case rec.EventType.IsRetraction():
		res.ActionType = model.ActionDelete
		res.PriorState = prior.SyncState
	default:
		res.ActionType = model.ActionUpdate
		res.PriorState = prior.SyncState
		res.Unchanged = prior.ContentHash != "" && prior.ContentHash == rec.ContentHash
	}

	res.SyncState = classifySyncState(rec, res.ActionType, res.PriorState, now)
	return res, nil
}

// classifySyncState applies the sync-state rules in order: a future
// clock-out defers the send, a past one sends immediately, deletes always
// retract, and a record with no end timestamp retracts a previously
// scheduled send. Anything else stays unset, meaning no payroll send and
// no trigger operation.
func classifySyncState(rec *model.CanonicalTimesheetRecord, action model.ActionType, priorState model.SyncState, now time.Time) model.SyncState {
	if rec.EndTimestamp != nil && action != model.ActionDelete {
		if rec.EndsAfter(now) {
			return model.SyncStateScheduled
		}
		return model.SyncStateSent
	}
	if action == model.ActionDelete {
		return model.SyncStateDelete
	}
	if rec.EndTimestamp == nil && priorState == model.SyncStateScheduled && action == model.ActionCreate {
		return model.SyncStateDelete
	}
	return model.SyncStateUnset
}
