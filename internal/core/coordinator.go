package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"timesheetsync.service/internal/core/model"
	"timesheetsync.service/internal/ports/messaging"
	"timesheetsync.service/internal/ports/repository"
	"timesheetsync.service/internal/ports/scheduling"
)

// Coordinator owns the deferred-send side of the sync state machine. It
// registers named triggers for future clock-outs, cancels them on
// retraction, and is the only component allowed to move a record into the
// terminal SENT state.
type Coordinator struct {
	repo      repository.Repository
	scheduler scheduling.Scheduler
	producer  messaging.QueueProducer
}

func NewCoordinator(repo repository.Repository, scheduler scheduling.Scheduler, producer messaging.QueueProducer) *Coordinator {
	return &Coordinator{repo: repo, scheduler: scheduler, producer: producer}
}

// Schedule registers the deferred trigger that will redeliver the sync
// event once the shift's clock-out time is reached. The trigger name is a
// pure function of the business key, so redelivered webhooks collapse to
// one effective registration. The record's sync state is left SCHEDULED;
// it only becomes SENT when the trigger settles.
func (c *Coordinator) Schedule(ctx context.Context, timeActivityID string, fireAt time.Time, event messaging.SyncEvent) error {
	name := scheduling.TriggerName(timeActivityID)
	event.ScheduleName = name

	payload, err := json.Marshal(event)
	if err != nil {
		return &SchedulerError{Op: "create", Name: name, Err: err}
	}

	trigger := scheduling.Trigger{
		Name:    name,
		FireAt:  fireAt,
		Payload: payload,
	}
	if err := c.scheduler.CreateTrigger(ctx, trigger); err != nil {
		return &SchedulerError{Op: "create", Name: name, Err: err}
	}

	log.Ctx(ctx).Info().
		Str("time_activity_id", timeActivityID).
		Str("schedule_name", name).
		Time("fire_at", fireAt).
		Msg("Deferred trigger registered")
	return nil
}

// Settle finalizes a SCHEDULED or DELETE record after its payroll effect
// has been applied: it cancels the named trigger (a no-op if the trigger
// already fired or never existed), durably marks the record SENT, and
// notifies the companion bookkeeping process. If the trigger cancellation
// fails the sync state is left untouched so a redelivery retries the same
// transition.
func (c *Coordinator) Settle(ctx context.Context, timeActivityID string) error {
	name := scheduling.TriggerName(timeActivityID)

	if err := c.scheduler.DeleteTrigger(ctx, name); err != nil {
		return &SchedulerError{Op: "delete", Name: name, Err: err}
	}

	if err := c.repo.UpdateSyncState(ctx, timeActivityID, model.SyncStateSent); err != nil {
		return err
	}

	// Fire-and-forget: the settlement already happened, a lost
	// notification only delays trigger bookkeeping.
	notice := messaging.SettlementEvent{
		TimeActivityID: timeActivityID,
		ScheduleAction: "DELETE",
		ScheduleName:   name,
		SyncState:      model.SyncStateSent,
		SettledAt:      time.Now().UTC(),
	}
	if err := c.producer.PublishSettlement(ctx, notice); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("schedule_name", name).
			Msg("Failed to publish settlement notification")
	}

	log.Ctx(ctx).Info().
		Str("time_activity_id", timeActivityID).
		Str("schedule_name", name).
		Msg("Sync state settled to SENT")
	return nil
}
