package core

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"timesheetsync.service/internal/core/model"
	"timesheetsync.service/internal/ports/messaging"
	"timesheetsync.service/internal/ports/repository"
	"timesheetsync.service/internal/ports/scheduling"
)

// TimesheetSyncService is the webhook-side pipeline: normalize the event,
// resolve the worker, classify action and sync state, persist the
// canonical record, and hand off payroll effects and deferred triggers.
type TimesheetSyncService struct {
	normalizer  *Normalizer
	resolver    *Resolver
	repo        repository.Repository
	coordinator *Coordinator
	producer    messaging.QueueProducer
}

// NewTimesheetSyncService wires up the webhook processing pipeline.
func NewTimesheetSyncService(repo repository.Repository, coordinator *Coordinator, producer messaging.QueueProducer) *TimesheetSyncService {
	return &TimesheetSyncService{
		normalizer:  NewNormalizer(),
		resolver:    NewResolver(repo),
		repo:        repo,
		coordinator: coordinator,
		producer:    producer,
	}
}

// ProcessWebhook handles one CT webhook delivery end to end. Deliveries
// arrive out of order and possibly more than once; every call re-derives
// the classification from current stored state, so redeliveries converge
// to the same end state.
func (s *TimesheetSyncService) ProcessWebhook(ctx context.Context, ev model.WebhookEvent) error {
	now := time.Now().UTC()

	rec, err := s.normalizer.Normalize(ev)
	if err != nil {
		return err
	}

	worker, err := s.repo.FindWorkerDetails(ctx, rec)
	if err != nil {
		return err
	}
	if worker == nil || !worker.HasPayrollIdentity() {
		return &WorkerNotFoundError{ConnecteamUserID: rec.ConnecteamUserID}
	}

	res, err := s.resolver.Resolve(ctx, rec, now)
	if err != nil {
		return err
	}

	if err := s.repo.UpsertTimesheet(ctx, rec, res.ActionType, res.SyncState); err != nil {
		return err
	}

	logger := log.Ctx(ctx).With().
		Str("time_activity_id", rec.TimeActivityID).
		Str("action_type", string(res.ActionType)).
		Str("sync_state", string(res.SyncState)).
		Logger()

	if res.Unchanged {
		logger.Info().Msg("Content hash unchanged. Skipping payroll send.")
		return nil
	}

	event := messaging.SyncEvent{
		Record:     *rec,
		Worker:     *worker,
		ActionType: res.ActionType,
		SyncState:  res.SyncState,
	}

	switch res.SyncState {
	case model.SyncStateScheduled:
		fireAt := time.Unix(*rec.EndTimestamp, 0).UTC()
		if err := s.coordinator.Schedule(ctx, rec.TimeActivityID, fireAt, event); err != nil {
			return err
		}
		// An edit of a shift that was already sent still needs payroll
		// corrected now; the trigger only covers the new clock-out.
		prior, err := s.repo.FindPayrollShift(ctx, rec.TimeActivityID)
		if err != nil {
			return err
		}
		if prior != nil {
			if err := s.producer.PublishSync(ctx, event); err != nil {
				return err
			}
		}
	case model.SyncStateSent, model.SyncStateDelete:
		if res.SyncState == model.SyncStateDelete {
			event.ScheduleName = scheduling.TriggerName(rec.TimeActivityID)
		}
		if err := s.producer.PublishSync(ctx, event); err != nil {
			return err
		}
	case model.SyncStateUnset:
		// Nothing resolvable: persist only, no sends, no trigger work.
		logger.Info().Msg("No sync state resolved. Record persisted only.")
		return nil
	}

	logger.Info().Msg("Webhook processed")
	return nil
}
