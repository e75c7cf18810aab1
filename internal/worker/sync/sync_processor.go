package sync

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"timesheetsync.service/internal/core"
	"timesheetsync.service/internal/core/model"
	"timesheetsync.service/internal/ports/messaging"
	"timesheetsync.service/internal/ports/repository"
)

// SyncProcessor handles jobs from the sync queue, which involves calling the
// payroll API. It uses a circuit breaker to avoid hammering the payroll
// system if it's having issues.
type SyncProcessor struct {
	Repo         repository.Repository
	orchestrator *core.Orchestrator
	coordinator  *core.Coordinator
	alerts       core.AlertService
	cb           *gobreaker.CircuitBreaker
}

// NewProcessor creates a new processor for the sync queue. It sets up a
// circuit breaker to protect the payroll API from being overwhelmed.
func NewProcessor(r repository.Repository, orch *core.Orchestrator, coord *core.Coordinator, alerts core.AlertService) *SyncProcessor {
	settings := gobreaker.Settings{
		Name:        "Payroll-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is bigger then 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &SyncProcessor{
		Repo:         r,
		orchestrator: orch,
		coordinator:  coord,
		alerts:       alerts,
		cb:           gobreaker.NewCircuitBreaker(settings),
	}
}

// Process is the core logic for handling a message from the sync queue.
// It applies the payroll effect through a circuit breaker, settles the sync
// state where the message asks for it, and handles retries with exponential
// backoff derived from the delivery attempt count.
func (p *SyncProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.SyncEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal sync event")
		return false, 0, err // Do not retry on malformed message
	}

	logger := log.Ctx(ctx).With().
		Str("time_activity_id", event.Record.TimeActivityID).
		Str("action_type", string(event.ActionType)).
		Str("sync_state", string(event.SyncState)).
		Logger()
	logger.Info().Msg("Processing sync event")

	attempt := receiveCount(msg)

	// A redelivered message may describe work that already settled. Deferred
	// and retraction records flip to SENT exactly once, so a stored SENT
	// state means this delivery is a duplicate.
	if event.SyncState == model.SyncStateScheduled || event.SyncState == model.SyncStateDelete {
		stored, err := p.Repo.GetSyncRecord(ctx, event.Record.TimeActivityID)
		if err != nil {
			return true, calculateBackoff(attempt), err
		}
		if stored != nil && stored.SyncState == model.SyncStateSent {
			logger.Info().Msg("Record already settled. Skipping duplicate delivery.")
			return false, 0, nil
		}
	}

	res, err := p.cb.Execute(func() (interface{}, error) {
		return p.orchestrator.Execute(ctx, &event.Record, &event.Worker, event.ActionType)
	})
	if err != nil {
		return p.classifyFailure(ctx, &event, attempt, err)
	}
	outcome := res.(core.Outcome)

	if event.SyncState == model.SyncStateScheduled || event.SyncState == model.SyncStateDelete {
		if err := p.coordinator.Settle(ctx, event.Record.TimeActivityID); err != nil {
			// The payroll effect landed but the trigger is still registered.
			// Settle is idempotent, so redeliver and try again.
			return true, calculateBackoff(attempt), err
		}
	}

	logger.Info().
		Int("status_code", outcome.StatusCode).
		Bool("no_op", outcome.NoOp).
		Msg("Sync event processed")
	return false, 0, nil
}

// classifyFailure decides whether a failed orchestration is worth another
// delivery. Payroll rejections are terminal: the attempt is already on file
// as a failure row, so the message is alerted on and dropped rather than
// replayed against an API that just said no.
func (p *SyncProcessor) classifyFailure(ctx context.Context, event *messaging.SyncEvent, attempt int, err error) (bool, int32, error) {
	if errors.Is(err, gobreaker.ErrOpenState) {
		log.Ctx(ctx).Warn().Msg("Circuit Breaker is OPEN; skipping Payroll API call")
		return true, calculateBackoff(attempt), err
	}

	var apiErr *core.PayrollAPIError
	if errors.As(err, &apiErr) {
		log.Ctx(ctx).Error().
			Int("payroll_status", apiErr.Code).
			Str("payroll_message", apiErr.Message).
			Msg("Payroll rejected the shift. Outcome persisted, alerting ops.")

		row := &model.PayrollShiftRecord{
			PayrollShiftID: model.PlaceholderShiftID(event.Record.TimeActivityID),
			WorkerID:       event.Worker.WorkerID,
			TimeActivityID: event.Record.TimeActivityID,
			ActionType:     event.ActionType,
			EventType:      event.Record.EventType,
			StatusCode:     apiErr.Code,
			StatusMessage:  apiErr.Message,
		}
		if alertErr := p.alerts.SendPayrollFailureAlert(ctx, row); alertErr != nil {
			log.Ctx(ctx).Warn().Err(alertErr).Msg("Failed to send payroll failure alert")
		}
		return false, 0, nil
	}

	// Store outages and payroll transport errors are transient. Redeliver.
	return true, calculateBackoff(attempt), err
}

// receiveCount extracts how many times SQS has delivered this message so the
// backoff grows across redeliveries.
func receiveCount(msg types.Message) int {
	raw, ok := msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// calculateBackoff determines how long to wait before retrying a failed job.
// It increases the delay exponentially with each retry.
func calculateBackoff(retryCount int) int32 {
	backoff := int32(math.Pow(2, float64(retryCount)) * 10)
	if backoff > 3600 {
		return 3600 // max at 1 hour
	}
	return backoff
}
