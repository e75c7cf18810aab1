package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"timesheetsync.service/internal/core"
	"timesheetsync.service/internal/core/model"
)

type TimesheetHandler struct {
	Service *core.TimesheetSyncService
}

// HandleWebhook receives one CT timesheet event and runs it through the sync
// pipeline synchronously. The source retries on anything but 2xx, so the
// status code is the contract: 400 for events that can never succeed, 404
// when the worker has no payroll identity, 500 for transient faults worth
// redelivering.
func (h *TimesheetHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var ev model.WebhookEvent

	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if ev.RequestID == "" {
		ev.RequestID = uuid.New().String()
	}

	err := h.Service.ProcessWebhook(r.Context(), ev)
	if err != nil {
		var malformed *core.MalformedEventError
		var notFound *core.WorkerNotFoundError
		switch {
		case errors.As(err, &malformed):
			http.Error(w, malformed.Error(), http.StatusBadRequest)
		case errors.As(err, &notFound):
			http.Error(w, notFound.Error(), http.StatusNotFound)
		default:
			log.Ctx(r.Context()).Error().Err(err).
				Str("time_activity_id", ev.TimeActivityID).
				Msg("Webhook processing failed")
			http.Error(w, "Service error processing event", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"message":   "Timesheet event accepted.",
		"requestId": ev.RequestID,
	})
}
