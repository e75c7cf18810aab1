package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"timesheetsync.service/internal/api/handler"
	"timesheetsync.service/internal/core"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(service *core.TimesheetSyncService) *mux.Router {

	webhookHandler := handler.TimesheetHandler{
		Service: service,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/timesheet-webhook", webhookHandler.HandleWebhook).Methods(http.MethodPost)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
