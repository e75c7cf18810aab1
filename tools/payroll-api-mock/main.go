package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// A simple in-memory stand-in for the payroll worked-shifts API, useful for
// running the sync worker locally without real payroll credentials.

type workedShiftRequest struct {
	WorkerID               string `json:"workerId"`
	ExternalWorkerID       string `json:"externalWorkerId"`
	ShiftStartEpochSeconds int64  `json:"shiftStartEpochSeconds"`
	ShiftEndEpochSeconds   int64  `json:"shiftEndEpochSeconds"`
	Note                   string `json:"note"`
}

type mockStore struct {
	mu     sync.Mutex
	shifts map[string]workedShiftRequest
}

func (s *mockStore) createShift(w http.ResponseWriter, r *http.Request) {
	var req workedShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"errorCode": 400, "errorMessage": "bad request body"})
		return
	}
	if req.WorkerID == "" && req.ExternalWorkerID == "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{"errorCode": 422, "errorMessage": "worker identifier required"})
		return
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.shifts[id] = req
	s.mu.Unlock()

	log.Printf("Created worked shift %s for worker %s (%d -> %d)", id, req.WorkerID, req.ShiftStartEpochSeconds, req.ShiftEndEpochSeconds)
	json.NewEncoder(w).Encode(map[string]any{"workedShiftId": id})
}

func (s *mockStore) updateShift(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["shiftId"]

	var req workedShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"errorCode": 400, "errorMessage": "bad request body"})
		return
	}

	s.mu.Lock()
	_, ok := s.shifts[id]
	if ok {
		s.shifts[id] = req
	}
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"errorCode": 404, "errorMessage": "worked shift not found"})
		return
	}

	log.Printf("Updated worked shift %s", id)
	json.NewEncoder(w).Encode(map[string]any{"workedShiftId": id})
}

func (s *mockStore) deleteShift(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["shiftId"]

	s.mu.Lock()
	_, ok := s.shifts[id]
	delete(s.shifts, id)
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	log.Printf("Deleted worked shift %s", id)
	w.WriteHeader(http.StatusNoContent)
}

func main() {
	store := &mockStore{shifts: make(map[string]workedShiftRequest)}

	r := mux.NewRouter()
	r.HandleFunc("/api/v2/labor/timesheet/worked-shifts/epoch", store.createShift).Methods(http.MethodPost)
	r.HandleFunc("/api/v2/labor/timesheet/worked-shifts/epoch/{shiftId}", store.updateShift).Methods(http.MethodPut)
	r.HandleFunc("/api/v2/labor/timesheet/worked-shifts/{shiftId}", store.deleteShift).Methods(http.MethodDelete)

	log.Println("Payroll API mock server starting on port 8081...")
	log.Fatal(http.ListenAndServe(":8081", r))
}
