package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerName(t *testing.T) {
	assert.Equal(t, "submit_timesheet_A1", TriggerName("A1"))
}

func TestCreateTriggerPutsNamedSchedule(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPScheduler(srv.URL)
	fireAt := time.Date(2025, 9, 16, 17, 0, 0, 0, time.UTC)
	err := s.CreateTrigger(context.Background(), Trigger{
		Name:    TriggerName("A1"),
		FireAt:  fireAt,
		Payload: json.RawMessage(`{"record":{"timeActivityId":"A1"}}`),
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/schedules/submit_timesheet_A1", gotPath)
	assert.Equal(t, float64(fireAt.Unix()), gotBody["fireAtEpochSeconds"])
	assert.NotNil(t, gotBody["payload"])
}

func TestCreateTriggerRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHTTPScheduler(srv.URL)
	err := s.CreateTrigger(context.Background(), Trigger{Name: TriggerName("A1")})
	assert.Error(t, err)
}

func TestDeleteTriggerTreatsMissingAsNoOp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewHTTPScheduler(srv.URL)
	err := s.DeleteTrigger(context.Background(), TriggerName("A1"))
	assert.NoError(t, err)
}

func TestDeleteTriggerRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHTTPScheduler(srv.URL)
	err := s.DeleteTrigger(context.Background(), TriggerName("A1"))
	assert.Error(t, err)
}
