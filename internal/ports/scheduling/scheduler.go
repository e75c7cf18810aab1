package scheduling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TriggerName derives the deterministic deferred-trigger name for a
// business key, so create and cancel calls for the same activity always
// address the same schedule.
func TriggerName(timeActivityID string) string {
	return "submit_timesheet_" + timeActivityID
}

// Trigger is a named, time-scheduled redelivery of a sync payload.
type Trigger struct {
	Name    string          `json:"name"`
	FireAt  time.Time       `json:"fireAt"`
	Payload json.RawMessage `json:"payload"`
}

// Scheduler contract for the deferred-trigger service. Both operations are
// idempotent: creating an existing trigger replaces it, deleting a missing
// one is a no-op.
type Scheduler interface {
	CreateTrigger(ctx context.Context, t Trigger) error
	DeleteTrigger(ctx context.Context, name string) error
}

// HTTPScheduler drives the scheduler service over HTTP.
type HTTPScheduler struct {
	client  *http.Client
	baseURL string
}

// NewHTTPScheduler new HTTPScheduler.
func NewHTTPScheduler(baseURL string) *HTTPScheduler {
	return &HTTPScheduler{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

// CreateTrigger registers or replaces the named schedule.
func (s *HTTPScheduler) CreateTrigger(ctx context.Context, t Trigger) error {
	body := map[string]any{
		"fireAtEpochSeconds": t.FireAt.Unix(),
		"payload":            t.Payload,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+"/schedules/"+t.Name, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create scheduler request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call scheduler: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("scheduler returned non-successful status code: %d", resp.StatusCode)
	}
	return nil
}

// DeleteTrigger cancels the named schedule. A 404 means the trigger never
// existed or already fired, which is fine.
func (s *HTTPScheduler) DeleteTrigger(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/schedules/"+name, nil)
	if err != nil {
		return fmt.Errorf("failed to create scheduler request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call scheduler: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("scheduler returned non-successful status code: %d", resp.StatusCode)
	}
	return nil
}
