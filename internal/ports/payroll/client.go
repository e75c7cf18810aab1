package payroll

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client contract for the payroll worked-shift API. Implementations return
// an error only for transport-level failures; HTTP status classification is
// the caller's job and comes back in ShiftResult.
type Client interface {
	CreateShift(ctx context.Context, req CreateShiftRequest) (*ShiftResult, error)
	UpdateShift(ctx context.Context, shiftID string, req UpdateShiftRequest) (*ShiftResult, error)
	DeleteShift(ctx context.Context, shiftID string) (*ShiftResult, error)
}

// CreateShiftRequest is the payload for submitting a worked shift.
type CreateShiftRequest struct {
	WorkerID                   string   `json:"workerId,omitempty"`
	ExternalWorkerID           *string  `json:"externalWorkerId,omitempty"`
	ShiftStartEpochSeconds     int64    `json:"shiftStartEpochSeconds"`
	ShiftEndEpochSeconds       int64    `json:"shiftEndEpochSeconds"`
	Note                       string   `json:"note,omitempty"`
	CorrectionPaymentTimeframe string   `json:"correctionPaymentTimeframe"`
	OverrideRate               *float64 `json:"-"`
}

// UpdateShiftRequest adjusts an existing shift in place. The compensating
// delete-then-create flow does not use it because it cannot carry a pay
// rate override, but the endpoint exists and is kept available.
type UpdateShiftRequest struct {
	ShiftStartEpochSeconds     int64  `json:"shiftStartEpochSeconds"`
	ShiftEndEpochSeconds       int64  `json:"shiftEndEpochSeconds"`
	Note                       string `json:"note,omitempty"`
	CorrectionPaymentTimeframe string `json:"correctionPaymentTimeframe"`
}

// ShiftResult is the classified outcome of one payroll API call.
type ShiftResult struct {
	StatusCode     int
	PayrollShiftID string
	ErrorCode      int
	ErrorMessage   string
}

type payRate struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// HTTPClient talks to the payroll worked-shift API over HTTP with basic
// auth and a tenant header. Calls carry a 30-second timeout; there is no
// automatic retry.
type HTTPClient struct {
	client   *http.Client
	baseURL  string
	token    string
	tenantID string
}

// NewHTTPClient new HTTPClient for the payroll API.
func NewHTTPClient(baseURL, apiToken, tenantID string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:  baseURL,
		token:    apiToken,
		tenantID: tenantID,
	}
}

// CreateShift submits a new worked shift. A pay-rate override expands into
// the effectiveHourlyPayRate object the API expects.
func (c *HTTPClient) CreateShift(ctx context.Context, req CreateShiftRequest) (*ShiftResult, error) {
	body := map[string]any{
		"shiftStartEpochSeconds":     req.ShiftStartEpochSeconds,
		"shiftEndEpochSeconds":       req.ShiftEndEpochSeconds,
		"correctionPaymentTimeframe": req.CorrectionPaymentTimeframe,
	}
	if req.WorkerID != "" {
		body["workerId"] = req.WorkerID
	}
	if req.ExternalWorkerID != nil && *req.ExternalWorkerID != "" {
		body["externalWorkerId"] = *req.ExternalWorkerID
	}
	if req.Note != "" {
		body["note"] = req.Note
	}
	if req.OverrideRate != nil {
		body["effectiveHourlyPayRate"] = payRate{Amount: *req.OverrideRate, Currency: "USD"}
	}

	url := c.baseURL + "/api/v2/labor/timesheet/worked-shifts/epoch?correction-authorized=false"
	return c.do(ctx, http.MethodPost, url, body)
}

// UpdateShift issues a whole-window update for an existing shift id.
func (c *HTTPClient) UpdateShift(ctx context.Context, shiftID string, req UpdateShiftRequest) (*ShiftResult, error) {
	url := fmt.Sprintf("%s/api/v2/labor/timesheet/worked-shifts/epoch/%s?correction-authorized=false", c.baseURL, shiftID)
	return c.do(ctx, http.MethodPut, url, req)
}

// DeleteShift removes a worked shift. 204 means deleted, 404 means it was
// already absent; both come back as-is for the caller to classify.
func (c *HTTPClient) DeleteShift(ctx context.Context, shiftID string) (*ShiftResult, error) {
	url := fmt.Sprintf("%s/api/v2/labor/timesheet/worked-shifts/%s", c.baseURL, shiftID)
	return c.do(ctx, http.MethodDelete, url, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body any) (*ShiftResult, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payroll api payload: %w", err)
		}
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create payroll api request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-payroll-tenant-id", c.tenantID)
	encoded := base64.StdEncoding.EncodeToString([]byte(c.token))
	req.Header.Set("Authorization", "Basic "+encoded)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call payroll api: %w", err)
	}
	defer resp.Body.Close()

	result := &ShiftResult{StatusCode: resp.StatusCode}
	switch resp.StatusCode {
	case http.StatusOK:
		var success struct {
			WorkedShiftID string `json:"workedShiftId"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&success); err != nil {
			return nil, fmt.Errorf("failed to decode payroll api response: %w", err)
		}
		result.PayrollShiftID = success.WorkedShiftID
	case http.StatusNoContent:
		// Delete success carries no body.
	default:
		var apiErr struct {
			ErrorCode    int    `json:"errorCode"`
			ErrorMessage string `json:"errorMessage"`
		}
		// Some error responses carry no JSON body; keep the HTTP status.
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
			result.ErrorCode = apiErr.ErrorCode
			result.ErrorMessage = apiErr.ErrorMessage
		}
		if result.ErrorCode == 0 {
			result.ErrorCode = resp.StatusCode
		}
	}
	return result, nil
}
