package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheetsync.service/internal/core"
	"timesheetsync.service/internal/core/model"
	"timesheetsync.service/internal/ports/messaging"
	"timesheetsync.service/internal/ports/payroll"
	"timesheetsync.service/internal/ports/scheduling"
)

type fakeRepo struct {
	syncRecords   map[string]*model.SyncRecord
	payrollShifts map[string]*model.PayrollShiftRecord
	stateUpdates  []model.SyncState
	getErr        error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		syncRecords:   make(map[string]*model.SyncRecord),
		payrollShifts: make(map[string]*model.PayrollShiftRecord),
	}
}

func (f *fakeRepo) UpsertTimesheet(ctx context.Context, rec *model.CanonicalTimesheetRecord, action model.ActionType, state model.SyncState) error {
	return nil
}

func (f *fakeRepo) GetSyncRecord(ctx context.Context, timeActivityID string) (*model.SyncRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.syncRecords[timeActivityID], nil
}

func (f *fakeRepo) UpdateSyncState(ctx context.Context, timeActivityID string, state model.SyncState) error {
	f.stateUpdates = append(f.stateUpdates, state)
	if rec, ok := f.syncRecords[timeActivityID]; ok {
		rec.SyncState = state
	}
	return nil
}

func (f *fakeRepo) UpsertPayrollShift(ctx context.Context, rec *model.PayrollShiftRecord) error {
	return nil
}

func (f *fakeRepo) FindPayrollShift(ctx context.Context, timeActivityID string) (*model.PayrollShiftRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.payrollShifts[timeActivityID], nil
}

func (f *fakeRepo) FindWorkerDetails(ctx context.Context, rec *model.CanonicalTimesheetRecord) (*model.WorkerDetails, error) {
	return nil, nil
}

type fakePayrollClient struct {
	calls        []string
	createResult *payroll.ShiftResult
	deleteResult *payroll.ShiftResult
}

func (f *fakePayrollClient) CreateShift(ctx context.Context, req payroll.CreateShiftRequest) (*payroll.ShiftResult, error) {
	f.calls = append(f.calls, "create")
	return f.createResult, nil
}

func (f *fakePayrollClient) UpdateShift(ctx context.Context, shiftID string, req payroll.UpdateShiftRequest) (*payroll.ShiftResult, error) {
	f.calls = append(f.calls, "update")
	return &payroll.ShiftResult{StatusCode: http.StatusOK, PayrollShiftID: shiftID}, nil
}

func (f *fakePayrollClient) DeleteShift(ctx context.Context, shiftID string) (*payroll.ShiftResult, error) {
	f.calls = append(f.calls, "delete")
	return f.deleteResult, nil
}

type fakeScheduler struct {
	deleted []string
}

func (f *fakeScheduler) CreateTrigger(ctx context.Context, t scheduling.Trigger) error { return nil }
func (f *fakeScheduler) DeleteTrigger(ctx context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return nil
}

type fakeProducer struct{}

func (f *fakeProducer) PublishSync(ctx context.Context, body interface{}) error       { return nil }
func (f *fakeProducer) PublishSettlement(ctx context.Context, body interface{}) error { return nil }

type fakeAlerts struct {
	alerts []*model.PayrollShiftRecord
}

func (f *fakeAlerts) SendPayrollFailureAlert(ctx context.Context, rec *model.PayrollShiftRecord) error {
	f.alerts = append(f.alerts, rec)
	return nil
}

type fixture struct {
	repo      *fakeRepo
	client    *fakePayrollClient
	scheduler *fakeScheduler
	alerts    *fakeAlerts
	processor *SyncProcessor
}

func newFixture() *fixture {
	repo := newFakeRepo()
	client := &fakePayrollClient{
		createResult: &payroll.ShiftResult{StatusCode: http.StatusOK, PayrollShiftID: "ps-42"},
		deleteResult: &payroll.ShiftResult{StatusCode: http.StatusNoContent},
	}
	scheduler := &fakeScheduler{}
	alerts := &fakeAlerts{}
	producer := &fakeProducer{}
	orchestrator := core.NewOrchestrator(repo, client)
	coordinator := core.NewCoordinator(repo, scheduler, producer)
	return &fixture{
		repo:      repo,
		client:    client,
		scheduler: scheduler,
		alerts:    alerts,
		processor: NewProcessor(repo, orchestrator, coordinator, alerts),
	}
}

func syncMessage(t *testing.T, state model.SyncState, action model.ActionType) types.Message {
	t.Helper()
	start := time.Now().Add(-9 * time.Hour).Unix()
	end := time.Now().Add(-time.Hour).Unix()
	event := messaging.SyncEvent{
		Record: model.CanonicalTimesheetRecord{
			TimeActivityID:   "A1",
			ConnecteamUserID: "u-100",
			ActivityType:     model.ActivityShift,
			EventType:        "shift_created",
			StartTimestamp:   &start,
			EndTimestamp:     &end,
			ContentHash:      "hash-1",
		},
		Worker:     model.WorkerDetails{WorkerID: "w-9"},
		ActionType: action,
		SyncState:  state,
	}
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return types.Message{
		MessageId: aws.String("m-1"),
		Body:      aws.String(string(body)),
		Attributes: map[string]string{
			string(types.MessageSystemAttributeNameApproximateReceiveCount): "1",
		},
	}
}

func TestProcessMalformedMessageIsNotRetried(t *testing.T) {
	f := newFixture()

	retry, delay, err := f.processor.Process(context.Background(), types.Message{
		MessageId: aws.String("m-1"),
		Body:      aws.String("not json"),
	})
	require.Error(t, err)
	assert.False(t, retry)
	assert.Zero(t, delay)
	assert.Empty(t, f.client.calls)
}

func TestProcessImmediateSendCreatesShift(t *testing.T) {
	f := newFixture()

	retry, _, err := f.processor.Process(context.Background(), syncMessage(t, model.SyncStateSent, model.ActionCreate))
	require.NoError(t, err)
	assert.False(t, retry)
	assert.Equal(t, []string{"create"}, f.client.calls)
	// Immediate sends have no trigger to cancel and no state to settle.
	assert.Empty(t, f.scheduler.deleted)
	assert.Empty(t, f.repo.stateUpdates)
}

func TestProcessScheduledEventSettlesAfterSend(t *testing.T) {
	f := newFixture()
	f.repo.syncRecords["A1"] = &model.SyncRecord{
		TimeActivityID: "A1",
		SyncState:      model.SyncStateScheduled,
	}

	retry, _, err := f.processor.Process(context.Background(), syncMessage(t, model.SyncStateScheduled, model.ActionCreate))
	require.NoError(t, err)
	assert.False(t, retry)
	assert.Equal(t, []string{"create"}, f.client.calls)
	assert.Equal(t, []string{"submit_timesheet_A1"}, f.scheduler.deleted)
	assert.Equal(t, model.SyncStateSent, f.repo.syncRecords["A1"].SyncState)
}

func TestProcessDeleteEventRetractsAndSettles(t *testing.T) {
	f := newFixture()
	f.repo.syncRecords["A1"] = &model.SyncRecord{
		TimeActivityID: "A1",
		SyncState:      model.SyncStateDelete,
	}
	f.repo.payrollShifts["A1"] = &model.PayrollShiftRecord{
		PayrollShiftID: "ps-42",
		TimeActivityID: "A1",
	}

	retry, _, err := f.processor.Process(context.Background(), syncMessage(t, model.SyncStateDelete, model.ActionDelete))
	require.NoError(t, err)
	assert.False(t, retry)
	assert.Equal(t, []string{"delete"}, f.client.calls)
	assert.Equal(t, model.SyncStateSent, f.repo.syncRecords["A1"].SyncState)
}

func TestProcessAlreadySettledDeliveryIsSkipped(t *testing.T) {
	f := newFixture()
	f.repo.syncRecords["A1"] = &model.SyncRecord{
		TimeActivityID: "A1",
		SyncState:      model.SyncStateSent,
	}

	retry, _, err := f.processor.Process(context.Background(), syncMessage(t, model.SyncStateScheduled, model.ActionCreate))
	require.NoError(t, err)
	assert.False(t, retry)
	assert.Empty(t, f.client.calls)
}

func TestProcessPayrollRejectionAlertsWithoutRetry(t *testing.T) {
	f := newFixture()
	f.client.createResult = &payroll.ShiftResult{StatusCode: 422, ErrorCode: 422, ErrorMessage: "worker not payable"}

	retry, _, err := f.processor.Process(context.Background(), syncMessage(t, model.SyncStateSent, model.ActionCreate))
	require.NoError(t, err)
	assert.False(t, retry)
	require.Len(t, f.alerts.alerts, 1)
	assert.Equal(t, 422, f.alerts.alerts[0].StatusCode)
	assert.Equal(t, model.PlaceholderShiftID("A1"), f.alerts.alerts[0].PayrollShiftID)
}

func TestProcessStoreOutageIsRetried(t *testing.T) {
	f := newFixture()
	f.repo.getErr = assert.AnError

	retry, delay, err := f.processor.Process(context.Background(), syncMessage(t, model.SyncStateScheduled, model.ActionCreate))
	require.Error(t, err)
	assert.True(t, retry)
	assert.Positive(t, delay)
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, int32(20), calculateBackoff(1))
	assert.Equal(t, int32(40), calculateBackoff(2))
	assert.Equal(t, int32(3600), calculateBackoff(12))
}

func TestReceiveCountDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1, receiveCount(types.Message{}))
	assert.Equal(t, 3, receiveCount(types.Message{
		Attributes: map[string]string{
			string(types.MessageSystemAttributeNameApproximateReceiveCount): "3",
		},
	}))
}
