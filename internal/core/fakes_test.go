package core

import (
	"context"
	"errors"

	"timesheetsync.service/internal/core/model"
	"timesheetsync.service/internal/ports/payroll"
	"timesheetsync.service/internal/ports/scheduling"
)

// fakeRepo is an in-memory Repository for exercising the pipeline without a
// database. Error fields force specific failures.
type fakeRepo struct {
	syncRecords   map[string]*model.SyncRecord
	payrollShifts map[string]*model.PayrollShiftRecord
	workers       map[string]*model.WorkerDetails

	upsertedTimesheets []upsertCall
	upsertedShifts     []*model.PayrollShiftRecord
	stateUpdates       []stateUpdate

	getErr    error
	upsertErr error
}

type upsertCall struct {
	rec    *model.CanonicalTimesheetRecord
	action model.ActionType
	state  model.SyncState
}

type stateUpdate struct {
	timeActivityID string
	state          model.SyncState
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		syncRecords:   make(map[string]*model.SyncRecord),
		payrollShifts: make(map[string]*model.PayrollShiftRecord),
		workers:       make(map[string]*model.WorkerDetails),
	}
}

func (f *fakeRepo) UpsertTimesheet(ctx context.Context, rec *model.CanonicalTimesheetRecord, action model.ActionType, state model.SyncState) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upsertedTimesheets = append(f.upsertedTimesheets, upsertCall{rec: rec, action: action, state: state})
	f.syncRecords[rec.TimeActivityID] = &model.SyncRecord{
		TimeActivityID: rec.TimeActivityID,
		ActionType:     action,
		SyncState:      state,
		ContentHash:    rec.ContentHash,
	}
	return nil
}

func (f *fakeRepo) GetSyncRecord(ctx context.Context, timeActivityID string) (*model.SyncRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.syncRecords[timeActivityID], nil
}

func (f *fakeRepo) UpdateSyncState(ctx context.Context, timeActivityID string, state model.SyncState) error {
	f.stateUpdates = append(f.stateUpdates, stateUpdate{timeActivityID: timeActivityID, state: state})
	if rec, ok := f.syncRecords[timeActivityID]; ok {
		rec.SyncState = state
	}
	return nil
}

func (f *fakeRepo) UpsertPayrollShift(ctx context.Context, rec *model.PayrollShiftRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upsertedShifts = append(f.upsertedShifts, rec)
	return nil
}

func (f *fakeRepo) FindPayrollShift(ctx context.Context, timeActivityID string) (*model.PayrollShiftRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.payrollShifts[timeActivityID], nil
}

func (f *fakeRepo) FindWorkerDetails(ctx context.Context, rec *model.CanonicalTimesheetRecord) (*model.WorkerDetails, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.workers[rec.ConnecteamUserID], nil
}

// fakePayrollClient records calls in order and replays scripted results.
type fakePayrollClient struct {
	calls []string

	createResult *payroll.ShiftResult
	deleteResult *payroll.ShiftResult
	createErr    error
	deleteErr    error
}

func (f *fakePayrollClient) CreateShift(ctx context.Context, req payroll.CreateShiftRequest) (*payroll.ShiftResult, error) {
	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResult, nil
}

func (f *fakePayrollClient) UpdateShift(ctx context.Context, shiftID string, req payroll.UpdateShiftRequest) (*payroll.ShiftResult, error) {
	f.calls = append(f.calls, "update")
	return &payroll.ShiftResult{StatusCode: 200, PayrollShiftID: shiftID}, nil
}

func (f *fakePayrollClient) DeleteShift(ctx context.Context, shiftID string) (*payroll.ShiftResult, error) {
	f.calls = append(f.calls, "delete:"+shiftID)
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return f.deleteResult, nil
}

// fakeScheduler records trigger operations.
type fakeScheduler struct {
	created   []scheduling.Trigger
	deleted   []string
	createErr error
	deleteErr error
}

func (f *fakeScheduler) CreateTrigger(ctx context.Context, t scheduling.Trigger) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, t)
	return nil
}

func (f *fakeScheduler) DeleteTrigger(ctx context.Context, name string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, name)
	return nil
}

// fakeProducer records published messages.
type fakeProducer struct {
	syncMessages       []interface{}
	settlementMessages []interface{}
	publishErr         error
}

func (f *fakeProducer) PublishSync(ctx context.Context, body interface{}) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.syncMessages = append(f.syncMessages, body)
	return nil
}

func (f *fakeProducer) PublishSettlement(ctx context.Context, body interface{}) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.settlementMessages = append(f.settlementMessages, body)
	return nil
}

var errStoreDown = errors.New("store down")
