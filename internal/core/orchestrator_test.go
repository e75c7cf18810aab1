package core

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheetsync.service/internal/core/model"
	"timesheetsync.service/internal/ports/payroll"
)

func testWorker() *model.WorkerDetails {
	return &model.WorkerDetails{
		WorkerID: "w-9",
		FullName: "Pat Example",
		Note:     "Line Cook",
	}
}

func TestExecuteCreatePersistsSuccessRow(t *testing.T) {
	repo := newFakeRepo()
	client := &fakePayrollClient{
		createResult: &payroll.ShiftResult{StatusCode: http.StatusOK, PayrollShiftID: "ps-42"},
	}
	o := NewOrchestrator(repo, client)

	rec := canonicalRecord("A1", -time.Hour)
	outcome, err := o.Execute(context.Background(), rec, testWorker(), model.ActionCreate)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, outcome.StatusCode)
	assert.Equal(t, "ps-42", outcome.PayrollShiftID)
	require.Len(t, repo.upsertedShifts, 1)
	row := repo.upsertedShifts[0]
	assert.Equal(t, "ps-42", row.PayrollShiftID)
	assert.Equal(t, "success", row.StatusMessage)
	assert.False(t, row.IsPlaceholder())
}

func TestExecuteCreateFailurePersistsPlaceholderRow(t *testing.T) {
	repo := newFakeRepo()
	client := &fakePayrollClient{
		createResult: &payroll.ShiftResult{StatusCode: 422, ErrorCode: 422, ErrorMessage: "worker not payable"},
	}
	o := NewOrchestrator(repo, client)

	rec := canonicalRecord("A1", -time.Hour)
	_, err := o.Execute(context.Background(), rec, testWorker(), model.ActionCreate)

	apiErr, ok := err.(*PayrollAPIError)
	require.True(t, ok)
	assert.Equal(t, 422, apiErr.Code)

	require.Len(t, repo.upsertedShifts, 1)
	row := repo.upsertedShifts[0]
	assert.Equal(t, model.PlaceholderShiftID("A1"), row.PayrollShiftID)
	assert.True(t, row.IsPlaceholder())
	assert.Equal(t, "worker not payable", row.StatusMessage)
}

func TestExecuteUpdateDeletesThenRecreates(t *testing.T) {
	repo := newFakeRepo()
	repo.payrollShifts["A1"] = &model.PayrollShiftRecord{
		PayrollShiftID: "ps-old",
		TimeActivityID: "A1",
		StatusCode:     http.StatusOK,
	}
	client := &fakePayrollClient{
		deleteResult: &payroll.ShiftResult{StatusCode: http.StatusNoContent},
		createResult: &payroll.ShiftResult{StatusCode: http.StatusOK, PayrollShiftID: "ps-new"},
	}
	o := NewOrchestrator(repo, client)

	rec := canonicalRecord("A1", -time.Hour)
	outcome, err := o.Execute(context.Background(), rec, testWorker(), model.ActionUpdate)
	require.NoError(t, err)

	assert.Equal(t, []string{"delete:ps-old", "create"}, client.calls)
	assert.Equal(t, "ps-new", outcome.PayrollShiftID)

	// Both the retraction and the recreate leave rows behind.
	require.Len(t, repo.upsertedShifts, 2)
	assert.Equal(t, "deleted", repo.upsertedShifts[0].StatusMessage)
	assert.Equal(t, "success", repo.upsertedShifts[1].StatusMessage)
}

func TestExecuteUpdateWithNothingToRetractJustCreates(t *testing.T) {
	repo := newFakeRepo()
	client := &fakePayrollClient{
		createResult: &payroll.ShiftResult{StatusCode: http.StatusOK, PayrollShiftID: "ps-new"},
	}
	o := NewOrchestrator(repo, client)

	rec := canonicalRecord("A1", -time.Hour)
	_, err := o.Execute(context.Background(), rec, testWorker(), model.ActionUpdate)
	require.NoError(t, err)
	assert.Equal(t, []string{"create"}, client.calls)
}

func TestExecuteUpdateToleratesMissingShiftOnDelete(t *testing.T) {
	repo := newFakeRepo()
	repo.payrollShifts["A1"] = &model.PayrollShiftRecord{
		PayrollShiftID: "ps-old",
		TimeActivityID: "A1",
		StatusCode:     http.StatusOK,
	}
	client := &fakePayrollClient{
		deleteResult: &payroll.ShiftResult{StatusCode: http.StatusNotFound},
		createResult: &payroll.ShiftResult{StatusCode: http.StatusOK, PayrollShiftID: "ps-new"},
	}
	o := NewOrchestrator(repo, client)

	rec := canonicalRecord("A1", -time.Hour)
	outcome, err := o.Execute(context.Background(), rec, testWorker(), model.ActionUpdate)
	require.NoError(t, err)
	assert.Equal(t, "ps-new", outcome.PayrollShiftID)
	assert.Equal(t, "not found", repo.upsertedShifts[0].StatusMessage)
}

func TestExecuteDeleteWithNoShiftOnFileIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	client := &fakePayrollClient{}
	o := NewOrchestrator(repo, client)

	rec := canonicalRecord("A1", -time.Hour)
	outcome, err := o.Execute(context.Background(), rec, testWorker(), model.ActionDelete)
	require.NoError(t, err)
	assert.True(t, outcome.NoOp)
	assert.Empty(t, client.calls)
	assert.Empty(t, repo.upsertedShifts)
}

func TestExecuteDeleteRetractsAndPersists(t *testing.T) {
	repo := newFakeRepo()
	repo.payrollShifts["A1"] = &model.PayrollShiftRecord{
		PayrollShiftID: "ps-42",
		TimeActivityID: "A1",
		StatusCode:     http.StatusOK,
	}
	client := &fakePayrollClient{
		deleteResult: &payroll.ShiftResult{StatusCode: http.StatusNoContent},
	}
	o := NewOrchestrator(repo, client)

	rec := canonicalRecord("A1", -time.Hour)
	rec.EventType = "shift_deleted"
	outcome, err := o.Execute(context.Background(), rec, testWorker(), model.ActionDelete)
	require.NoError(t, err)
	assert.Equal(t, []string{"delete:ps-42"}, client.calls)
	assert.Equal(t, http.StatusNoContent, outcome.StatusCode)
	require.Len(t, repo.upsertedShifts, 1)
	assert.Equal(t, "deleted", repo.upsertedShifts[0].StatusMessage)
}

func TestExecuteDelete404IsSuccess(t *testing.T) {
	repo := newFakeRepo()
	repo.payrollShifts["A1"] = &model.PayrollShiftRecord{
		PayrollShiftID: "ps-42",
		TimeActivityID: "A1",
		StatusCode:     http.StatusOK,
	}
	client := &fakePayrollClient{
		deleteResult: &payroll.ShiftResult{StatusCode: http.StatusNotFound},
	}
	o := NewOrchestrator(repo, client)

	rec := canonicalRecord("A1", -time.Hour)
	_, err := o.Execute(context.Background(), rec, testWorker(), model.ActionDelete)
	assert.NoError(t, err)
}

func TestExecuteDeleteFailureSurfacesAfterPersisting(t *testing.T) {
	repo := newFakeRepo()
	repo.payrollShifts["A1"] = &model.PayrollShiftRecord{
		PayrollShiftID: "ps-42",
		TimeActivityID: "A1",
		StatusCode:     http.StatusOK,
	}
	client := &fakePayrollClient{
		deleteResult: &payroll.ShiftResult{StatusCode: 500, ErrorCode: 500, ErrorMessage: "internal"},
	}
	o := NewOrchestrator(repo, client)

	rec := canonicalRecord("A1", -time.Hour)
	_, err := o.Execute(context.Background(), rec, testWorker(), model.ActionDelete)
	require.Error(t, err)
	_, ok := err.(*PayrollAPIError)
	assert.True(t, ok)
	require.Len(t, repo.upsertedShifts, 1)
}

func TestShiftNoteComposition(t *testing.T) {
	rec := canonicalRecord("A1", -time.Hour)
	rec.ShiftStartDate = "2025-09-16"
	rec.ShiftEndDate = "2025-09-16"
	rec.ShiftStartTime = "09:00:00"
	rec.ShiftEndTime = "17:00:00"

	worker := testWorker()
	note := shiftNote(rec, worker)
	assert.Equal(t, "Line Cook | 2025-09-16 09:00:00 - 2025-09-16 17:00:00", note)

	worker.Note = ""
	assert.Equal(t, "2025-09-16 09:00:00 - 2025-09-16 17:00:00", shiftNote(rec, worker))

	rec.EventType = "shift_deleted"
	assert.Empty(t, shiftNote(rec, testWorker()))
}
