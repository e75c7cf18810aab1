package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"timesheetsync.service/internal/core/model"
	"timesheetsync.service/internal/ports/payroll"
	"timesheetsync.service/internal/ports/repository"
)

// Outcome summarizes what the orchestrator did against payroll for one
// action. NoOp means nothing needed retracting and no API call was made.
type Outcome struct {
	ActionType     model.ActionType
	StatusCode     int
	PayrollShiftID string
	NoOp           bool
}

// Orchestrator translates an action type into payroll API effects and
// classifies the responses. Every branch persists its outcome through the
// repository before returning, success or not.
type Orchestrator struct {
	repo    repository.Repository
	payroll payroll.Client
}

func NewOrchestrator(repo repository.Repository, client payroll.Client) *Orchestrator {
	return &Orchestrator{repo: repo, payroll: client}
}

// Execute applies action for the record against payroll. Updates run as a
// compensating transaction (delete then recreate) because the payroll API
// has no partial-update primitive that supports pay-rate overrides.
// Deletes and declines never recreate.
func (o *Orchestrator) Execute(ctx context.Context, rec *model.CanonicalTimesheetRecord, worker *model.WorkerDetails, action model.ActionType) (Outcome, error) {
	switch action {
	case model.ActionCreate:
		return o.createShift(ctx, rec, worker, action)
	case model.ActionUpdate:
		return o.compensatingUpdate(ctx, rec, worker)
	case model.ActionDelete:
		return o.deleteShift(ctx, rec, worker)
	default:
		return Outcome{}, fmt.Errorf("unknown action type: %s", action)
	}
}

// createShift submits the record as a new worked shift and persists the
// classified outcome, failed attempts included.
func (o *Orchestrator) createShift(ctx context.Context, rec *model.CanonicalTimesheetRecord, worker *model.WorkerDetails, action model.ActionType) (Outcome, error) {
	if rec.StartTimestamp == nil || rec.EndTimestamp == nil {
		return Outcome{}, fmt.Errorf("cannot create payroll shift for %s without a time window", rec.TimeActivityID)
	}

	req := payroll.CreateShiftRequest{
		WorkerID:                   worker.WorkerID,
		ExternalWorkerID:           worker.ExternalWorkerID,
		ShiftStartEpochSeconds:     *rec.StartTimestamp,
		ShiftEndEpochSeconds:       *rec.EndTimestamp,
		Note:                       shiftNote(rec, worker),
		CorrectionPaymentTimeframe: "NEXT_PAYROLL_PAYMENT",
		OverrideRate:               worker.OverrideRate,
	}

	res, err := o.payroll.CreateShift(ctx, req)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{ActionType: action, StatusCode: res.StatusCode}
	if res.StatusCode == http.StatusOK {
		outcome.PayrollShiftID = res.PayrollShiftID
		row := o.shiftRow(rec, worker, action, res.PayrollShiftID, http.StatusOK, "success")
		if err := o.repo.UpsertPayrollShift(ctx, row); err != nil {
			return outcome, err
		}
		return outcome, nil
	}

	// Failed attempts become first-class rows with a placeholder shift id
	// so the upsert key is always defined.
	row := o.shiftRow(rec, worker, action, model.PlaceholderShiftID(rec.TimeActivityID), res.ErrorCode, res.ErrorMessage)
	if err := o.repo.UpsertPayrollShift(ctx, row); err != nil {
		return outcome, err
	}
	return outcome, &PayrollAPIError{Code: res.ErrorCode, Message: res.ErrorMessage}
}

// compensatingUpdate retracts the previously sent shift, if one is known,
// and unconditionally recreates it with the new canonical data. A 404 on
// the delete step is not an error: there was simply nothing to retract.
func (o *Orchestrator) compensatingUpdate(ctx context.Context, rec *model.CanonicalTimesheetRecord, worker *model.WorkerDetails) (Outcome, error) {
	prior, err := o.repo.FindPayrollShift(ctx, rec.TimeActivityID)
	if err != nil {
		return Outcome{}, err
	}

	if prior != nil {
		res, err := o.payroll.DeleteShift(ctx, prior.PayrollShiftID)
		if err != nil {
			return Outcome{}, err
		}
		msg := deleteMessage(res)
		row := o.shiftRow(rec, worker, model.ActionDelete, prior.PayrollShiftID, res.StatusCode, msg)
		if err := o.repo.UpsertPayrollShift(ctx, row); err != nil {
			return Outcome{ActionType: model.ActionUpdate, StatusCode: res.StatusCode}, err
		}
		if res.StatusCode != http.StatusNoContent && res.StatusCode != http.StatusNotFound {
			log.Ctx(ctx).Warn().
				Str("time_activity_id", rec.TimeActivityID).
				Int("status_code", res.StatusCode).
				Msg("Retraction before recreate did not succeed; recreating anyway")
		}
	}

	return o.createShift(ctx, rec, worker, model.ActionUpdate)
}

// deleteShift retracts the previously sent shift. No shift id on file
// means nothing to retract and no payroll call is made.
func (o *Orchestrator) deleteShift(ctx context.Context, rec *model.CanonicalTimesheetRecord, worker *model.WorkerDetails) (Outcome, error) {
	prior, err := o.repo.FindPayrollShift(ctx, rec.TimeActivityID)
	if err != nil {
		return Outcome{}, err
	}
	if prior == nil {
		log.Ctx(ctx).Info().
			Str("time_activity_id", rec.TimeActivityID).
			Msg("No payroll shift on file for delete. Skipping.")
		return Outcome{ActionType: model.ActionDelete, NoOp: true}, nil
	}

	res, err := o.payroll.DeleteShift(ctx, prior.PayrollShiftID)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{ActionType: model.ActionDelete, StatusCode: res.StatusCode, PayrollShiftID: prior.PayrollShiftID}
	row := o.shiftRow(rec, worker, model.ActionDelete, prior.PayrollShiftID, res.StatusCode, deleteMessage(res))
	if err := o.repo.UpsertPayrollShift(ctx, row); err != nil {
		return outcome, err
	}

	// 404 is downgraded to success: the shift is already absent.
	if res.StatusCode != http.StatusNoContent && res.StatusCode != http.StatusNotFound {
		return outcome, &PayrollAPIError{Code: res.ErrorCode, Message: res.ErrorMessage}
	}
	return outcome, nil
}

func (o *Orchestrator) shiftRow(rec *model.CanonicalTimesheetRecord, worker *model.WorkerDetails, action model.ActionType, shiftID string, statusCode int, statusMessage string) *model.PayrollShiftRecord {
	return &model.PayrollShiftRecord{
		PayrollShiftID:   shiftID,
		WorkerID:         worker.WorkerID,
		ExternalWorkerID: worker.ExternalWorkerID,
		FullName:         worker.FullName,
		TimeActivityID:   rec.TimeActivityID,
		ActionType:       action,
		EventType:        rec.EventType,
		Note:             shiftNote(rec, worker),
		StatusCode:       statusCode,
		StatusMessage:    statusMessage,
		LoadedAt:         time.Now().UTC(),
	}
}

func deleteMessage(res *payroll.ShiftResult) string {
	switch res.StatusCode {
	case http.StatusNoContent:
		return "deleted"
	case http.StatusNotFound:
		return "not found"
	default:
		return res.ErrorMessage
	}
}

// shiftNote composes the payroll note from the pay context and the local
// shift window.
func shiftNote(rec *model.CanonicalTimesheetRecord, worker *model.WorkerDetails) string {
	if rec.EventType.IsRetraction() {
		return ""
	}
	if rec.ShiftStartDate == "" {
		return worker.Note
	}
	window := fmt.Sprintf("%s %s - %s %s", rec.ShiftStartDate, rec.ShiftStartTime, rec.ShiftEndDate, rec.ShiftEndTime)
	if worker.Note == "" {
		return window
	}
	return worker.Note + " | " + window
}
