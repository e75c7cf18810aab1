package repository

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"timesheetsync.service/internal/core/model"
)

// TimesheetRepository is the concrete implementation for a PostgreSQL database.
type TimesheetRepository struct {
	DB *sql.DB
}

// NewTimesheetRepository create new instance
func NewTimesheetRepository(db *sql.DB) Repository {
	return &TimesheetRepository{DB: db}
}

// UpsertTimesheet inserts or fully overwrites the canonical record row for
// its business key. The single ON CONFLICT statement makes concurrent
// deliveries for the same key converge to the last writer's values.
func (r *TimesheetRepository) UpsertTimesheet(ctx context.Context, rec *model.CanonicalTimesheetRecord, action model.ActionType, state model.SyncState) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.timeActivityId", rec.TimeActivityID))

	query := `INSERT INTO webhook_ct_timesheet (
                  request_id, company, time_activity_id, connecteam_user_id, time_clock_id,
                  activity_type, event_type, event_timestamp, start_timestamp, end_timestamp,
                  start_timezone, end_timezone, created_at, job_id, sub_job_id,
                  is_auto_clock_out, time_off_policy_type_id, shift_start_date, shift_end_date,
                  shift_start_time, shift_end_time, timesheet_sk, action_type, sync_state, load_dt)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
                      $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
              ON CONFLICT (time_activity_id) DO UPDATE SET
                  request_id = EXCLUDED.request_id,
                  company = EXCLUDED.company,
                  connecteam_user_id = EXCLUDED.connecteam_user_id,
                  time_clock_id = EXCLUDED.time_clock_id,
                  activity_type = EXCLUDED.activity_type,
                  event_type = EXCLUDED.event_type,
                  event_timestamp = EXCLUDED.event_timestamp,
                  start_timestamp = EXCLUDED.start_timestamp,
                  end_timestamp = EXCLUDED.end_timestamp,
                  start_timezone = EXCLUDED.start_timezone,
                  end_timezone = EXCLUDED.end_timezone,
                  created_at = EXCLUDED.created_at,
                  job_id = EXCLUDED.job_id,
                  sub_job_id = EXCLUDED.sub_job_id,
                  is_auto_clock_out = EXCLUDED.is_auto_clock_out,
                  time_off_policy_type_id = EXCLUDED.time_off_policy_type_id,
                  shift_start_date = EXCLUDED.shift_start_date,
                  shift_end_date = EXCLUDED.shift_end_date,
                  shift_start_time = EXCLUDED.shift_start_time,
                  shift_end_time = EXCLUDED.shift_end_time,
                  timesheet_sk = EXCLUDED.timesheet_sk,
                  action_type = EXCLUDED.action_type,
                  sync_state = EXCLUDED.sync_state,
                  load_dt = EXCLUDED.load_dt`

	_, err := r.DB.ExecContext(ctx, query,
		rec.RequestID, rec.Company, rec.TimeActivityID, rec.ConnecteamUserID, rec.TimeClockID,
		string(rec.ActivityType), string(rec.EventType), rec.EventTimestamp,
		nullInt64(rec.StartTimestamp), nullInt64(rec.EndTimestamp),
		nullString(rec.StartTimezone), nullString(rec.EndTimezone), nullTime(rec.CreatedAt),
		nullString(rec.JobID), nullString(rec.SubJobID), rec.IsAutoClockOut,
		nullString(rec.TimeOffPolicyTypeID), nullString(rec.ShiftStartDate), nullString(rec.ShiftEndDate),
		nullString(rec.ShiftStartTime), nullString(rec.ShiftEndTime), rec.ContentHash,
		string(action), nullString(string(state)), time.Now().UTC(),
	)
	if err != nil {
		return &StoreUnavailableError{Op: "upsert timesheet", Err: err}
	}
	return nil
}

// GetSyncRecord fetches the stored classification for a business key.
func (r *TimesheetRepository) GetSyncRecord(ctx context.Context, timeActivityID string) (*model.SyncRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.timeActivityId", timeActivityID))

	query := `SELECT time_activity_id, action_type, sync_state, timesheet_sk
              FROM webhook_ct_timesheet
              WHERE time_activity_id = $1`

	var (
		sr        model.SyncRecord
		action    string
		syncState sql.NullString
	)
	row := r.DB.QueryRowContext(ctx, query, timeActivityID)
	err := row.Scan(&sr.TimeActivityID, &action, &syncState, &sr.ContentHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreUnavailableError{Op: "get sync record", Err: err}
	}

	sr.ActionType = model.ActionType(action)
	if syncState.Valid {
		sr.SyncState = model.SyncState(syncState.String)
	}
	return &sr, nil
}

// UpdateSyncState moves the stored sync state for a business key.
func (r *TimesheetRepository) UpdateSyncState(ctx context.Context, timeActivityID string, state model.SyncState) error {
	query := `UPDATE webhook_ct_timesheet
              SET sync_state = $1
              WHERE time_activity_id = $2`

	_, err := r.DB.ExecContext(ctx, query, string(state), timeActivityID)
	if err != nil {
		return &StoreUnavailableError{Op: "update sync state", Err: err}
	}
	return nil
}

// UpsertPayrollShift records the latest payroll interaction outcome. Later
// attempts for the same shift id overwrite in place: the table holds latest
// known state, not an append-only log.
func (r *TimesheetRepository) UpsertPayrollShift(ctx context.Context, rec *model.PayrollShiftRecord) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.timeActivityId", rec.TimeActivityID))

	query := `INSERT INTO webhook_payroll_timesheet (
                  payroll_shift_id, worker_id, external_worker_id, full_name, time_activity_id,
                  action_type, event_type, note, status_code, status_message, load_dt)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
              ON CONFLICT (payroll_shift_id) DO UPDATE SET
                  worker_id = EXCLUDED.worker_id,
                  external_worker_id = EXCLUDED.external_worker_id,
                  full_name = EXCLUDED.full_name,
                  time_activity_id = EXCLUDED.time_activity_id,
                  action_type = EXCLUDED.action_type,
                  event_type = EXCLUDED.event_type,
                  note = EXCLUDED.note,
                  status_code = EXCLUDED.status_code,
                  status_message = EXCLUDED.status_message,
                  load_dt = EXCLUDED.load_dt`

	_, err := r.DB.ExecContext(ctx, query,
		rec.PayrollShiftID, rec.WorkerID, rec.ExternalWorkerID, rec.FullName, rec.TimeActivityID,
		string(rec.ActionType), string(rec.EventType), nullString(rec.Note),
		rec.StatusCode, nullString(rec.StatusMessage), rec.LoadedAt,
	)
	if err != nil {
		return &StoreUnavailableError{Op: "upsert payroll shift", Err: err}
	}
	return nil
}

// FindPayrollShift returns the latest successfully created shift for a
// business key. Placeholder rows from failed attempts have non-200 status
// codes and never match, so a compensating delete is never issued against
// a synthesized id.
func (r *TimesheetRepository) FindPayrollShift(ctx context.Context, timeActivityID string) (*model.PayrollShiftRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.timeActivityId", timeActivityID))

	query := `SELECT payroll_shift_id, worker_id, external_worker_id, full_name, time_activity_id,
                     action_type, event_type, status_code, status_message, load_dt
              FROM webhook_payroll_timesheet
              WHERE time_activity_id = $1 AND status_code = 200
              ORDER BY load_dt DESC
              LIMIT 1`

	var (
		rec           model.PayrollShiftRecord
		action        string
		event         string
		statusMessage sql.NullString
	)
	row := r.DB.QueryRowContext(ctx, query, timeActivityID)
	err := row.Scan(&rec.PayrollShiftID, &rec.WorkerID, &rec.ExternalWorkerID, &rec.FullName,
		&rec.TimeActivityID, &action, &event, &rec.StatusCode, &statusMessage, &rec.LoadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreUnavailableError{Op: "find payroll shift", Err: err}
	}

	rec.ActionType = model.ActionType(action)
	rec.EventType = model.EventType(event)
	rec.StatusMessage = statusMessage.String
	return &rec, nil
}

// FindWorkerDetails resolves payroll identity and pay context for the CT
// user on the record. Retractions need identity only; time off joins the
// time-off policy rates; shifts join hourly pay rates and job titles. All
// statements are parameterized since the inputs are user-controlled.
func (r *TimesheetRepository) FindWorkerDetails(ctx context.Context, rec *model.CanonicalTimesheetRecord) (*model.WorkerDetails, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.connecteamUserId", rec.ConnecteamUserID))

	var (
		query string
		args  []any
	)
	switch {
	case rec.EventType.IsRetraction():
		query = `SELECT DISTINCT a.first_name || ' ' || a.last_name AS full_name,
                        a.worker_id,
                        a.ftn_id AS external_worker_id,
                        NULL AS note,
                        NULL AS override_rate
                 FROM all_workers a
                 WHERE a.connecteam_id = $1`
		args = []any{rec.ConnecteamUserID}

	case rec.ActivityType == model.ActivityTimeOff:
		query = `SELECT DISTINCT a.first_name || ' ' || a.last_name AS full_name,
                        a.worker_id,
                        a.ftn_id AS external_worker_id,
                        p.time_off AS note,
                        p.override_rate
                 FROM all_workers a
                 LEFT JOIN time_off_rates p
                        ON lower(trim(a.approval_group)) = lower(trim(p.current_approval_group))
                 WHERE a.connecteam_id = $1 AND p.time_off_id = $2`
		args = []any{rec.ConnecteamUserID, rec.TimeOffPolicyTypeID}

	default:
		query = `SELECT DISTINCT a.first_name || ' ' || a.last_name AS full_name,
                        a.worker_id,
                        a.ftn_id AS external_worker_id,
                        c.job_title || ',' || c.subjob_title AS note,
                        p.override_rate
                 FROM all_workers a
                 LEFT JOIN hourly_pay_rates p
                        ON lower(trim(a.approval_group)) = lower(trim(p.current_approval_group))
                 LEFT JOIN ct_jobs c
                        ON p.job_id = c.job_id OR lower(trim(p.job)) = lower(trim(c.job_title))
                 WHERE a.connecteam_id = $1 AND c.job_id = $2 AND c.subjob_id = $3`
		args = []any{rec.ConnecteamUserID, rec.JobID, rec.SubJobID}
	}

	var (
		w            model.WorkerDetails
		note         sql.NullString
		overrideRate sql.NullFloat64
	)
	row := r.DB.QueryRowContext(ctx, query, args...)
	err := row.Scan(&w.FullName, &w.WorkerID, &w.ExternalWorkerID, &note, &overrideRate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreUnavailableError{Op: "find worker details", Err: err}
	}

	w.Note = note.String
	if overrideRate.Valid {
		w.OverrideRate = &overrideRate.Float64
	}
	return &w, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
