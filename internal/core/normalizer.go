package core

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"timesheetsync.service/internal/core/model"
)

// Normalizer turns raw CT webhook payloads into canonical timesheet
// records. It is pure: no I/O, same input always yields the same record.
type Normalizer struct {
	roundShiftTimes bool
}

// NewNormalizer creates a normalizer that rounds shift boundaries to the
// nearest 5 minutes. Time-off windows are never rounded since they are
// entered manually on scheduled time.
func NewNormalizer() *Normalizer {
	return &Normalizer{roundShiftTimes: true}
}

// Normalize validates the payload, converts timestamps to UTC, derives the
// local shift date/time strings and computes the content hash.
func (n *Normalizer) Normalize(ev model.WebhookEvent) (*model.CanonicalTimesheetRecord, error) {
	if ev.TimeActivityID == "" {
		return nil, &MalformedEventError{Field: "timeActivityId"}
	}
	if ev.EventType == "" {
		return nil, &MalformedEventError{Field: "eventType"}
	}
	if ev.ActivityType == "" {
		return nil, &MalformedEventError{Field: "activityType"}
	}

	rec := &model.CanonicalTimesheetRecord{
		RequestID:           ev.RequestID,
		Company:             ev.Company,
		TimeActivityID:      ev.TimeActivityID,
		ConnecteamUserID:    ev.ConnecteamUserID,
		TimeClockID:         ev.TimeClockID,
		ActivityType:        model.ActivityType(strings.ToLower(ev.ActivityType)),
		EventType:           model.EventType(ev.EventType),
		EventTimestamp:      time.Unix(ev.EventTimestamp, 0).UTC(),
		StartTimestamp:      ev.StartTimestamp,
		EndTimestamp:        ev.EndTimestamp,
		StartTimezone:       ev.StartTimezone,
		EndTimezone:         ev.EndTimezone,
		JobID:               ev.JobID,
		SubJobID:            ev.SubJobID,
		IsAutoClockOut:      ev.IsAutoClockOut,
		TimeOffPolicyTypeID: ev.TimeOffPolicyTypeID,
	}
	if ev.CreatedAt != nil {
		t := time.Unix(*ev.CreatedAt, 0).UTC()
		rec.CreatedAt = &t
	}

	// Retractions carry no time window worth normalizing; hash identity
	// fields only, content details are irrelevant once retracted.
	if rec.EventType.IsRetraction() {
		rec.ContentHash = contentHash(
			string(rec.ActivityType),
			string(rec.EventType),
			rec.ConnecteamUserID,
			rec.TimeClockID,
			rec.TimeActivityID,
		)
		return rec, nil
	}

	if ev.StartTimestamp == nil || ev.EndTimestamp == nil {
		return nil, &MalformedEventError{Field: "startTimestamp/endTimestamp"}
	}
	if err := n.deriveLocalTimes(rec); err != nil {
		return nil, err
	}

	if rec.ActivityType == model.ActivityTimeOff {
		rec.ContentHash = contentHash(
			string(rec.ActivityType),
			string(rec.EventType),
			rec.ConnecteamUserID,
			rec.TimeClockID,
			rec.TimeActivityID,
			epochString(rec.StartTimestamp),
			rec.StartTimezone,
			epochString(rec.EndTimestamp),
			rec.EndTimezone,
			timeString(rec.CreatedAt),
			rec.TimeOffPolicyTypeID,
		)
		return rec, nil
	}

	if n.roundShiftTimes {
		start := roundToNearest5Minutes(*rec.StartTimestamp)
		end := roundToNearest5Minutes(*rec.EndTimestamp)
		rec.StartTimestamp = &start
		rec.EndTimestamp = &end
	}
	rec.ContentHash = contentHash(
		string(rec.ActivityType),
		string(rec.EventType),
		rec.ConnecteamUserID,
		rec.TimeClockID,
		rec.TimeActivityID,
		epochString(rec.StartTimestamp),
		rec.StartTimezone,
		epochString(rec.EndTimestamp),
		rec.EndTimezone,
		timeString(rec.CreatedAt),
		rec.JobID,
		rec.SubJobID,
	)
	return rec, nil
}

// deriveLocalTimes renders the shift boundaries as local dates and wall
// clock times in the start/end timezones.
func (n *Normalizer) deriveLocalTimes(rec *model.CanonicalTimesheetRecord) error {
	startLoc, err := time.LoadLocation(rec.StartTimezone)
	if err != nil {
		return &MalformedEventError{Field: "startTimezone"}
	}
	endLoc, err := time.LoadLocation(rec.EndTimezone)
	if err != nil {
		return &MalformedEventError{Field: "endTimezone"}
	}

	start := time.Unix(*rec.StartTimestamp, 0).In(startLoc)
	end := time.Unix(*rec.EndTimestamp, 0).In(endLoc)
	rec.ShiftStartDate = start.Format("2006-01-02")
	rec.ShiftEndDate = end.Format("2006-01-02")
	rec.ShiftStartTime = start.Format("15:04:05")
	rec.ShiftEndTime = end.Format("15:04:05")
	return nil
}

// roundToNearest5Minutes snaps an epoch timestamp to the nearest 5-minute
// boundary, rounding down when less than 2m30s into the window.
func roundToNearest5Minutes(ts int64) int64 {
	rem := ts % 300
	if rem == 0 {
		return ts
	}
	if rem < 150 {
		return ts - rem
	}
	return ts + (300 - rem)
}

func contentHash(fields ...string) string {
	sum := md5.Sum([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

func epochString(ts *int64) string {
	if ts == nil {
		return ""
	}
	return strconv.FormatInt(*ts, 10)
}

func timeString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return strconv.FormatInt(t.Unix(), 10)
}
