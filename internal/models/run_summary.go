package models

import "time"

// Run trigger labels used in summaries and logs.
const (
	TriggerTimer    = "TIMER"
	TriggerManual   = "MANUAL"
	TriggerBackfill = "BACKFILL"
)

// UnitError records a per-unit failure inside an otherwise continuing run.
type UnitError struct {
	UnitSerial string    `json:"unit_serial"`
	Day        time.Time `json:"day"`
	Message    string    `json:"message"`
}

// RunSummary aggregates the outcome of one RunToday or Backfill invocation.
// Generated + Skipped + Failed always equals the number of (unit, day) pairs
// the run attempted.
type RunSummary struct {
	Trigger         string      `json:"trigger"`
	Days            []time.Time `json:"days"`
	UnitsTotal      int         `json:"units_total"`
	Generated       int         `json:"generated"`
	Skipped         int         `json:"skipped"`
	Failed          int         `json:"failed"`
	RecordsInserted int         `json:"records_inserted"`
	Errors          []UnitError `json:"errors,omitempty"`
	StartedAt       time.Time   `json:"started_at"`
	FinishedAt      time.Time   `json:"finished_at"`
}

// SchedulerStatus is the read-only snapshot exposed to the API and the
// WebSocket stream.
type SchedulerStatus struct {
	SchedulerRunning bool        `json:"scheduler_running"`
	RunInFlight      bool        `json:"run_in_flight"`
	NextFireAt       time.Time   `json:"next_fire_at,omitempty"`
	LastSummary      *RunSummary `json:"last_summary,omitempty"`
}
