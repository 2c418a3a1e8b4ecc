package models

import "time"

// EnergyRecord is one synthesized 2-hour telemetry slot for a unit.
// Records are immutable once persisted; 12 of them make up one unit-day,
// timestamped on the even 2-hour UTC grid {00:00, 02:00, ..., 22:00}.
type EnergyRecord struct {
	ID              string    `json:"id"`
	UnitSerial      string    `json:"unit_serial"`
	UnitID          string    `json:"unit_id"`
	Timestamp       time.Time `json:"timestamp"`
	EnergyGenerated float64   `json:"energy_generated"` // Wh, always >= 0
	PeakPower       float64   `json:"peak_power"`       // W, >= energy_generated
	Efficiency      float64   `json:"efficiency"`       // percent [0,100]; 0 when no generation
	Temperature     float64   `json:"temperature"`      // °C
}

const (
	// SlotHours is the width of one telemetry slot.
	SlotHours = 2
	// SlotsPerDay is the number of records per unit per day.
	SlotsPerDay = 24 / SlotHours
)

// DayStart truncates t to UTC midnight of its calendar day.
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
