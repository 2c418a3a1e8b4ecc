package service

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
)

// Derived-field bounds for synthesized records.
const (
	peakPowerFactor = 1.2
	efficiencyMin   = 85.0
	efficiencySpan  = 10.0 // efficiency drawn from [min, min+span)
	temperatureMin  = 25.0
	temperatureSpan = 15.0 // temperature drawn from [min, min+span)
)

// RecordSynthesizer produces the full 12-record day for one unit: baseline
// curve per slot, derived peak/efficiency/temperature, then at most one
// anomaly transform per record.
type RecordSynthesizer struct {
	catalog *AnomalyCatalog
}

func NewRecordSynthesizer(catalog *AnomalyCatalog) *RecordSynthesizer {
	return &RecordSynthesizer{catalog: catalog}
}

// SynthesizeDay returns the ordered slot records for the unit's calendar day
// (day must be UTC midnight) plus a per-record anomaly flag. The flag is for
// reporting only and is not persisted.
func (s *RecordSynthesizer) SynthesizeDay(rng *rand.Rand, unit models.Unit, day time.Time) ([]models.EnergyRecord, []bool) {
	capacity := unit.CapacityOrDefault()
	records := make([]models.EnergyRecord, 0, models.SlotsPerDay)
	flags := make([]bool, 0, models.SlotsPerDay)

	for slot := 0; slot < models.SlotsPerDay; slot++ {
		hour := slot * models.SlotHours
		energy := SlotEnergy(rng, hour, capacity)

		rec := models.EnergyRecord{
			ID:              uuid.NewString(),
			UnitSerial:      unit.SerialNumber,
			UnitID:          unit.ID,
			Timestamp:       day.Add(time.Duration(hour) * time.Hour),
			EnergyGenerated: energy,
			Temperature:     temperatureMin + rng.Float64()*temperatureSpan,
		}
		if energy > 0 {
			rec.PeakPower = energy * peakPowerFactor
			rec.Efficiency = efficiencyMin + rng.Float64()*efficiencySpan
		}

		// The anomaly transform replaces energy only; the derived fields of
		// the pre-anomaly record are retained. Peak power is raised when a
		// transform inflates energy past it, keeping peak >= energy.
		transformed, applied := s.catalog.Apply(rng, day, hour, rec.EnergyGenerated)
		if applied {
			rec.EnergyGenerated = transformed
			if rec.EnergyGenerated > rec.PeakPower {
				rec.PeakPower = rec.EnergyGenerated
			}
		}

		records = append(records, rec)
		flags = append(flags, applied)
	}
	return records, flags
}
