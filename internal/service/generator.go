package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/logger"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/repository"
)

// ErrRunInProgress is returned when a RunToday/Backfill trigger arrives while
// another run is still active. Overlapping runs are rejected, not queued: the
// existence-check-then-insert protocol must not interleave.
var ErrRunInProgress = errors.New("a generation run is already in progress")

// defaultWorkers bounds per-run fan-out across units.
const defaultWorkers = 4

// UnitSource supplies the active-unit list, normally the registry client.
type UnitSource interface {
	ActiveUnits(ctx context.Context) ([]models.Unit, error)
}

// GeneratorService owns idempotent per-(unit, day) generation and the
// fan-out across all active units for today or a backfill window.
type GeneratorService struct {
	units   UnitSource
	records repository.RecordRepo
	synth   *RecordSynthesizer
	log     *logger.Logger

	workers int
	newRand func() *rand.Rand

	// runMu serializes whole runs at the process level. TryLock lets
	// overlapping triggers fail fast instead of piling up.
	runMu    sync.Mutex
	inFlight atomic.Bool

	lastMu      sync.Mutex
	lastSummary *models.RunSummary
}

func NewGeneratorService(units UnitSource, records repository.RecordRepo, synth *RecordSynthesizer, workers int, log *logger.Logger) *GeneratorService {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &GeneratorService{
		units:   units,
		records: records,
		synth:   synth,
		log:     log.Named("generator"),
		workers: workers,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// SetRandFactory overrides the per-task random source, used by tests to make
// synthesized values reproducible.
func (s *GeneratorService) SetRandFactory(f func() *rand.Rand) { s.newRand = f }

// RunToday generates today's data (UTC calendar day) for every active unit.
func (s *GeneratorService) RunToday(ctx context.Context, trigger string) (models.RunSummary, error) {
	return s.run(ctx, trigger, []time.Time{models.DayStart(time.Now())})
}

// Backfill generates data for the last `days` UTC calendar days including
// today. Every (unit, day) pair is processed to completion or recorded as
// failed before the run returns.
func (s *GeneratorService) Backfill(ctx context.Context, days int) (models.RunSummary, error) {
	if days < 1 {
		return models.RunSummary{}, fmt.Errorf("backfill days must be >= 1, got %d", days)
	}
	today := models.DayStart(time.Now())
	targets := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		targets = append(targets, today.AddDate(0, 0, -i))
	}
	return s.run(ctx, models.TriggerBackfill, targets)
}

// InFlight reports whether a run is currently executing.
func (s *GeneratorService) InFlight() bool { return s.inFlight.Load() }

// LastSummary returns the most recent completed run's summary, or nil.
func (s *GeneratorService) LastSummary() *models.RunSummary {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	return s.lastSummary
}

type taskOutcome int

const (
	outcomeGenerated taskOutcome = iota
	outcomeSkipped
	outcomeFailed
)

func (s *GeneratorService) run(ctx context.Context, trigger string, days []time.Time) (models.RunSummary, error) {
	if !s.runMu.TryLock() {
		return models.RunSummary{}, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	s.inFlight.Store(true)
	defer s.inFlight.Store(false)

	summary := models.RunSummary{
		Trigger:   trigger,
		Days:      days,
		StartedAt: time.Now().UTC(),
	}

	units, err := s.units.ActiveUnits(ctx)
	if err != nil {
		// Registry failure is fatal for the run: there is nothing to act on.
		s.log.Errorw("active unit fetch failed", "trigger", trigger, "err", err)
		return summary, fmt.Errorf("fetch active units: %w", err)
	}
	summary.UnitsTotal = len(units)

	if len(units) == 0 {
		// A reachable registry with an empty fleet is a no-op success,
		// distinct from a registry connectivity failure.
		summary.FinishedAt = time.Now().UTC()
		s.log.Infow("no active units, nothing to generate", "trigger", trigger)
		s.storeSummary(summary)
		return summary, nil
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.workers)
	)

fanout:
	for _, day := range days {
		for _, unit := range units {
			if ctx.Err() != nil {
				// Run cancelled: stop scheduling further pairs. In-flight
				// tasks finish at batch-insert granularity.
				break fanout
			}
			wg.Add(1)
			go func(unit models.Unit, day time.Time) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				outcome, inserted, err := s.generateOne(ctx, unit, day)

				mu.Lock()
				defer mu.Unlock()
				switch outcome {
				case outcomeGenerated:
					summary.Generated++
					summary.RecordsInserted += inserted
				case outcomeSkipped:
					summary.Skipped++
				case outcomeFailed:
					summary.Failed++
					summary.Errors = append(summary.Errors, models.UnitError{
						UnitSerial: unit.SerialNumber,
						Day:        day,
						Message:    err.Error(),
					})
				}
			}(unit, day)
		}
	}
	wg.Wait()

	summary.FinishedAt = time.Now().UTC()
	s.storeSummary(summary)
	s.log.Infow("generation run finished",
		"trigger", trigger,
		"days", len(days),
		"units", summary.UnitsTotal,
		"generated", summary.Generated,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"records", summary.RecordsInserted,
	)
	return summary, nil
}

// generateOne is the idempotent unit-of-work for a single (unit, day): if any
// records already exist for the day, it skips; otherwise it synthesizes and
// persists the full 12-record batch. Losing the check-then-insert race to a
// concurrent writer surfaces as a store uniqueness violation and is treated
// as already generated, not as a failure.
func (s *GeneratorService) generateOne(ctx context.Context, unit models.Unit, day time.Time) (taskOutcome, int, error) {
	dayEnd := day.Add(24 * time.Hour)

	existing, err := s.records.CountRange(ctx, unit.SerialNumber, day, dayEnd)
	if err != nil {
		s.log.Errorw("existence check failed", "unit", unit.SerialNumber, "day", day.Format(dateLayout), "err", err)
		return outcomeFailed, 0, err
	}
	if existing > 0 {
		s.log.Debugw("day already generated, skipping", "unit", unit.SerialNumber, "day", day.Format(dateLayout))
		return outcomeSkipped, 0, nil
	}

	records, flags := s.synth.SynthesizeDay(s.newRand(), unit, day)

	if err := s.records.InsertBatch(ctx, records); err != nil {
		if errors.Is(err, repository.ErrDuplicateRecord) {
			return outcomeSkipped, 0, nil
		}
		s.log.Errorw("batch insert failed", "unit", unit.SerialNumber, "day", day.Format(dateLayout), "err", err)
		return outcomeFailed, 0, err
	}

	anomalies := 0
	for _, f := range flags {
		if f {
			anomalies++
		}
	}
	s.log.Infow("generated unit day",
		"unit", unit.SerialNumber,
		"day", day.Format(dateLayout),
		"records", len(records),
		"anomalies", anomalies,
	)
	return outcomeGenerated, len(records), nil
}

func (s *GeneratorService) storeSummary(summary models.RunSummary) {
	s.lastMu.Lock()
	s.lastSummary = &summary
	s.lastMu.Unlock()
}
