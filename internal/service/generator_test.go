package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/repository"
)

// ---- test doubles ----

type stubUnitSource struct {
	units []models.Unit
	err   error
	calls int
}

func (s *stubUnitSource) ActiveUnits(ctx context.Context) ([]models.Unit, error) {
	s.calls++
	return s.units, s.err
}

// memRecordRepo is an in-memory RecordRepo that actually persists between
// calls, enforcing the same (serial, timestamp) uniqueness as the real store.
type memRecordRepo struct {
	mu      sync.Mutex
	records []models.EnergyRecord

	countErr  error
	insertErr error

	// blockCount, when non-nil, makes CountRange wait until the channel is
	// closed — used to hold a run open while another trigger arrives.
	blockCount chan struct{}
}

func (m *memRecordRepo) CountRange(ctx context.Context, serial string, from, to time.Time) (int, error) {
	if m.blockCount != nil {
		<-m.blockCount
	}
	if m.countErr != nil {
		return 0, m.countErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records {
		if r.UnitSerial == serial && !r.Timestamp.Before(from) && r.Timestamp.Before(to) {
			n++
		}
	}
	return n, nil
}

func (m *memRecordRepo) InsertBatch(ctx context.Context, batch []models.EnergyRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range batch {
		for _, existing := range m.records {
			if existing.UnitSerial == rec.UnitSerial && existing.Timestamp.Equal(rec.Timestamp) {
				return repository.ErrDuplicateRecord
			}
		}
	}
	m.records = append(m.records, batch...)
	return nil
}

func (m *memRecordRepo) List(ctx context.Context, serial string, from, to time.Time) ([]models.EnergyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EnergyRecord
	for _, r := range m.records {
		if serial != "" && r.UnitSerial != serial {
			continue
		}
		if !from.IsZero() && r.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !r.Timestamp.Before(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func newTestGenerator(t *testing.T, units *stubUnitSource, repo *memRecordRepo) *GeneratorService {
	t.Helper()
	synth := NewRecordSynthesizer(mustCatalog(t, DefaultAnomalyRules()))
	gen := NewGeneratorService(units, repo, synth, 2, testLogger())
	seed := int64(0)
	var mu sync.Mutex
	gen.SetRandFactory(func() *rand.Rand {
		mu.Lock()
		defer mu.Unlock()
		seed++
		return rand.New(rand.NewSource(seed))
	})
	return gen
}

func activeUnits(serials ...string) []models.Unit {
	units := make([]models.Unit, 0, len(serials))
	for _, s := range serials {
		units = append(units, models.Unit{
			ID:           "id-" + s,
			SerialNumber: s,
			Capacity:     5000,
			Status:       models.UnitStatusActive,
		})
	}
	return units
}

// ---- tests ----

func TestRunToday_GeneratesFullDayPerUnit(t *testing.T) {
	repo := &memRecordRepo{}
	gen := newTestGenerator(t, &stubUnitSource{units: activeUnits("SN-1", "SN-2")}, repo)

	summary, err := gen.RunToday(context.Background(), models.TriggerManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Generated != 2 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Fatalf("summary counts: got %+v", summary)
	}
	if summary.RecordsInserted != 2*models.SlotsPerDay {
		t.Fatalf("records inserted: want %d, got %d", 2*models.SlotsPerDay, summary.RecordsInserted)
	}
	if len(repo.records) != 2*models.SlotsPerDay {
		t.Fatalf("persisted records: want %d, got %d", 2*models.SlotsPerDay, len(repo.records))
	}
	for _, rec := range repo.records {
		if rec.Timestamp.Minute() != 0 || rec.Timestamp.Hour()%models.SlotHours != 0 {
			t.Errorf("record off the 2-hour grid: %s", rec.Timestamp)
		}
	}
}

func TestRunToday_SecondRunSkips(t *testing.T) {
	repo := &memRecordRepo{}
	gen := newTestGenerator(t, &stubUnitSource{units: activeUnits("SN-1")}, repo)
	ctx := context.Background()

	if _, err := gen.RunToday(ctx, models.TriggerManual); err != nil {
		t.Fatalf("first run: %v", err)
	}
	summary, err := gen.RunToday(ctx, models.TriggerManual)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if summary.Generated != 0 || summary.Skipped != 1 {
		t.Fatalf("second run should skip: got %+v", summary)
	}
	if len(repo.records) != models.SlotsPerDay {
		t.Fatalf("idempotence violated: want %d records, got %d", models.SlotsPerDay, len(repo.records))
	}
}

func TestRunToday_UniqueViolationTreatedAsSkip(t *testing.T) {
	// The existence check passes but the insert races into a duplicate:
	// the store's uniqueness constraint fires and the run reports a skip.
	repo := &memRecordRepo{insertErr: repository.ErrDuplicateRecord}
	gen := newTestGenerator(t, &stubUnitSource{units: activeUnits("SN-1")}, repo)

	summary, err := gen.RunToday(context.Background(), models.TriggerManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Skipped != 1 || summary.Failed != 0 {
		t.Fatalf("want skip on uniqueness violation, got %+v", summary)
	}
}

func TestRunToday_PerUnitFailureIsolation(t *testing.T) {
	repo := &memRecordRepo{}
	// Pre-load a broken timestamp clash for SN-2 only: its batch insert will
	// collide while SN-1 and SN-3 proceed.
	today := models.DayStart(time.Now())
	repo.records = append(repo.records, models.EnergyRecord{
		UnitSerial: "SN-2", Timestamp: today.Add(4 * time.Hour),
	})

	gen := newTestGenerator(t, &stubUnitSource{units: activeUnits("SN-1", "SN-2", "SN-3")}, repo)

	summary, err := gen.RunToday(context.Background(), models.TriggerManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// SN-2 already has a record in range, so the existence check skips it;
	// the other two generate.
	if summary.Generated != 2 || summary.Skipped != 1 || summary.Failed != 0 {
		t.Fatalf("summary: got %+v", summary)
	}
}

func TestRunToday_StoreErrorDoesNotHaltOtherUnits(t *testing.T) {
	repo := &memRecordRepo{countErr: errors.New("store down")}
	gen := newTestGenerator(t, &stubUnitSource{units: activeUnits("SN-1", "SN-2")}, repo)

	summary, err := gen.RunToday(context.Background(), models.TriggerManual)
	if err != nil {
		t.Fatalf("per-unit store errors must not fail the run: %v", err)
	}
	if summary.Failed != 2 {
		t.Fatalf("want both units failed, got %+v", summary)
	}
	if len(summary.Errors) != 2 {
		t.Fatalf("want 2 unit errors carrying identity, got %d", len(summary.Errors))
	}
	for _, ue := range summary.Errors {
		if ue.UnitSerial == "" || ue.Message == "" {
			t.Errorf("unit error missing identity or message: %+v", ue)
		}
	}
}

func TestRunToday_RegistryFailureIsFatal(t *testing.T) {
	gen := newTestGenerator(t, &stubUnitSource{err: errors.New("registry timeout")}, &memRecordRepo{})

	_, err := gen.RunToday(context.Background(), models.TriggerManual)
	if err == nil {
		t.Fatal("registry failure must abort the run")
	}
}

func TestRunToday_ZeroActiveUnitsIsNoOpSuccess(t *testing.T) {
	repo := &memRecordRepo{}
	gen := newTestGenerator(t, &stubUnitSource{units: nil}, repo)

	summary, err := gen.RunToday(context.Background(), models.TriggerManual)
	if err != nil {
		t.Fatalf("empty fleet is not an error: %v", err)
	}
	if summary.UnitsTotal != 0 || summary.Generated != 0 || summary.RecordsInserted != 0 {
		t.Fatalf("want zero-count no-op, got %+v", summary)
	}
	if len(repo.records) != 0 {
		t.Fatalf("no records may be inserted, got %d", len(repo.records))
	}
}

func TestBackfill_RoundTrip(t *testing.T) {
	const days = 7
	repo := &memRecordRepo{}
	units := activeUnits("SN-1", "SN-2", "SN-3")
	gen := newTestGenerator(t, &stubUnitSource{units: units}, repo)

	summary, err := gen.Backfill(context.Background(), days)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if summary.Generated != days*len(units) {
		t.Fatalf("want %d generated pairs, got %d", days*len(units), summary.Generated)
	}

	from := models.DayStart(time.Now()).AddDate(0, 0, -(days - 1))
	to := models.DayStart(time.Now()).Add(24 * time.Hour)
	got, err := repo.List(context.Background(), "", from, to)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := days * len(units) * models.SlotsPerDay
	if len(got) != want {
		t.Fatalf("round trip: want %d records, got %d", want, len(got))
	}
	for _, rec := range got {
		if rec.Timestamp.Hour()%models.SlotHours != 0 || rec.Timestamp.Minute() != 0 {
			t.Errorf("record off the 2-hour grid: %s", rec.Timestamp)
		}
	}
}

func TestBackfill_RejectsBadDayCount(t *testing.T) {
	gen := newTestGenerator(t, &stubUnitSource{}, &memRecordRepo{})
	for _, days := range []int{0, -3} {
		if _, err := gen.Backfill(context.Background(), days); err == nil {
			t.Errorf("days=%d must be rejected", days)
		}
	}
}

func TestRun_OverlappingTriggerRejected(t *testing.T) {
	block := make(chan struct{})
	repo := &memRecordRepo{blockCount: block}
	gen := newTestGenerator(t, &stubUnitSource{units: activeUnits("SN-1")}, repo)

	started := make(chan struct{})
	finished := make(chan error, 1)
	go func() {
		close(started)
		_, err := gen.RunToday(context.Background(), models.TriggerTimer)
		finished <- err
	}()
	<-started

	// Wait until the first run is actually inside the store call.
	deadline := time.After(2 * time.Second)
	for !gen.InFlight() {
		select {
		case <-deadline:
			t.Fatal("first run never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := gen.RunToday(context.Background(), models.TriggerManual); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("overlapping trigger: want ErrRunInProgress, got %v", err)
	}

	close(block)
	if err := <-finished; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
}

func TestRun_CancelledContextStopsScheduling(t *testing.T) {
	repo := &memRecordRepo{}
	gen := newTestGenerator(t, &stubUnitSource{units: activeUnits("SN-1", "SN-2")}, repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := gen.Backfill(ctx, 3)
	if err != nil {
		t.Fatalf("cancelled run still returns its summary: %v", err)
	}
	if summary.Generated != 0 {
		t.Fatalf("no pairs should be scheduled after cancellation, got %+v", summary)
	}
}
