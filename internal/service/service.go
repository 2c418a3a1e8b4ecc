package service

import (
	"context"
	"time"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/logger"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Generation exposes the two generation entry points. Both are mutually
// exclusive at the process level; a trigger while a run is active returns
// ErrRunInProgress.
type Generation interface {
	RunToday(ctx context.Context, trigger string) (models.RunSummary, error)
	Backfill(ctx context.Context, days int) (models.RunSummary, error)
}

// Records exposes read-only access to persisted telemetry.
type Records interface {
	List(ctx context.Context, f RecordFilter) ([]models.EnergyRecord, error)
}

// Status exposes the generation subsystem's current snapshot.
type Status interface {
	Snapshot() models.SchedulerStatus
}

// Config carries service-level settings resolved from the config file.
type Config struct {
	Workers    int
	Location   *time.Location
	SigningKey string
	TokenTTL   time.Duration
	Anomalies  []AnomalyRuleConfig
}

// Service aggregates all sub-services. The Scheduler is exported so main can
// drive its Start/Stop lifecycle.
type Service struct {
	Generation
	Records
	Status
	Authorization
	Scheduler *Scheduler
}

// NewService wires the repository layer and registry client into concrete
// services.
func NewService(repos *repository.Repository, units UnitSource, cfg Config, log *logger.Logger) (*Service, error) {
	rules := cfg.Anomalies
	if len(rules) == 0 {
		rules = DefaultAnomalyRules()
	}
	catalog, err := NewAnomalyCatalog(rules)
	if err != nil {
		return nil, err
	}

	synth := NewRecordSynthesizer(catalog)
	gen := NewGeneratorService(units, repos.Records, synth, cfg.Workers, log)
	sched := NewScheduler(gen, cfg.Location, log)

	return &Service{
		Generation:    gen,
		Records:       NewRecordsService(repos.Records),
		Status:        NewStatusService(gen, sched),
		Authorization: NewAuthService(repos.Auth, cfg.SigningKey, cfg.TokenTTL),
		Scheduler:     sched,
	}, nil
}
