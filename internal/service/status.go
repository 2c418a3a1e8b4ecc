package service

import (
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
)

// StatusService exposes a read-only snapshot of the generation subsystem for
// the API and the WebSocket stream.
type StatusService struct {
	gen   *GeneratorService
	sched *Scheduler
}

func NewStatusService(gen *GeneratorService, sched *Scheduler) *StatusService {
	return &StatusService{gen: gen, sched: sched}
}

func (s *StatusService) Snapshot() models.SchedulerStatus {
	return models.SchedulerStatus{
		SchedulerRunning: s.sched.Running(),
		RunInFlight:      s.gen.InFlight(),
		NextFireAt:       s.sched.NextFire(),
		LastSummary:      s.gen.LastSummary(),
	}
}
