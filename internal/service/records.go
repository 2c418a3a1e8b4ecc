package service

import (
	"context"
	"errors"
	"time"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/repository"
)

// RecordFilter narrows a records query. Zero fields are unconstrained; the
// time range is [From, To).
type RecordFilter struct {
	UnitSerial string
	From       time.Time
	To         time.Time
}

var errInvalidTimeRange = errors.New("invalid time range: from must be <= to")

type RecordsService struct {
	repo repository.RecordRepo
}

func NewRecordsService(repo repository.RecordRepo) *RecordsService {
	return &RecordsService{repo: repo}
}

// List returns persisted records matching the filter, ordered by timestamp.
func (s *RecordsService) List(ctx context.Context, f RecordFilter) ([]models.EnergyRecord, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	return s.repo.List(ctx, f.UnitSerial, from, to)
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
