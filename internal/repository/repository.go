package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/repository/db"
)

// ErrDuplicateRecord is returned by InsertBatch when the store already holds
// a record for one of the batch's (unit_serial, timestamp) pairs.
var ErrDuplicateRecord = errors.New("record already exists for unit and timestamp")

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// RecordRepo is the record-store boundary: existence check, atomic batch
// insert, and range listing. No update or delete is exposed; records are
// immutable once persisted.
type RecordRepo interface {
	CountRange(ctx context.Context, unitSerial string, from, to time.Time) (int, error)
	InsertBatch(ctx context.Context, records []models.EnergyRecord) error
	List(ctx context.Context, unitSerial string, from, to time.Time) ([]models.EnergyRecord, error)
}

type Repository struct {
	Records RecordRepo
	Auth    Authorization
}

func NewRepository(sqlDB *sql.DB) *Repository {
	return &Repository{
		Records: NewRecordSQLite(sqlDB),
		Auth:    NewUserRepository(sqlDB),
	}
}

// InitDB re-exports the db package's initializer so main wires one import.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}
