package handlers

import (
	"context"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockGeneration struct {
	todaySummary    models.RunSummary
	todayErr        error
	backfillSummary models.RunSummary
	backfillErr     error

	todayCalls    int
	backfillCalls int
	lastTrigger   string
	lastDays      int
}

func (m *mockGeneration) RunToday(ctx context.Context, trigger string) (models.RunSummary, error) {
	m.todayCalls++
	m.lastTrigger = trigger
	return m.todaySummary, m.todayErr
}
func (m *mockGeneration) Backfill(ctx context.Context, days int) (models.RunSummary, error) {
	m.backfillCalls++
	m.lastDays = days
	return m.backfillSummary, m.backfillErr
}

type mockRecords struct {
	resp       []models.EnergyRecord
	err        error
	lastFilter service.RecordFilter
}

func (m *mockRecords) List(ctx context.Context, f service.RecordFilter) ([]models.EnergyRecord, error) {
	m.lastFilter = f
	return m.resp, m.err
}

type mockStatus struct {
	snapshot models.SchedulerStatus
}

func (m *mockStatus) Snapshot() models.SchedulerStatus {
	return m.snapshot
}
