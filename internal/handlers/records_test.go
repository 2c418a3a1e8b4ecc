package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
)

func TestGetRecords_NoFilters(t *testing.T) {
	rec := &mockRecords{resp: []models.EnergyRecord{
		{UnitSerial: "INV-001", EnergyGenerated: 3750},
		{UnitSerial: "INV-001", EnergyGenerated: 2100},
	}}
	w := doRequest(newTestHandler(&mockGeneration{}, rec, nil, nil), http.MethodGet, "/api/v1/records/", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Count   int                   `json:"count"`
		Records []models.EnergyRecord `json:"records"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Count != 2 || len(resp.Records) != 2 {
		t.Fatalf("want 2 records, got count=%d len=%d", resp.Count, len(resp.Records))
	}
	if !rec.lastFilter.From.IsZero() || !rec.lastFilter.To.IsZero() || rec.lastFilter.UnitSerial != "" {
		t.Errorf("filter must be empty without query params, got %+v", rec.lastFilter)
	}
}

func TestGetRecords_FilterForwarding(t *testing.T) {
	rec := &mockRecords{}
	path := "/api/v1/records/?serial=INV-042&from=2025-12-01T06:00:00Z&to=2025-12-01T18:00:00Z"
	w := doRequest(newTestHandler(&mockGeneration{}, rec, nil, nil), http.MethodGet, path, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if rec.lastFilter.UnitSerial != "INV-042" {
		t.Errorf("serial: got %q", rec.lastFilter.UnitSerial)
	}
	wantFrom := time.Date(2025, 12, 1, 6, 0, 0, 0, time.UTC)
	if !rec.lastFilter.From.Equal(wantFrom) {
		t.Errorf("from: want %v, got %v", wantFrom, rec.lastFilter.From)
	}
}

func TestGetRecords_DateOnlyToIsExclusiveNextDay(t *testing.T) {
	rec := &mockRecords{}
	path := "/api/v1/records/?from=2025-12-01&to=2025-12-03"
	w := doRequest(newTestHandler(&mockGeneration{}, rec, nil, nil), http.MethodGet, path, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	wantTo := time.Date(2025, 12, 4, 0, 0, 0, 0, time.UTC)
	if !rec.lastFilter.To.Equal(wantTo) {
		t.Errorf("date-only 'to' must cover the whole day: want %v, got %v", wantTo, rec.lastFilter.To)
	}
}

func TestGetRecords_BadTimes(t *testing.T) {
	cases := []struct {
		name string
		path string
	}{
		{name: "bad from", path: "/api/v1/records/?from=yesterday"},
		{name: "bad to", path: "/api/v1/records/?to=12-01-2025"},
		{name: "from after to", path: "/api/v1/records/?from=2025-12-05&to=2025-12-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(newTestHandler(&mockGeneration{}, &mockRecords{}, nil, nil), http.MethodGet, tc.path, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d", w.Code)
			}
		})
	}
}

func TestGetRecords_ServiceError(t *testing.T) {
	rec := &mockRecords{err: errors.New("db locked")}
	w := doRequest(newTestHandler(&mockGeneration{}, rec, nil, nil), http.MethodGet, "/api/v1/records/", nil)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", w.Code)
	}
}
