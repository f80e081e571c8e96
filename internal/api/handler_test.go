package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"forecast-verifier/internal/models"
	"forecast-verifier/internal/reader"
	"forecast-verifier/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type stubStore struct {
	rows map[store.RecordID]store.StoredRecord
	err  error
}

func (s *stubStore) ReadAll(ctx context.Context) (map[store.RecordID]store.StoredRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func ptr[T any](v T) *T { return &v }

func storedRow(timestamp string) store.StoredRecord {
	return store.StoredRecord{
		Timestamp:    ptr(timestamp),
		TempForecast: ptr(18.2),
		TempActual:   ptr(19.0),
		TempMSE:      ptr(0.64),
		WindForecast: ptr(9.0),
		WindActual:   ptr(11.5),
		WindMSE:      ptr(6.25),
	}
}

func newTestApp(s store.Reader) *fiber.App {
	logger := zap.NewNop()
	seriesReader := reader.NewSeriesReader(s, time.UTC, time.Minute, logger)

	app := fiber.New()
	handler := NewHandler(seriesReader, logger)
	SetupRoutes(app, handler, logger)
	return app
}

func TestGetRecords(t *testing.T) {
	app := newTestApp(&stubStore{rows: map[store.RecordID]store.StoredRecord{
		1: storedRow("2024-03-01 14:05:00"),
		2: storedRow("2024-03-01 15:05:00"),
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body struct {
		Count   int                    `json:"count"`
		Records []models.WeatherRecord `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
	if len(body.Records) != 2 {
		t.Fatalf("records length = %d, want 2", len(body.Records))
	}
	if !body.Records[0].Timestamp.After(body.Records[1].Timestamp) {
		t.Error("records should be newest first")
	}
}

func TestGetLatestRecord(t *testing.T) {
	app := newTestApp(&stubStore{rows: map[store.RecordID]store.StoredRecord{
		1: storedRow("2024-03-01 14:05:00"),
		2: storedRow("2024-03-01 16:05:00"),
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/latest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var record models.WeatherRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if record.Timestamp.Hour() != 16 {
		t.Errorf("latest record hour = %d, want 16", record.Timestamp.Hour())
	}
}

func TestGetLatestRecordEmptyStore(t *testing.T) {
	app := newTestApp(&stubStore{rows: map[store.RecordID]store.StoredRecord{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/latest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestGetRecordsValidationFailure(t *testing.T) {
	bad := storedRow("2024-03-01 14:05:00")
	bad.TempMSE = nil

	app := newTestApp(&stubStore{rows: map[store.RecordID]store.StoredRecord{1: bad}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
}

func TestGetRecordsStoreUnavailable(t *testing.T) {
	app := newTestApp(&stubStore{err: &store.StoreError{
		Op:     "read_all",
		Reason: store.ReasonConnectivity,
		Err:    errors.New("connection refused"),
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	app := newTestApp(&stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
