package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"forecast-verifier/internal/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

func newMockStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &MySQLStore{conn: db, tz: time.UTC, logger: zap.NewNop()}, mock
}

func TestClassifyReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{"database access denied", &mysql.MySQLError{Number: 1044}, ReasonPermission},
		{"bad credentials", &mysql.MySQLError{Number: 1045}, ReasonPermission},
		{"table access denied", &mysql.MySQLError{Number: 1142}, ReasonPermission},
		{"column access denied", &mysql.MySQLError{Number: 1143}, ReasonPermission},
		{"syntax error", &mysql.MySQLError{Number: 1064}, ReasonMalformed},
		{"unknown column", &mysql.MySQLError{Number: 1054}, ReasonMalformed},
		{"transport failure", errors.New("dial tcp 127.0.0.1:3306: connection refused"), ReasonConnectivity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyReason(tt.err); got != tt.want {
				t.Errorf("classifyReason(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestAppendReadAllRoundTrip(t *testing.T) {
	s, mock := newMockStore(t)

	base := time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC)
	records := []models.WeatherRecord{
		{Timestamp: base, TempForecast: 18.2, TempActual: 19.0, TempMSE: 0.64, WindForecast: 9.0, WindActual: 11.5, WindMSE: 6.25},
		{Timestamp: base.Add(time.Minute), TempForecast: 18.4, TempActual: 18.1, TempMSE: 0.09, WindForecast: 9.2, WindActual: 8.7, WindMSE: 0.25},
		{Timestamp: base.Add(2 * time.Minute), TempForecast: 18.6, TempActual: 20.6, TempMSE: 4.0, WindForecast: 9.4, WindActual: 10.4, WindMSE: 1.0},
	}

	for i, rec := range records {
		mock.ExpectExec("INSERT INTO weather_records").
			WithArgs(
				rec.Timestamp.Format(models.TimestampLayout),
				rec.TempForecast, rec.TempActual, rec.TempMSE,
				rec.WindForecast, rec.WindActual, rec.WindMSE,
			).
			WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}

	for i, rec := range records {
		id, err := s.Append(context.Background(), rec)
		if err != nil {
			t.Fatalf("Append(%d): unexpected error: %v", i, err)
		}
		if id != RecordID(i+1) {
			t.Errorf("Append(%d) id = %d, want %d", i, id, i+1)
		}
	}

	rows := sqlmock.NewRows([]string{
		"id", "timestamp", "temp_forecast", "temp_actual", "temp_mse",
		"wind_forecast", "wind_actual", "wind_mse",
	})
	for i, rec := range records {
		rows.AddRow(int64(i+1), rec.Timestamp.Format(models.TimestampLayout),
			rec.TempForecast, rec.TempActual, rec.TempMSE,
			rec.WindForecast, rec.WindActual, rec.WindMSE)
	}
	mock.ExpectQuery("SELECT id, timestamp").WillReturnRows(rows)

	got, err := s.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll: unexpected error: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("ReadAll returned %d records, want %d", len(got), len(records))
	}

	for i, rec := range records {
		stored, ok := got[RecordID(i+1)]
		if !ok {
			t.Fatalf("record %d missing from ReadAll result", i+1)
		}
		if *stored.Timestamp != rec.Timestamp.Format(models.TimestampLayout) {
			t.Errorf("record %d timestamp = %q, want %q", i+1, *stored.Timestamp, rec.Timestamp.Format(models.TimestampLayout))
		}
		if *stored.TempForecast != rec.TempForecast || *stored.TempActual != rec.TempActual || *stored.TempMSE != rec.TempMSE {
			t.Errorf("record %d temp fields = (%v, %v, %v), want (%v, %v, %v)",
				i+1, *stored.TempForecast, *stored.TempActual, *stored.TempMSE,
				rec.TempForecast, rec.TempActual, rec.TempMSE)
		}
		if *stored.WindForecast != rec.WindForecast || *stored.WindActual != rec.WindActual || *stored.WindMSE != rec.WindMSE {
			t.Errorf("record %d wind fields = (%v, %v, %v), want (%v, %v, %v)",
				i+1, *stored.WindForecast, *stored.WindActual, *stored.WindMSE,
				rec.WindForecast, rec.WindActual, rec.WindMSE)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAppendPermissionError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO weather_records").
		WillReturnError(&mysql.MySQLError{Number: 1142, Message: "INSERT command denied"})

	rec := models.WeatherRecord{Timestamp: time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC)}
	_, err := s.Append(context.Background(), rec)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *StoreError, got %T", err)
	}
	if storeErr.Op != "append" {
		t.Errorf("op = %q, want %q", storeErr.Op, "append")
	}
	if storeErr.Reason != ReasonPermission {
		t.Errorf("reason = %q, want %q", storeErr.Reason, ReasonPermission)
	}
}

func TestReadAllConnectivityError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, timestamp").
		WillReturnError(errors.New("invalid connection"))

	_, err := s.ReadAll(context.Background())

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *StoreError, got %T", err)
	}
	if storeErr.Reason != ReasonConnectivity {
		t.Errorf("reason = %q, want %q", storeErr.Reason, ReasonConnectivity)
	}
}

func TestReadAllMalformedRow(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{
		"id", "timestamp", "temp_forecast", "temp_actual", "temp_mse",
		"wind_forecast", "wind_actual", "wind_mse",
	}).AddRow(int64(1), "2024-03-01 14:05:00", "not-a-number", 19.0, 0.64, 9.0, 11.5, 6.25)
	mock.ExpectQuery("SELECT id, timestamp").WillReturnRows(rows)

	_, err := s.ReadAll(context.Background())

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *StoreError for unscannable row, got %v", err)
	}
	if storeErr.Reason != ReasonMalformed {
		t.Errorf("reason = %q, want %q", storeErr.Reason, ReasonMalformed)
	}
}
