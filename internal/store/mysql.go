package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"forecast-verifier/internal/metrics"
	"forecast-verifier/internal/models"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLStore is the durable record store. The schema is created on
// connect; records are single-row inserts, so a reader can never
// observe a partially written record.
type MySQLStore struct {
	conn   *sql.DB
	tz     *time.Location
	logger *zap.Logger
}

// NewMySQLStore opens the connection, verifies it, configures the pool,
// and ensures the schema exists.
func NewMySQLStore(dsn string, tz *time.Location, logger *zap.Logger) (*MySQLStore, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, &StoreError{Op: "open", Reason: classifyReason(err), Err: err}
	}

	if err := conn.Ping(); err != nil {
		return nil, &StoreError{Op: "ping", Reason: classifyReason(err), Err: err}
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &MySQLStore{conn: conn, tz: tz, logger: logger}

	if err := s.initSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *MySQLStore) initSchema() error {
	stmt := `CREATE TABLE IF NOT EXISTS weather_records (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		timestamp VARCHAR(32),
		temp_forecast DOUBLE,
		temp_actual DOUBLE,
		temp_mse DOUBLE,
		wind_forecast DOUBLE,
		wind_actual DOUBLE,
		wind_mse DOUBLE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

	if _, err := s.conn.Exec(stmt); err != nil {
		return &StoreError{Op: "init_schema", Reason: classifyReason(err), Err: err}
	}
	return nil
}

// Append persists a record and returns its generated key. A single
// INSERT is atomic in MySQL: either the full row becomes readable or
// nothing does.
func (s *MySQLStore) Append(ctx context.Context, record models.WeatherRecord) (RecordID, error) {
	query := `INSERT INTO weather_records
		(timestamp, temp_forecast, temp_actual, temp_mse, wind_forecast, wind_actual, wind_mse)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	result, err := s.conn.ExecContext(ctx, query,
		record.Timestamp.In(s.tz).Format(models.TimestampLayout),
		record.TempForecast,
		record.TempActual,
		record.TempMSE,
		record.WindForecast,
		record.WindActual,
		record.WindMSE,
	)
	metrics.RecordStoreOp("append", time.Since(start), err)
	if err != nil {
		return 0, &StoreError{Op: "append", Reason: classifyReason(err), Err: err}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, &StoreError{Op: "append", Reason: ReasonMalformed, Err: err}
	}

	s.logger.Debug("Record appended",
		zap.Int64("record_id", id),
		zap.Time("timestamp", record.Timestamp))

	return RecordID(id), nil
}

// ReadAll returns every persisted record keyed by its generated id. No
// pagination: cadence is one record per cycle, so the collection stays
// bounded over the system's lifetime.
func (s *MySQLStore) ReadAll(ctx context.Context) (map[RecordID]StoredRecord, error) {
	query := `SELECT id, timestamp, temp_forecast, temp_actual, temp_mse,
		wind_forecast, wind_actual, wind_mse FROM weather_records`

	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, query)
	metrics.RecordStoreOp("read_all", time.Since(start), err)
	if err != nil {
		return nil, &StoreError{Op: "read_all", Reason: classifyReason(err), Err: err}
	}
	defer rows.Close()

	records := make(map[RecordID]StoredRecord)
	for rows.Next() {
		var (
			id  int64
			rec StoredRecord
		)
		if err := rows.Scan(&id, &rec.Timestamp,
			&rec.TempForecast, &rec.TempActual, &rec.TempMSE,
			&rec.WindForecast, &rec.WindActual, &rec.WindMSE); err != nil {
			return nil, &StoreError{Op: "read_all", Reason: ReasonMalformed, Err: err}
		}
		records[RecordID(id)] = rec
	}

	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "read_all", Reason: classifyReason(err), Err: err}
	}

	return records, nil
}

// Close closes the underlying connection pool.
func (s *MySQLStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// MySQL error numbers for denied access on the server, database and
// table level.
var permissionErrNumbers = map[uint16]bool{
	1044: true, // ER_DBACCESS_DENIED_ERROR
	1045: true, // ER_ACCESS_DENIED_ERROR
	1142: true, // ER_TABLEACCESS_DENIED_ERROR
	1143: true, // ER_COLUMNACCESS_DENIED_ERROR
}

func classifyReason(err error) Reason {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if permissionErrNumbers[mysqlErr.Number] {
			return ReasonPermission
		}
		return ReasonMalformed
	}
	return ReasonConnectivity
}
