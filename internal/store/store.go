// Package store persists one WeatherRecord per successful sampling
// cycle in MySQL, keyed by a store-generated monotonic identifier.
package store

import (
	"context"
	"fmt"

	"forecast-verifier/internal/models"
)

// RecordID is the store-generated key for a persisted record.
// AUTO_INCREMENT guarantees it is monotonically increasing.
type RecordID int64

// StoredRecord is the raw persisted shape of a record as read back from
// the store. Fields are pointers so the read side can detect rows with
// missing values instead of silently zero-filling them; the validator
// tags drive that check.
type StoredRecord struct {
	Timestamp    *string  `validate:"required"`
	TempForecast *float64 `validate:"required"`
	TempActual   *float64 `validate:"required"`
	TempMSE      *float64 `validate:"required"`
	WindForecast *float64 `validate:"required"`
	WindActual   *float64 `validate:"required"`
	WindMSE      *float64 `validate:"required"`
}

// Reason classifies a store failure. The read side uses it for
// diagnostics only, never for control flow.
type Reason string

const (
	ReasonConnectivity Reason = "connectivity"
	ReasonPermission   Reason = "permission"
	ReasonMalformed    Reason = "malformed"
)

type StoreError struct {
	Op     string
	Reason Reason
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s (%s): %v", e.Op, e.Reason, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Appender is the write-path contract: all-or-nothing persistence of a
// fully assembled record.
type Appender interface {
	Append(ctx context.Context, record models.WeatherRecord) (RecordID, error)
}

// Reader is the read-path contract: every persisted record, unpaged.
type Reader interface {
	ReadAll(ctx context.Context) (map[RecordID]StoredRecord, error)
}
