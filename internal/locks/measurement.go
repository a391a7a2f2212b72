package locks

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// LockMeasurement represents a measured lock operation on shadow DB
type LockMeasurement struct {
	// Duration of the operation in milliseconds
	DurationMS int64

	// Whether measurement succeeded
	Success bool

	// Error message if measurement failed
	Error string

	// Lock mode detected
	LockMode LockMode

	// SQL that was measured
	SQL string
}

// MeasureLockDuration measures how long a DDL statement holds locks by
// executing it in a transaction on the shadow DB and rolling back.
func MeasureLockDuration(ctx context.Context, db *sql.DB, sqlText string) (*LockMeasurement, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	lockMode := DetectLockMode(sqlText)

	if strings.TrimSpace(sqlText) == "" {
		return &LockMeasurement{
			Success:  false,
			Error:    "empty SQL",
			LockMode: lockMode,
			SQL:      sqlText,
		}, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &LockMeasurement{
			Success:  false,
			Error:    fmt.Sprintf("failed to begin transaction: %v", err),
			LockMode: lockMode,
			SQL:      sqlText,
		}, err
	}

	// Always rollback to avoid permanent changes
	defer func() {
		_ = tx.Rollback()
	}()

	startTime := time.Now()
	_, execErr := tx.ExecContext(ctx, sqlText)
	durationMS := time.Since(startTime).Milliseconds()

	if execErr != nil {
		return &LockMeasurement{
			DurationMS: durationMS,
			Success:    false,
			Error:      execErr.Error(),
			LockMode:   lockMode,
			SQL:        sqlText,
		}, nil
	}

	return &LockMeasurement{
		DurationMS: durationMS,
		Success:    true,
		LockMode:   lockMode,
		SQL:        sqlText,
	}, nil
}

// MeasureAndAnnotate measures sqlText on the shadow DB and folds the result
// into impact. A failed measurement leaves impact unmodified.
func MeasureAndAnnotate(ctx context.Context, db *sql.DB, sqlText string, impact *LockImpact) {
	if impact == nil {
		return
	}
	measurement, err := MeasureLockDuration(ctx, db, sqlText)
	if err != nil || measurement == nil || !measurement.Success {
		return
	}
	impact.EstimatedDurationMS = measurement.DurationMS
	impact.MeasuredOnShadowDB = true
}
