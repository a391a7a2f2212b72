package locks

import (
	"context"
	"testing"
)

func TestMeasureLockDurationNilDB(t *testing.T) {
	if _, err := MeasureLockDuration(context.Background(), nil, "SELECT 1"); err == nil {
		t.Fatal("expected error for nil database connection")
	}
}

func TestMeasureAndAnnotateNilImpact(t *testing.T) {
	// Must not panic; nothing to fold the measurement into.
	MeasureAndAnnotate(context.Background(), nil, "SELECT 1", nil)
}

func TestLockMeasurementZeroValue(t *testing.T) {
	var m LockMeasurement
	if m.Success {
		t.Error("zero measurement must not report success")
	}
	if m.LockMode != LockAccessShare {
		t.Errorf("zero lock mode should be ACCESS SHARE, got %v", m.LockMode)
	}
}
