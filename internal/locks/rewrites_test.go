package locks

import (
	"strings"
	"testing"
)

func TestGenerateSaferRewriteCreateIndex(t *testing.T) {
	tests := []struct {
		name          string
		sql           string
		shouldRewrite bool
		expectedSQL   string
	}{
		{
			name:          "CREATE INDEX should rewrite",
			sql:           "CREATE INDEX idx_users_email ON users(email)",
			shouldRewrite: true,
			expectedSQL:   "CREATE INDEX CONCURRENTLY idx_users_email ON users(email)",
		},
		{
			name:          "CREATE UNIQUE INDEX should rewrite",
			sql:           "CREATE UNIQUE INDEX idx_users_email ON users(email)",
			shouldRewrite: true,
			expectedSQL:   "CREATE UNIQUE INDEX CONCURRENTLY idx_users_email ON users(email)",
		},
		{
			name:          "already CONCURRENTLY should not rewrite",
			sql:           "CREATE INDEX CONCURRENTLY idx_users_email ON users(email)",
			shouldRewrite: false,
		},
		{
			name:          "not an index statement",
			sql:           "CREATE TABLE users (id int)",
			shouldRewrite: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rewrite := GenerateSaferRewrite(tt.sql)
			if !tt.shouldRewrite {
				if rewrite != nil {
					t.Fatalf("expected no rewrite, got %+v", rewrite)
				}
				return
			}
			if rewrite == nil {
				t.Fatal("expected a rewrite, got nil")
			}
			if len(rewrite.SQL) != 1 || rewrite.SQL[0] != tt.expectedSQL {
				t.Errorf("rewrite SQL = %v, want [%q]", rewrite.SQL, tt.expectedSQL)
			}
			if rewrite.LockMode != LockShareUpdateExclusive {
				t.Errorf("rewrite lock mode = %v, want SHARE UPDATE EXCLUSIVE", rewrite.LockMode)
			}
		})
	}
}

func TestGenerateSaferRewriteAddConstraint(t *testing.T) {
	sql := "ALTER TABLE orders ADD CONSTRAINT orders_user_fk FOREIGN KEY (user_id) REFERENCES users (id)"
	rewrite := GenerateSaferRewrite(sql)
	if rewrite == nil {
		t.Fatal("expected a two-phase rewrite, got nil")
	}
	if !rewrite.RequiresMultipleSteps {
		t.Error("expected RequiresMultipleSteps")
	}
	if len(rewrite.SQL) != 2 {
		t.Fatalf("expected two phases, got %v", rewrite.SQL)
	}
	if !strings.HasSuffix(rewrite.SQL[0], "NOT VALID") {
		t.Errorf("phase 1 missing NOT VALID: %q", rewrite.SQL[0])
	}
	if rewrite.SQL[1] != "ALTER TABLE orders VALIDATE CONSTRAINT orders_user_fk" {
		t.Errorf("unexpected phase 2: %q", rewrite.SQL[1])
	}
}

func TestGenerateSaferRewriteAddConstraintQualifiedTable(t *testing.T) {
	sql := "ALTER TABLE app.orders ADD CONSTRAINT orders_total_check CHECK (total >= 0)"
	rewrite := GenerateSaferRewrite(sql)
	if rewrite == nil {
		t.Fatal("expected a rewrite, got nil")
	}
	if rewrite.SQL[1] != "ALTER TABLE app.orders VALIDATE CONSTRAINT orders_total_check" {
		t.Errorf("unexpected phase 2: %q", rewrite.SQL[1])
	}
}

func TestGenerateSaferRewriteSkipsPrimaryKey(t *testing.T) {
	sql := "ALTER TABLE users ADD CONSTRAINT users_pkey PRIMARY KEY (id)"
	if rewrite := GenerateSaferRewrite(sql); rewrite != nil {
		t.Fatalf("PRIMARY KEY cannot be NOT VALID; expected no rewrite, got %+v", rewrite)
	}
}

func TestGenerateSaferRewriteSkipsNotValid(t *testing.T) {
	sql := "ALTER TABLE orders ADD CONSTRAINT c CHECK (total >= 0) NOT VALID"
	if rewrite := GenerateSaferRewrite(sql); rewrite != nil {
		t.Fatalf("already NOT VALID; expected no rewrite, got %+v", rewrite)
	}
}

func TestGenerateSaferRewriteAlterColumnType(t *testing.T) {
	sql := "ALTER TABLE users ALTER COLUMN age TYPE bigint"
	rewrite := GenerateSaferRewrite(sql)
	if rewrite == nil {
		t.Fatal("expected a multi-phase suggestion, got nil")
	}
	if rewrite.SQL != nil {
		t.Errorf("type change has no direct rewrite, got %v", rewrite.SQL)
	}
	if !rewrite.RequiresMultipleSteps {
		t.Error("expected RequiresMultipleSteps")
	}
}

func TestInjectLockTimeout(t *testing.T) {
	got := InjectLockTimeout("ALTER TABLE users ADD COLUMN age int;", 5)
	want := "SET lock_timeout = '5s'; ALTER TABLE users ADD COLUMN age int;"
	if got != want {
		t.Errorf("InjectLockTimeout = %q, want %q", got, want)
	}

	if got := InjectLockTimeout("SELECT 1", 0); got != "SELECT 1" {
		t.Errorf("zero timeout must leave SQL untouched, got %q", got)
	}
}

func TestShouldRewrite(t *testing.T) {
	high := &LockImpact{Impact: ImpactHigh}
	if !ShouldRewrite(high) {
		t.Error("high impact must be rewritten")
	}
	slow := &LockImpact{Impact: ImpactNone, EstimatedDurationMS: 2000}
	if !ShouldRewrite(slow) {
		t.Error("slow operation must be rewritten")
	}
	cheap := &LockImpact{Impact: ImpactNone}
	if ShouldRewrite(cheap) {
		t.Error("cheap operation must not be rewritten")
	}
}
