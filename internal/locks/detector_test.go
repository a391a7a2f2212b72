package locks

import (
	"strings"
	"testing"
)

func TestDetectLockMode(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected LockMode
	}{
		{
			name:     "CREATE INDEX takes SHARE",
			sql:      "CREATE INDEX idx_users_email ON users(email)",
			expected: LockShare,
		},
		{
			name:     "CREATE UNIQUE INDEX takes SHARE",
			sql:      "CREATE UNIQUE INDEX idx_users_email ON users(email)",
			expected: LockShare,
		},
		{
			name:     "CREATE INDEX CONCURRENTLY takes SHARE UPDATE EXCLUSIVE",
			sql:      "CREATE INDEX CONCURRENTLY idx_users_email ON users(email)",
			expected: LockShareUpdateExclusive,
		},
		{
			name:     "ALTER TABLE ADD COLUMN takes ACCESS EXCLUSIVE",
			sql:      "ALTER TABLE users ADD COLUMN age int",
			expected: LockAccessExclusive,
		},
		{
			name:     "ALTER TABLE ADD CONSTRAINT takes ACCESS EXCLUSIVE",
			sql:      "ALTER TABLE orders ADD CONSTRAINT orders_user_fk FOREIGN KEY (user_id) REFERENCES users (id)",
			expected: LockAccessExclusive,
		},
		{
			name:     "VALIDATE CONSTRAINT takes SHARE UPDATE EXCLUSIVE",
			sql:      "ALTER TABLE orders VALIDATE CONSTRAINT orders_user_fk",
			expected: LockShareUpdateExclusive,
		},
		{
			name:     "DROP TABLE takes ACCESS EXCLUSIVE",
			sql:      "DROP TABLE users",
			expected: LockAccessExclusive,
		},
		{
			name:     "DROP INDEX takes ACCESS EXCLUSIVE",
			sql:      "DROP INDEX idx_users_email",
			expected: LockAccessExclusive,
		},
		{
			name:     "CREATE TABLE locks nothing that exists",
			sql:      "CREATE TABLE users (id int)",
			expected: LockAccessShare,
		},
		{
			name:     "CREATE SCHEMA locks nothing that exists",
			sql:      "CREATE SCHEMA analytics",
			expected: LockAccessShare,
		},
		{
			name:     "GRANT is catalog-only",
			sql:      "GRANT SELECT ON TABLE public.users TO reporting",
			expected: LockAccessShare,
		},
		{
			name:     "REFRESH MATERIALIZED VIEW blocks reads",
			sql:      "REFRESH MATERIALIZED VIEW public.mv_stats",
			expected: LockAccessExclusive,
		},
		{
			name:     "REFRESH MATERIALIZED VIEW CONCURRENTLY allows reads",
			sql:      "REFRESH MATERIALIZED VIEW CONCURRENTLY public.mv_stats",
			expected: LockShareUpdateExclusive,
		},
		{
			name:     "UPDATE takes ROW EXCLUSIVE",
			sql:      "UPDATE users SET name = 'x'",
			expected: LockRowExclusive,
		},
		{
			name:     "empty SQL takes nothing",
			sql:      "   ",
			expected: LockAccessShare,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectLockMode(tt.sql)
			if got != tt.expected {
				t.Errorf("DetectLockMode(%q) = %v, want %v", tt.sql, got, tt.expected)
			}
		})
	}
}

func TestAnalyzeLockImpact(t *testing.T) {
	impact := AnalyzeLockImpact("create index", "CREATE INDEX idx ON users(email)")

	if impact.LockMode != LockShare {
		t.Errorf("expected SHARE, got %v", impact.LockMode)
	}
	if impact.BlocksReads {
		t.Error("SHARE must not block reads")
	}
	if !impact.BlocksWrites {
		t.Error("SHARE must block writes")
	}
	if impact.Impact != ImpactMedium {
		t.Errorf("expected MEDIUM impact, got %v", impact.Impact)
	}
	if !strings.Contains(impact.Explanation, "blocking writes") {
		t.Errorf("unexpected explanation %q", impact.Explanation)
	}
}

func TestLockModeBlocking(t *testing.T) {
	if LockAccessShare.BlocksWrites() {
		t.Error("ACCESS SHARE must not block writes")
	}
	if !LockAccessExclusive.BlocksReads() {
		t.Error("ACCESS EXCLUSIVE must block reads")
	}
	if LockShareUpdateExclusive.BlocksWrites() {
		t.Error("SHARE UPDATE EXCLUSIVE must not block writes")
	}
	if !LockShare.BlocksWrites() {
		t.Error("SHARE must block writes")
	}
}

func TestPredicateHelpers(t *testing.T) {
	if !IsCreateIndexConcurrently("CREATE INDEX CONCURRENTLY idx ON t(a)") {
		t.Error("expected concurrently index to be detected")
	}
	if IsCreateIndexConcurrently("CREATE INDEX idx ON t(a)") {
		t.Error("plain index must not be detected as concurrent")
	}
	if !IsAddConstraintNotValid("ALTER TABLE t ADD CONSTRAINT c CHECK (a > 0) NOT VALID") {
		t.Error("expected NOT VALID constraint to be detected")
	}
	if !IsValidateConstraint("ALTER TABLE t VALIDATE CONSTRAINT c") {
		t.Error("expected VALIDATE CONSTRAINT to be detected")
	}
}
