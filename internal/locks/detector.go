package locks

import (
	"strings"

	"github.com/pgdelta/pgdelta/internal/change"
)

// DetectLockMode analyzes one SQL statement and returns the lock mode it
// will acquire on the objects it touches.
func DetectLockMode(sqlText string) LockMode {
	sql := strings.TrimSpace(sqlText)
	if sql == "" {
		return LockAccessShare // Empty SQL = no locks
	}
	sqlUpper := strings.ToUpper(sql)

	// CREATE INDEX patterns
	if strings.HasPrefix(sqlUpper, "CREATE INDEX") || strings.HasPrefix(sqlUpper, "CREATE UNIQUE INDEX") {
		if strings.Contains(sqlUpper, "CONCURRENTLY") {
			return LockShareUpdateExclusive
		}
		return LockShare
	}

	// ALTER TABLE patterns
	if strings.HasPrefix(sqlUpper, "ALTER TABLE") {
		// VALIDATE CONSTRAINT - lower lock mode
		if strings.Contains(sqlUpper, "VALIDATE CONSTRAINT") {
			return LockShareUpdateExclusive
		}

		// ADD CONSTRAINT takes ACCESS EXCLUSIVE even with NOT VALID; the
		// NOT VALID form just holds it briefly instead of for a full scan.
		if strings.Contains(sqlUpper, "ADD CONSTRAINT") {
			return LockAccessExclusive
		}

		// Most ALTER TABLE operations take ACCESS EXCLUSIVE
		return LockAccessExclusive
	}

	// DROP TABLE, DROP INDEX, TRUNCATE
	if strings.HasPrefix(sqlUpper, "DROP TABLE") ||
		strings.HasPrefix(sqlUpper, "DROP INDEX") ||
		strings.HasPrefix(sqlUpper, "TRUNCATE") {
		return LockAccessExclusive
	}

	// CREATE TABLE - no lock on the table itself (it doesn't exist yet)
	if strings.HasPrefix(sqlUpper, "CREATE TABLE") ||
		strings.HasPrefix(sqlUpper, "CREATE SCHEMA") ||
		strings.HasPrefix(sqlUpper, "CREATE SEQUENCE") ||
		strings.HasPrefix(sqlUpper, "CREATE VIEW") ||
		strings.HasPrefix(sqlUpper, "CREATE OR REPLACE VIEW") ||
		strings.HasPrefix(sqlUpper, "CREATE FUNCTION") ||
		strings.HasPrefix(sqlUpper, "CREATE OR REPLACE FUNCTION") ||
		strings.HasPrefix(sqlUpper, "CREATE PROCEDURE") ||
		strings.HasPrefix(sqlUpper, "CREATE OR REPLACE PROCEDURE") ||
		strings.HasPrefix(sqlUpper, "CREATE TYPE") ||
		strings.HasPrefix(sqlUpper, "COMMENT ON") ||
		strings.HasPrefix(sqlUpper, "GRANT") ||
		strings.HasPrefix(sqlUpper, "REVOKE") {
		return LockAccessShare
	}

	// REFRESH MATERIALIZED VIEW without CONCURRENTLY blocks reads
	if strings.HasPrefix(sqlUpper, "REFRESH MATERIALIZED VIEW") {
		if strings.Contains(sqlUpper, "CONCURRENTLY") {
			return LockShareUpdateExclusive
		}
		return LockAccessExclusive
	}

	// INSERT, UPDATE, DELETE
	if strings.HasPrefix(sqlUpper, "INSERT") ||
		strings.HasPrefix(sqlUpper, "UPDATE") ||
		strings.HasPrefix(sqlUpper, "DELETE") {
		return LockRowExclusive
	}

	// SELECT
	if strings.HasPrefix(sqlUpper, "SELECT") {
		return LockAccessShare
	}

	// Default: assume high lock for safety
	return LockAccessExclusive
}

// AnalyzeLockImpact returns detailed lock impact information for one SQL
// statement.
func AnalyzeLockImpact(description, sqlText string) *LockImpact {
	lockMode := DetectLockMode(sqlText)

	return &LockImpact{
		Operation:    description,
		LockMode:     lockMode,
		BlocksReads:  lockMode.BlocksReads(),
		BlocksWrites: lockMode.BlocksWrites(),
		Impact:       lockMode.ImpactLevel(),
		Explanation:  explainLockMode(sqlText, lockMode),
	}
}

// AnalyzeChange annotates one planned change with the lock impact of its
// serialized statement. Purely advisory: it never alters planning or
// execution order.
func AnalyzeChange(c change.Change) *LockImpact {
	sqlText := c.Serialize(change.SerializeOptions{})
	description := string(c.Operation) + " " + c.ObjectType
	return AnalyzeLockImpact(description, sqlText)
}

// explainLockMode provides a human-readable explanation of why this lock is needed
func explainLockMode(sqlText string, mode LockMode) string {
	sqlUpper := strings.ToUpper(strings.TrimSpace(sqlText))
	if sqlUpper == "" {
		return "No SQL operations"
	}

	switch mode {
	case LockAccessExclusive:
		if strings.Contains(sqlUpper, "ALTER TABLE") {
			if strings.Contains(sqlUpper, "ADD COLUMN") {
				if strings.Contains(sqlUpper, "DEFAULT") {
					return "ALTER TABLE ADD COLUMN with DEFAULT requires rewriting the entire table"
				}
				return "ALTER TABLE requires exclusive access to modify table structure"
			}
			if strings.Contains(sqlUpper, "DROP COLUMN") {
				return "DROP COLUMN requires exclusive access to modify table structure"
			}
			if strings.Contains(sqlUpper, "ALTER COLUMN") && strings.Contains(sqlUpper, "TYPE") {
				return "Changing column type may require rewriting the entire table"
			}
			if strings.Contains(sqlUpper, "ADD CONSTRAINT") && !strings.Contains(sqlUpper, "NOT VALID") {
				return "ADD CONSTRAINT scans all existing rows to validate the constraint"
			}
			return "ALTER TABLE operation requires exclusive access"
		}
		if strings.Contains(sqlUpper, "DROP TABLE") {
			return "DROP TABLE requires exclusive access to remove the table"
		}
		if strings.Contains(sqlUpper, "TRUNCATE") {
			return "TRUNCATE requires exclusive access to delete all rows"
		}
		if strings.Contains(sqlUpper, "REFRESH MATERIALIZED VIEW") {
			return "REFRESH MATERIALIZED VIEW without CONCURRENTLY blocks reads during the refresh"
		}
		return "This operation requires exclusive table access"

	case LockShare:
		if strings.Contains(sqlUpper, "CREATE INDEX") && !strings.Contains(sqlUpper, "CONCURRENTLY") {
			return "CREATE INDEX requires SHARE lock, blocking writes during index build"
		}
		return "This operation blocks writes but allows reads"

	case LockShareUpdateExclusive:
		if strings.Contains(sqlUpper, "CREATE INDEX") && strings.Contains(sqlUpper, "CONCURRENTLY") {
			return "CREATE INDEX CONCURRENTLY allows concurrent reads and writes"
		}
		if strings.Contains(sqlUpper, "VALIDATE CONSTRAINT") {
			return "VALIDATE CONSTRAINT allows concurrent reads and writes"
		}
		return "This operation allows concurrent reads and writes"

	case LockRowExclusive:
		return "Normal DML operation (INSERT/UPDATE/DELETE)"

	case LockAccessShare:
		return "Creates a new object or reads catalogs; existing tables stay available"

	default:
		return "Standard locking for this operation type"
	}
}

// IsCreateIndexConcurrently returns true if the statement creates an index concurrently
func IsCreateIndexConcurrently(sqlText string) bool {
	sqlUpper := strings.ToUpper(strings.TrimSpace(sqlText))
	return strings.HasPrefix(sqlUpper, "CREATE INDEX CONCURRENTLY") ||
		strings.HasPrefix(sqlUpper, "CREATE UNIQUE INDEX CONCURRENTLY")
}

// IsAddConstraintNotValid returns true if the statement adds a constraint with NOT VALID
func IsAddConstraintNotValid(sqlText string) bool {
	sqlUpper := strings.ToUpper(sqlText)
	return strings.Contains(sqlUpper, "ADD CONSTRAINT") && strings.Contains(sqlUpper, "NOT VALID")
}

// IsValidateConstraint returns true if the statement validates a constraint
func IsValidateConstraint(sqlText string) bool {
	return strings.Contains(strings.ToUpper(sqlText), "VALIDATE CONSTRAINT")
}
