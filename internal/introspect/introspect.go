// Package introspect populates a catalog.Snapshot from a live PostgreSQL
// database. It covers the kinds a typical application schema exercises
// (schemas, tables/columns, constraints, indexes, sequences, views,
// materialized views, functions/procedures, extensions); the full §3.2
// entity surface arrives through the same Snapshot shape regardless of
// which extractor produced it.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pgdelta/pgdelta/internal/catalog"
)

// Options narrows what Snapshot reads.
type Options struct {
	// Schemas restricts introspection to the named schemas; empty means
	// every non-system schema.
	Schemas []string
}

// IsConnectionString reports whether s looks like a Postgres connection
// string rather than a filesystem path.
func IsConnectionString(s string) bool {
	return strings.HasPrefix(s, "postgres://") ||
		strings.HasPrefix(s, "postgresql://") ||
		strings.Contains(s, "host=") ||
		strings.Contains(s, "dbname=")
}

// Snapshot reads the current schema state of db.
func Snapshot(ctx context.Context, db *sql.DB, opts Options) (*catalog.Snapshot, error) {
	snap := catalog.Empty()

	if err := loadSchemas(ctx, db, opts, snap); err != nil {
		return nil, err
	}
	if err := loadTables(ctx, db, opts, snap); err != nil {
		return nil, err
	}
	if err := loadColumns(ctx, db, opts, snap); err != nil {
		return nil, err
	}
	if err := loadConstraints(ctx, db, opts, snap); err != nil {
		return nil, err
	}
	if err := loadIndexes(ctx, db, opts, snap); err != nil {
		return nil, err
	}
	if err := loadSequences(ctx, db, opts, snap); err != nil {
		return nil, err
	}
	if err := loadViews(ctx, db, opts, snap); err != nil {
		return nil, err
	}
	if err := loadRoutines(ctx, db, opts, snap); err != nil {
		return nil, err
	}
	if err := loadExtensions(ctx, db, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

const systemSchemaFilter = "n.nspname NOT IN ('pg_catalog', 'information_schema', 'pg_toast')"

func schemaFilter(opts Options, column string) (string, []any) {
	if len(opts.Schemas) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(opts.Schemas))
	args := make([]any, len(opts.Schemas))
	for i, s := range opts.Schemas {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = s
	}
	return fmt.Sprintf(" AND %s IN (%s)", column, strings.Join(placeholders, ", ")), args
}

func loadSchemas(ctx context.Context, db *sql.DB, opts Options, snap *catalog.Snapshot) error {
	query := `
SELECT n.nspname, pg_get_userbyid(n.nspowner), obj_description(n.oid, 'pg_namespace')
FROM pg_namespace n
WHERE ` + systemSchemaFilter + ` AND n.nspname NOT LIKE 'pg_temp%'`
	extra, args := schemaFilter(opts, "n.nspname")
	rows, err := db.QueryContext(ctx, query+extra, args...)
	if err != nil {
		return fmt.Errorf("introspect schemas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s catalog.Schema
		var comment sql.NullString
		if err := rows.Scan(&s.Name, &s.Owner, &comment); err != nil {
			return err
		}
		if comment.Valid {
			s.Comment = &comment.String
		}
		snap.Schemas[s.StableID()] = s
	}
	return rows.Err()
}

func loadTables(ctx context.Context, db *sql.DB, opts Options, snap *catalog.Snapshot) error {
	query := `
SELECT n.nspname, c.relname, pg_get_userbyid(c.relowner),
       obj_description(c.oid, 'pg_class'), c.relrowsecurity, c.relreplident
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind IN ('r', 'p') AND ` + systemSchemaFilter
	extra, args := schemaFilter(opts, "n.nspname")
	rows, err := db.QueryContext(ctx, query+extra, args...)
	if err != nil {
		return fmt.Errorf("introspect tables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t catalog.Table
		var comment sql.NullString
		var replident string
		if err := rows.Scan(&t.Schema, &t.Name, &t.Owner, &comment, &t.RLSEnabled, &replident); err != nil {
			return err
		}
		if comment.Valid {
			t.Comment = &comment.String
		}
		switch replident {
		case "f":
			t.ReplicaIdentity = catalog.ReplicaIdentityFull
		case "n":
			t.ReplicaIdentity = catalog.ReplicaIdentityNothing
		case "i":
			t.ReplicaIdentity = catalog.ReplicaIdentityIndex
		default:
			t.ReplicaIdentity = catalog.ReplicaIdentityDefault
		}
		snap.Tables[t.StableID()] = t
	}
	return rows.Err()
}

func loadColumns(ctx context.Context, db *sql.DB, opts Options, snap *catalog.Snapshot) error {
	query := `
SELECT n.nspname, c.relname, a.attname, a.attnum,
       format_type(a.atttypid, a.atttypmod), a.attnotnull,
       a.attidentity, a.attgenerated,
       pg_get_expr(d.adbin, d.adrelid),
       col_description(c.oid, a.attnum)
FROM pg_attribute a
JOIN pg_class c ON c.oid = a.attrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
WHERE c.relkind IN ('r', 'p') AND a.attnum > 0 AND NOT a.attisdropped
  AND ` + systemSchemaFilter
	extra, args := schemaFilter(opts, "n.nspname")
	rows, err := db.QueryContext(ctx, query+extra+" ORDER BY n.nspname, c.relname, a.attnum", args...)
	if err != nil {
		return fmt.Errorf("introspect columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var col catalog.Column
		var identity, generated string
		var def, comment sql.NullString
		if err := rows.Scan(&col.Schema, &col.Table, &col.Name, &col.Position,
			&col.DataType, &col.NotNull, &identity, &generated, &def, &comment); err != nil {
			return err
		}
		switch identity {
		case "a":
			col.Identity = catalog.IdentityAlways
		case "d":
			col.Identity = catalog.IdentityByDefault
		default:
			col.Identity = catalog.IdentityNone
		}
		if generated == "s" {
			col.Generated = catalog.GeneratedStored
		} else {
			col.Generated = catalog.GeneratedNone
		}
		if def.Valid {
			col.Default = &def.String
		}
		if comment.Valid {
			col.Comment = &comment.String
		}

		tableID := catalog.Table{Schema: col.Schema, Name: col.Table}.StableID()
		if t, ok := snap.Tables[tableID]; ok {
			t.Columns = append(t.Columns, col)
			snap.Tables[tableID] = t
		}
	}
	return rows.Err()
}

func loadConstraints(ctx context.Context, db *sql.DB, opts Options, snap *catalog.Snapshot) error {
	query := `
SELECT n.nspname, rel.relname, con.conname, con.contype,
       pg_get_constraintdef(con.oid), NOT con.convalidated
FROM pg_constraint con
JOIN pg_class rel ON rel.oid = con.conrelid
JOIN pg_namespace n ON n.oid = rel.relnamespace
WHERE con.contype IN ('p', 'u', 'f', 'c', 'x') AND ` + systemSchemaFilter
	extra, args := schemaFilter(opts, "n.nspname")
	rows, err := db.QueryContext(ctx, query+extra, args...)
	if err != nil {
		return fmt.Errorf("introspect constraints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c catalog.Constraint
		var contype string
		if err := rows.Scan(&c.Schema, &c.Table, &c.Name, &contype, &c.Body, &c.NotValid); err != nil {
			return err
		}
		switch contype {
		case "p":
			c.Kind = catalog.ConstraintPrimaryKey
		case "u":
			c.Kind = catalog.ConstraintUnique
		case "f":
			c.Kind = catalog.ConstraintForeignKey
		case "c":
			c.Kind = catalog.ConstraintCheck
		case "x":
			c.Kind = catalog.ConstraintExclusion
		}
		snap.Constraints[c.StableID()] = c
	}
	return rows.Err()
}

func loadIndexes(ctx context.Context, db *sql.DB, opts Options, snap *catalog.Snapshot) error {
	// Indexes backing constraints belong to their constraint entity.
	query := `
SELECT n.nspname, ic.relname, tc.relname, pg_get_indexdef(i.indexrelid),
       obj_description(i.indexrelid, 'pg_class')
FROM pg_index i
JOIN pg_class ic ON ic.oid = i.indexrelid
JOIN pg_class tc ON tc.oid = i.indrelid
JOIN pg_namespace n ON n.oid = tc.relnamespace
WHERE NOT EXISTS (SELECT 1 FROM pg_constraint con WHERE con.conindid = i.indexrelid)
  AND ` + systemSchemaFilter
	extra, args := schemaFilter(opts, "n.nspname")
	rows, err := db.QueryContext(ctx, query+extra, args...)
	if err != nil {
		return fmt.Errorf("introspect indexes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var idx catalog.Index
		var comment sql.NullString
		if err := rows.Scan(&idx.Schema, &idx.Name, &idx.Table, &idx.Definition, &comment); err != nil {
			return err
		}
		if comment.Valid {
			idx.Comment = &comment.String
		}
		snap.Indexes[idx.StableID()] = idx
	}
	return rows.Err()
}

func loadSequences(ctx context.Context, db *sql.DB, opts Options, snap *catalog.Snapshot) error {
	query := `
SELECT n.nspname, c.relname, format_type(s.seqtypid, NULL),
       s.seqstart, s.seqmin, s.seqmax, s.seqincrement, s.seqcycle, s.seqcache
FROM pg_sequence s
JOIN pg_class c ON c.oid = s.seqrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE ` + systemSchemaFilter
	extra, args := schemaFilter(opts, "n.nspname")
	rows, err := db.QueryContext(ctx, query+extra, args...)
	if err != nil {
		return fmt.Errorf("introspect sequences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var seq catalog.Sequence
		if err := rows.Scan(&seq.Schema, &seq.Name, &seq.DataType,
			&seq.Start, &seq.Min, &seq.Max, &seq.Increment, &seq.Cycle, &seq.Cache); err != nil {
			return err
		}
		snap.Sequences[seq.StableID()] = seq
	}
	return rows.Err()
}

func loadViews(ctx context.Context, db *sql.DB, opts Options, snap *catalog.Snapshot) error {
	query := `
SELECT n.nspname, c.relname, c.relkind, pg_get_viewdef(c.oid, true),
       obj_description(c.oid, 'pg_class')
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind IN ('v', 'm') AND ` + systemSchemaFilter
	extra, args := schemaFilter(opts, "n.nspname")
	rows, err := db.QueryContext(ctx, query+extra, args...)
	if err != nil {
		return fmt.Errorf("introspect views: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var schema, name, relkind, definition string
		var comment sql.NullString
		if err := rows.Scan(&schema, &name, &relkind, &definition, &comment); err != nil {
			return err
		}
		if relkind == "m" {
			mv := catalog.MaterializedView{Schema: schema, Name: name, Definition: definition}
			if comment.Valid {
				mv.Comment = &comment.String
			}
			snap.MaterializedViews[mv.StableID()] = mv
			continue
		}
		v := catalog.View{Schema: schema, Name: name, Definition: definition}
		if comment.Valid {
			v.Comment = &comment.String
		}
		snap.Views[v.StableID()] = v
	}
	return rows.Err()
}

func loadRoutines(ctx context.Context, db *sql.DB, opts Options, snap *catalog.Snapshot) error {
	query := `
SELECT n.nspname, p.proname, p.prokind,
       pg_get_function_identity_arguments(p.oid),
       COALESCE(pg_get_function_result(p.oid), ''),
       l.lanname, p.provolatile, p.prosecdef, p.proparallel,
       p.proisstrict, p.proleakproof,
       pg_get_functiondef(p.oid),
       pg_get_userbyid(p.proowner),
       obj_description(p.oid, 'pg_proc')
FROM pg_proc p
JOIN pg_namespace n ON n.oid = p.pronamespace
JOIN pg_language l ON l.oid = p.prolang
WHERE p.prokind IN ('f', 'p') AND ` + systemSchemaFilter
	extra, args := schemaFilter(opts, "n.nspname")
	rows, err := db.QueryContext(ctx, query+extra, args...)
	if err != nil {
		return fmt.Errorf("introspect routines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var schema, name, kind, identityArgs, returnType, language string
		var volatility, parallel string
		var secdef, strict, leakproof bool
		var definition, owner string
		var comment sql.NullString
		if err := rows.Scan(&schema, &name, &kind, &identityArgs, &returnType,
			&language, &volatility, &secdef, &parallel, &strict, &leakproof,
			&definition, &owner, &comment); err != nil {
			return err
		}

		signature := "(" + identityArgs + ")"
		if kind == "p" {
			p := catalog.Procedure{
				Schema:            schema,
				Name:              name,
				IdentityArguments: signature,
				Language:          language,
				Definition:        definition,
				Owner:             owner,
			}
			if secdef {
				p.Security = catalog.SecurityDefiner
			} else {
				p.Security = catalog.SecurityInvoker
			}
			if comment.Valid {
				p.Comment = &comment.String
			}
			snap.Procedures[p.StableID()] = p
			continue
		}

		f := catalog.Function{
			Schema:            schema,
			Name:              name,
			IdentityArguments: signature,
			ReturnType:        returnType,
			Language:          language,
			Strict:            strict,
			Leakproof:         leakproof,
			Definition:        definition,
			Owner:             owner,
		}
		switch volatility {
		case "i":
			f.Volatility = catalog.VolatilityImmutable
		case "s":
			f.Volatility = catalog.VolatilityStable
		default:
			f.Volatility = catalog.VolatilityVolatile
		}
		if secdef {
			f.Security = catalog.SecurityDefiner
		} else {
			f.Security = catalog.SecurityInvoker
		}
		switch parallel {
		case "s":
			f.Parallel = catalog.ParallelSafe
		case "r":
			f.Parallel = catalog.ParallelRestricted
		default:
			f.Parallel = catalog.ParallelUnsafe
		}
		if comment.Valid {
			f.Comment = &comment.String
		}
		snap.Functions[f.StableID()] = f
	}
	return rows.Err()
}

func loadExtensions(ctx context.Context, db *sql.DB, snap *catalog.Snapshot) error {
	rows, err := db.QueryContext(ctx, `
SELECT e.extname, n.nspname, e.extversion
FROM pg_extension e
JOIN pg_namespace n ON n.oid = e.extnamespace
WHERE e.extname <> 'plpgsql'`)
	if err != nil {
		return fmt.Errorf("introspect extensions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ext catalog.Extension
		if err := rows.Scan(&ext.Name, &ext.Schema, &ext.Version); err != nil {
			return err
		}
		snap.Extensions[ext.StableID()] = ext
	}
	return rows.Err()
}
