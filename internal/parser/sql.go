// Package parser turns declarative schema SQL (the contents of a schema/
// directory) into a catalog.Snapshot, so a set of hand-written CREATE
// statements can serve as the branch side of a diff exactly like a
// snapshot extracted from a live database.
//
// The parser covers the declarative subset: CREATE SCHEMA / TABLE /
// INDEX / SEQUENCE / VIEW / MATERIALIZED VIEW / TYPE / DOMAIN / FUNCTION /
// PROCEDURE / EXTENSION / TRIGGER / POLICY, ALTER TABLE ADD CONSTRAINT /
// ENABLE ROW LEVEL SECURITY / REPLICA IDENTITY, COMMENT ON TABLE / COLUMN /
// SCHEMA / VIEW / INDEX, and GRANT ... ON TABLE. Statements outside that
// subset (including comments and grants on other object kinds) are
// skipped; the
// statement analyzer (internal/analyzer) is the tool for arbitrary SQL
// corpora.
package parser

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgdelta/pgdelta/internal/catalog"
)

const defaultSchema = "public"

// ParseSQLSchema parses sqlText into a Snapshot.
func ParseSQLSchema(sqlText string) (*catalog.Snapshot, error) {
	tree, err := pg_query.Parse(sqlText)
	if err != nil {
		return nil, fmt.Errorf("parse schema SQL: %w", err)
	}

	snap := catalog.Empty()
	for _, raw := range tree.Stmts {
		if raw.Stmt == nil {
			continue
		}
		text := stmtText(sqlText, raw)
		switch n := raw.Stmt.Node.(type) {
		case *pg_query.Node_CreateSchemaStmt:
			parseCreateSchema(snap, n.CreateSchemaStmt)
		case *pg_query.Node_CreateStmt:
			if err := parseCreateTable(snap, n.CreateStmt); err != nil {
				return nil, err
			}
		case *pg_query.Node_IndexStmt:
			parseCreateIndex(snap, n.IndexStmt, text)
		case *pg_query.Node_CreateSeqStmt:
			parseCreateSequence(snap, n.CreateSeqStmt)
		case *pg_query.Node_ViewStmt:
			parseCreateView(snap, n.ViewStmt)
		case *pg_query.Node_CreateTableAsStmt:
			parseCreateTableAs(snap, n.CreateTableAsStmt)
		case *pg_query.Node_CreateEnumStmt:
			parseCreateEnum(snap, n.CreateEnumStmt)
		case *pg_query.Node_CompositeTypeStmt:
			parseCompositeType(snap, n.CompositeTypeStmt)
		case *pg_query.Node_CreateDomainStmt:
			parseCreateDomain(snap, n.CreateDomainStmt)
		case *pg_query.Node_CreateFunctionStmt:
			parseCreateFunction(snap, n.CreateFunctionStmt, text)
		case *pg_query.Node_CreateExtensionStmt:
			parseCreateExtension(snap, n.CreateExtensionStmt)
		case *pg_query.Node_CreateTrigStmt:
			parseCreateTrigger(snap, n.CreateTrigStmt)
		case *pg_query.Node_CreatePolicyStmt:
			parseCreatePolicy(snap, n.CreatePolicyStmt)
		case *pg_query.Node_AlterTableStmt:
			parseAlterTable(snap, n.AlterTableStmt)
		case *pg_query.Node_CommentStmt:
			parseComment(snap, n.CommentStmt)
		case *pg_query.Node_GrantStmt:
			parseGrant(snap, n.GrantStmt)
		default:
			// outside the declarative subset
		}
	}
	return snap, nil
}

// stmtText recovers the raw text of one statement from the input.
func stmtText(sqlText string, raw *pg_query.RawStmt) string {
	start := int(raw.StmtLocation)
	if start < 0 || start > len(sqlText) {
		return ""
	}
	end := len(sqlText)
	if raw.StmtLen > 0 && start+int(raw.StmtLen) <= len(sqlText) {
		end = start + int(raw.StmtLen)
	}
	return strings.TrimSpace(sqlText[start:end])
}

func relationSchema(rel *pg_query.RangeVar) string {
	if rel == nil || rel.Schemaname == "" {
		return defaultSchema
	}
	return rel.Schemaname
}

func parseCreateSchema(snap *catalog.Snapshot, stmt *pg_query.CreateSchemaStmt) {
	s := catalog.Schema{Name: stmt.Schemaname}
	if stmt.Authrole != nil {
		s.Owner = stmt.Authrole.Rolename
	}
	snap.Schemas[s.StableID()] = s
}

func parseCreateTable(snap *catalog.Snapshot, stmt *pg_query.CreateStmt) error {
	if stmt.Relation == nil || stmt.Relation.Relname == "" {
		return fmt.Errorf("CREATE TABLE missing relation name")
	}
	table := catalog.Table{
		Schema: relationSchema(stmt.Relation),
		Name:   stmt.Relation.Relname,
	}
	if stmt.Partspec != nil {
		table.Partitioning.Strategy = partitionStrategy(stmt.Partspec.Strategy)
		table.Partitioning.Key = partitionKey(stmt.Partspec)
	}

	position := 0
	for _, elt := range stmt.TableElts {
		switch e := elt.Node.(type) {
		case *pg_query.Node_ColumnDef:
			position++
			col := parseColumnDef(table.Schema, table.Name, e.ColumnDef, position)
			table.Columns = append(table.Columns, col)
			for _, c := range e.ColumnDef.Constraints {
				if con, ok := c.Node.(*pg_query.Node_Constraint); ok {
					applyColumnConstraint(snap, &table, &table.Columns[len(table.Columns)-1], con.Constraint)
				}
			}
		case *pg_query.Node_Constraint:
			addTableConstraint(snap, table.Schema, table.Name, e.Constraint)
		}
	}

	snap.Tables[table.StableID()] = table
	return nil
}

func parseColumnDef(schema, tableName string, def *pg_query.ColumnDef, position int) catalog.Column {
	col := catalog.Column{
		Schema:   schema,
		Table:    tableName,
		Name:     def.Colname,
		Position: position,
		DataType: formatTypeName(def.TypeName),
		Identity: catalog.IdentityNone,
		Generated: catalog.GeneratedNone,
	}
	if def.CollClause != nil {
		col.Collation = qualifiedNameOf(def.CollClause.Collname)
	}
	return col
}

// applyColumnConstraint folds one column-level constraint into the column
// (NOT NULL, DEFAULT, IDENTITY, GENERATED) or synthesizes a table
// constraint entity (PRIMARY KEY, UNIQUE, REFERENCES, CHECK).
func applyColumnConstraint(snap *catalog.Snapshot, table *catalog.Table, col *catalog.Column, con *pg_query.Constraint) {
	switch con.Contype {
	case pg_query.ConstrType_CONSTR_NOTNULL:
		col.NotNull = true
	case pg_query.ConstrType_CONSTR_NULL:
		col.NotNull = false
	case pg_query.ConstrType_CONSTR_DEFAULT:
		if expr := deparseExpr(con.RawExpr); expr != "" {
			col.Default = &expr
		}
	case pg_query.ConstrType_CONSTR_IDENTITY:
		switch con.GeneratedWhen {
		case "a":
			col.Identity = catalog.IdentityAlways
		case "d":
			col.Identity = catalog.IdentityByDefault
		}
		col.NotNull = true
	case pg_query.ConstrType_CONSTR_GENERATED:
		col.Generated = catalog.GeneratedStored
		if expr := deparseExpr(con.RawExpr); expr != "" {
			genExpr := "GENERATED ALWAYS AS (" + expr + ") STORED"
			col.Default = &genExpr
		}
	case pg_query.ConstrType_CONSTR_PRIMARY:
		col.NotNull = true
		c := catalog.Constraint{
			Schema: table.Schema,
			Table:  table.Name,
			Name:   constraintName(con, table.Name, col.Name, "pkey"),
			Kind:   catalog.ConstraintPrimaryKey,
			Body:   fmt.Sprintf("PRIMARY KEY (%s)", col.Name),
		}
		snap.Constraints[c.StableID()] = c
	case pg_query.ConstrType_CONSTR_UNIQUE:
		c := catalog.Constraint{
			Schema: table.Schema,
			Table:  table.Name,
			Name:   constraintName(con, table.Name, col.Name, "key"),
			Kind:   catalog.ConstraintUnique,
			Body:   fmt.Sprintf("UNIQUE (%s)", col.Name),
		}
		snap.Constraints[c.StableID()] = c
	case pg_query.ConstrType_CONSTR_FOREIGN:
		c := catalog.Constraint{
			Schema: table.Schema,
			Table:  table.Name,
			Name:   constraintName(con, table.Name, col.Name, "fkey"),
			Kind:   catalog.ConstraintForeignKey,
			Body:   foreignKeyBody([]string{col.Name}, con),
		}
		snap.Constraints[c.StableID()] = c
	case pg_query.ConstrType_CONSTR_CHECK:
		c := catalog.Constraint{
			Schema: table.Schema,
			Table:  table.Name,
			Name:   constraintName(con, table.Name, col.Name, "check"),
			Kind:   catalog.ConstraintCheck,
			Body:   fmt.Sprintf("CHECK (%s)", deparseExpr(con.RawExpr)),
		}
		snap.Constraints[c.StableID()] = c
	}
}

func addTableConstraint(snap *catalog.Snapshot, schema, tableName string, con *pg_query.Constraint) {
	keyCols := stringListOf(con.Keys)
	switch con.Contype {
	case pg_query.ConstrType_CONSTR_PRIMARY:
		c := catalog.Constraint{
			Schema: schema,
			Table:  tableName,
			Name:   constraintName(con, tableName, strings.Join(keyCols, "_"), "pkey"),
			Kind:   catalog.ConstraintPrimaryKey,
			Body:   fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keyCols, ", ")),
		}
		snap.Constraints[c.StableID()] = c
	case pg_query.ConstrType_CONSTR_UNIQUE:
		c := catalog.Constraint{
			Schema: schema,
			Table:  tableName,
			Name:   constraintName(con, tableName, strings.Join(keyCols, "_"), "key"),
			Kind:   catalog.ConstraintUnique,
			Body:   fmt.Sprintf("UNIQUE (%s)", strings.Join(keyCols, ", ")),
		}
		snap.Constraints[c.StableID()] = c
	case pg_query.ConstrType_CONSTR_FOREIGN:
		fkCols := stringListOf(con.FkAttrs)
		c := catalog.Constraint{
			Schema: schema,
			Table:  tableName,
			Name:   constraintName(con, tableName, strings.Join(fkCols, "_"), "fkey"),
			Kind:   catalog.ConstraintForeignKey,
			Body:   foreignKeyBody(fkCols, con),
		}
		snap.Constraints[c.StableID()] = c
	case pg_query.ConstrType_CONSTR_CHECK:
		c := catalog.Constraint{
			Schema:   schema,
			Table:    tableName,
			Name:     constraintName(con, tableName, "", "check"),
			Kind:     catalog.ConstraintCheck,
			Body:     fmt.Sprintf("CHECK (%s)", deparseExpr(con.RawExpr)),
			NotValid: con.SkipValidation,
		}
		snap.Constraints[c.StableID()] = c
	case pg_query.ConstrType_CONSTR_EXCLUSION:
		c := catalog.Constraint{
			Schema: schema,
			Table:  tableName,
			Name:   constraintName(con, tableName, "", "excl"),
			Kind:   catalog.ConstraintExclusion,
			Body:   "EXCLUDE", // full exclusion bodies come from the extractor
		}
		snap.Constraints[c.StableID()] = c
	}
}

func foreignKeyBody(cols []string, con *pg_query.Constraint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FOREIGN KEY (%s)", strings.Join(cols, ", "))
	if con.Pktable != nil {
		ref := con.Pktable.Relname
		if con.Pktable.Schemaname != "" {
			ref = con.Pktable.Schemaname + "." + ref
		}
		fmt.Fprintf(&b, " REFERENCES %s", ref)
		if pkCols := stringListOf(con.PkAttrs); len(pkCols) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(pkCols, ", "))
		}
	}
	if action := foreignKeyAction(con.FkDelAction); action != "" && action != "NO ACTION" {
		fmt.Fprintf(&b, " ON DELETE %s", action)
	}
	if action := foreignKeyAction(con.FkUpdAction); action != "" && action != "NO ACTION" {
		fmt.Fprintf(&b, " ON UPDATE %s", action)
	}
	return b.String()
}

func foreignKeyAction(code string) string {
	switch code {
	case "a":
		return "NO ACTION"
	case "r":
		return "RESTRICT"
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	default:
		return ""
	}
}

func constraintName(con *pg_query.Constraint, tableName, detail, suffix string) string {
	if con.Conname != "" {
		return con.Conname
	}
	if detail != "" {
		return tableName + "_" + detail + "_" + suffix
	}
	return tableName + "_" + suffix
}

func parseCreateIndex(snap *catalog.Snapshot, stmt *pg_query.IndexStmt, text string) {
	if stmt.Relation == nil || stmt.Idxname == "" {
		return
	}
	idx := catalog.Index{
		Schema:     relationSchema(stmt.Relation),
		Name:       stmt.Idxname,
		Table:      stmt.Relation.Relname,
		Definition: text,
	}
	snap.Indexes[idx.StableID()] = idx
}

// Sequence option defaults mirror Postgres's for a bigint sequence.
func parseCreateSequence(snap *catalog.Snapshot, stmt *pg_query.CreateSeqStmt) {
	if stmt.Sequence == nil {
		return
	}
	seq := catalog.Sequence{
		Schema:    relationSchema(stmt.Sequence),
		Name:      stmt.Sequence.Relname,
		DataType:  "bigint",
		Start:     1,
		Min:       1,
		Max:       9223372036854775807,
		Increment: 1,
		Cache:     1,
	}
	for _, opt := range stmt.Options {
		de, ok := opt.Node.(*pg_query.Node_DefElem)
		if !ok {
			continue
		}
		switch de.DefElem.Defname {
		case "as":
			if tn, ok := de.DefElem.Arg.Node.(*pg_query.Node_TypeName); ok {
				seq.DataType = formatTypeName(tn.TypeName)
			}
		case "start":
			seq.Start = intDefElem(de.DefElem, seq.Start)
		case "minvalue":
			seq.Min = intDefElem(de.DefElem, seq.Min)
		case "maxvalue":
			seq.Max = intDefElem(de.DefElem, seq.Max)
		case "increment":
			seq.Increment = intDefElem(de.DefElem, seq.Increment)
		case "cache":
			seq.Cache = intDefElem(de.DefElem, seq.Cache)
		case "cycle":
			seq.Cycle = boolDefElem(de.DefElem)
		}
	}
	snap.Sequences[seq.StableID()] = seq
}

func intDefElem(de *pg_query.DefElem, fallback int64) int64 {
	if de.Arg == nil {
		return fallback
	}
	if iv, ok := de.Arg.Node.(*pg_query.Node_Integer); ok {
		return int64(iv.Integer.Ival)
	}
	if fv, ok := de.Arg.Node.(*pg_query.Node_Float); ok {
		var out int64
		if _, err := fmt.Sscanf(fv.Float.Fval, "%d", &out); err == nil {
			return out
		}
	}
	return fallback
}

func boolDefElem(de *pg_query.DefElem) bool {
	if de.Arg == nil {
		return true
	}
	if bv, ok := de.Arg.Node.(*pg_query.Node_Boolean); ok {
		return bv.Boolean.Boolval
	}
	if iv, ok := de.Arg.Node.(*pg_query.Node_Integer); ok {
		return iv.Integer.Ival != 0
	}
	return true
}

func parseCreateView(snap *catalog.Snapshot, stmt *pg_query.ViewStmt) {
	if stmt.View == nil {
		return
	}
	v := catalog.View{
		Schema:     relationSchema(stmt.View),
		Name:       stmt.View.Relname,
		Definition: deparseNode(stmt.Query),
	}
	snap.Views[v.StableID()] = v
}

func parseCreateTableAs(snap *catalog.Snapshot, stmt *pg_query.CreateTableAsStmt) {
	if stmt.Objtype != pg_query.ObjectType_OBJECT_MATVIEW || stmt.Into == nil || stmt.Into.Rel == nil {
		return
	}
	mv := catalog.MaterializedView{
		Schema:     relationSchema(stmt.Into.Rel),
		Name:       stmt.Into.Rel.Relname,
		Definition: deparseNode(stmt.Query),
	}
	snap.MaterializedViews[mv.StableID()] = mv
}

func parseCreateEnum(snap *catalog.Snapshot, stmt *pg_query.CreateEnumStmt) {
	schema, name := splitTypeNameNodes(stmt.TypeName)
	t := catalog.Type{
		Schema: schema,
		Name:   name,
		Kind:   catalog.TypeKindEnum,
		Labels: stringListOf(stmt.Vals),
	}
	snap.Types[t.StableID()] = t
}

func parseCompositeType(snap *catalog.Snapshot, stmt *pg_query.CompositeTypeStmt) {
	if stmt.Typevar == nil {
		return
	}
	t := catalog.Type{
		Schema: relationSchema(stmt.Typevar),
		Name:   stmt.Typevar.Relname,
		Kind:   catalog.TypeKindComposite,
	}
	position := 0
	for _, elt := range stmt.Coldeflist {
		if cd, ok := elt.Node.(*pg_query.Node_ColumnDef); ok {
			position++
			t.Columns = append(t.Columns, parseColumnDef(t.Schema, t.Name, cd.ColumnDef, position))
		}
	}
	snap.Types[t.StableID()] = t
}

func parseCreateDomain(snap *catalog.Snapshot, stmt *pg_query.CreateDomainStmt) {
	schema, name := splitTypeNameNodes(stmt.Domainname)
	t := catalog.Type{
		Schema:   schema,
		Name:     name,
		Kind:     catalog.TypeKindDomain,
		BaseType: formatTypeName(stmt.TypeName),
	}
	for _, c := range stmt.Constraints {
		con, ok := c.Node.(*pg_query.Node_Constraint)
		if !ok {
			continue
		}
		switch con.Constraint.Contype {
		case pg_query.ConstrType_CONSTR_NOTNULL:
			t.NotNull = true
		case pg_query.ConstrType_CONSTR_DEFAULT:
			if expr := deparseExpr(con.Constraint.RawExpr); expr != "" {
				t.Default = &expr
			}
		case pg_query.ConstrType_CONSTR_CHECK:
			t.Constraints = append(t.Constraints, catalog.DomainConstraint{
				Name:  con.Constraint.Conname,
				Check: deparseExpr(con.Constraint.RawExpr),
			})
		}
	}
	snap.Types[t.StableID()] = t
}

func parseCreateFunction(snap *catalog.Snapshot, stmt *pg_query.CreateFunctionStmt, text string) {
	schema, name := splitTypeNameNodes(stmt.Funcname)

	var argTypes []string
	for _, p := range stmt.Parameters {
		fp, ok := p.Node.(*pg_query.Node_FunctionParameter)
		if !ok {
			continue
		}
		// OUT and TABLE parameters are not part of the identity signature.
		switch fp.FunctionParameter.Mode {
		case pg_query.FunctionParameterMode_FUNC_PARAM_OUT, pg_query.FunctionParameterMode_FUNC_PARAM_TABLE:
			continue
		}
		argTypes = append(argTypes, formatTypeName(fp.FunctionParameter.ArgType))
	}
	signature := "(" + strings.Join(argTypes, ", ") + ")"

	language := ""
	for _, opt := range stmt.Options {
		if de, ok := opt.Node.(*pg_query.Node_DefElem); ok && de.DefElem.Defname == "language" {
			if s, ok := de.DefElem.Arg.Node.(*pg_query.Node_String_); ok {
				language = s.String_.Sval
			}
		}
	}

	if stmt.IsProcedure {
		p := catalog.Procedure{
			Schema:            schema,
			Name:              name,
			IdentityArguments: signature,
			ArgumentTypes:     argTypes,
			Language:          language,
			Definition:        text,
		}
		snap.Procedures[p.StableID()] = p
		return
	}

	f := catalog.Function{
		Schema:            schema,
		Name:              name,
		IdentityArguments: signature,
		ArgumentTypes:     argTypes,
		ReturnType:        formatTypeName(stmt.ReturnType),
		Language:          language,
		Volatility:        catalog.VolatilityVolatile,
		Definition:        text,
	}
	snap.Functions[f.StableID()] = f
}

func parseCreateExtension(snap *catalog.Snapshot, stmt *pg_query.CreateExtensionStmt) {
	ext := catalog.Extension{Name: stmt.Extname}
	for _, opt := range stmt.Options {
		if de, ok := opt.Node.(*pg_query.Node_DefElem); ok && de.DefElem.Defname == "schema" {
			if s, ok := de.DefElem.Arg.Node.(*pg_query.Node_String_); ok {
				ext.Schema = s.String_.Sval
			}
		}
	}
	snap.Extensions[ext.StableID()] = ext
}

func parseCreateTrigger(snap *catalog.Snapshot, stmt *pg_query.CreateTrigStmt) {
	if stmt.Relation == nil {
		return
	}
	trg := catalog.Trigger{
		Schema:   relationSchema(stmt.Relation),
		Name:     stmt.Trigname,
		Table:    stmt.Relation.Relname,
		Function: qualifiedNameOf(stmt.Funcname),
	}
	if stmt.Row {
		trg.Level = "ROW"
	} else {
		trg.Level = "STATEMENT"
	}
	// timing bitmask: 2 = BEFORE, 64 = INSTEAD OF, otherwise AFTER
	switch {
	case stmt.Timing&64 != 0:
		trg.Timing = "INSTEAD OF"
	case stmt.Timing&2 != 0:
		trg.Timing = "BEFORE"
	default:
		trg.Timing = "AFTER"
	}
	// events bitmask: 4 = INSERT, 8 = DELETE, 16 = UPDATE, 32 = TRUNCATE
	if stmt.Events&4 != 0 {
		trg.Events = append(trg.Events, "INSERT")
	}
	if stmt.Events&8 != 0 {
		trg.Events = append(trg.Events, "DELETE")
	}
	if stmt.Events&16 != 0 {
		trg.Events = append(trg.Events, "UPDATE")
	}
	if stmt.Events&32 != 0 {
		trg.Events = append(trg.Events, "TRUNCATE")
	}
	if stmt.WhenClause != nil {
		trg.Condition = deparseExpr(stmt.WhenClause)
	}
	for _, arg := range stmt.Args {
		if s, ok := arg.Node.(*pg_query.Node_String_); ok {
			trg.Arguments = append(trg.Arguments, s.String_.Sval)
		}
	}
	snap.Triggers[trg.StableID()] = trg
}

func parseCreatePolicy(snap *catalog.Snapshot, stmt *pg_query.CreatePolicyStmt) {
	if stmt.Table == nil {
		return
	}
	pol := catalog.Policy{
		Schema:     relationSchema(stmt.Table),
		Name:       stmt.PolicyName,
		Table:      stmt.Table.Relname,
		Permissive: stmt.Permissive,
		Command:    strings.ToUpper(stmt.CmdName),
	}
	for _, role := range stmt.Roles {
		if rs, ok := role.Node.(*pg_query.Node_RoleSpec); ok {
			name := rs.RoleSpec.Rolename
			if rs.RoleSpec.Roletype == pg_query.RoleSpecType_ROLESPEC_PUBLIC {
				name = "PUBLIC"
			}
			pol.Roles = append(pol.Roles, name)
		}
	}
	if stmt.Qual != nil {
		pol.Using = deparseExpr(stmt.Qual)
	}
	if stmt.WithCheck != nil {
		pol.WithCheck = deparseExpr(stmt.WithCheck)
	}
	snap.Policies[pol.StableID()] = pol
}

// parseAlterTable handles the subset of ALTER TABLE that appears in
// declarative schema files: ADD CONSTRAINT, ENABLE ROW LEVEL SECURITY,
// and REPLICA IDENTITY.
func parseAlterTable(snap *catalog.Snapshot, stmt *pg_query.AlterTableStmt) {
	if stmt.Relation == nil {
		return
	}
	schema := relationSchema(stmt.Relation)
	tableName := stmt.Relation.Relname
	tableID := catalog.Table{Schema: schema, Name: tableName}.StableID()

	for _, cmd := range stmt.Cmds {
		at, ok := cmd.Node.(*pg_query.Node_AlterTableCmd)
		if !ok {
			continue
		}
		switch at.AlterTableCmd.Subtype {
		case pg_query.AlterTableType_AT_AddConstraint:
			if con, ok := at.AlterTableCmd.Def.Node.(*pg_query.Node_Constraint); ok {
				addTableConstraint(snap, schema, tableName, con.Constraint)
			}
		case pg_query.AlterTableType_AT_EnableRowSecurity:
			if t, ok := snap.Tables[tableID]; ok {
				t.RLSEnabled = true
				snap.Tables[tableID] = t
			}
		case pg_query.AlterTableType_AT_ReplicaIdentity:
			if t, ok := snap.Tables[tableID]; ok {
				if ri, ok := at.AlterTableCmd.Def.Node.(*pg_query.Node_ReplicaIdentityStmt); ok {
					switch ri.ReplicaIdentityStmt.IdentityType {
					case "f":
						t.ReplicaIdentity = catalog.ReplicaIdentityFull
					case "n":
						t.ReplicaIdentity = catalog.ReplicaIdentityNothing
					case "i":
						t.ReplicaIdentity = catalog.ReplicaIdentityIndex
					default:
						t.ReplicaIdentity = catalog.ReplicaIdentityDefault
					}
					snap.Tables[tableID] = t
				}
			}
		}
	}
}

func parseComment(snap *catalog.Snapshot, stmt *pg_query.CommentStmt) {
	comment := stmt.Comment
	switch stmt.Objtype {
	case pg_query.ObjectType_OBJECT_TABLE:
		schema, name := splitTypeNameNodes(objectNameList(stmt.Object))
		id := catalog.Table{Schema: schema, Name: name}.StableID()
		if t, ok := snap.Tables[id]; ok {
			t.Comment = &comment
			snap.Tables[id] = t
		}
	case pg_query.ObjectType_OBJECT_SCHEMA:
		if s, ok := stmt.Object.Node.(*pg_query.Node_String_); ok {
			id := catalog.Schema{Name: s.String_.Sval}.StableID()
			if sc, ok := snap.Schemas[id]; ok {
				sc.Comment = &comment
				snap.Schemas[id] = sc
			}
		}
	case pg_query.ObjectType_OBJECT_COLUMN:
		parts := stringListOf(objectNameList(stmt.Object))
		var schema, table, column string
		switch len(parts) {
		case 3:
			schema, table, column = parts[0], parts[1], parts[2]
		case 2:
			schema, table, column = defaultSchema, parts[0], parts[1]
		default:
			return
		}
		id := catalog.Table{Schema: schema, Name: table}.StableID()
		if t, ok := snap.Tables[id]; ok {
			for i := range t.Columns {
				if t.Columns[i].Name == column {
					t.Columns[i].Comment = &comment
				}
			}
			snap.Tables[id] = t
		}
	case pg_query.ObjectType_OBJECT_VIEW:
		schema, name := splitTypeNameNodes(objectNameList(stmt.Object))
		id := catalog.View{Schema: schema, Name: name}.StableID()
		if v, ok := snap.Views[id]; ok {
			v.Comment = &comment
			snap.Views[id] = v
		}
	case pg_query.ObjectType_OBJECT_INDEX:
		schema, name := splitTypeNameNodes(objectNameList(stmt.Object))
		id := catalog.Index{Schema: schema, Name: name}.StableID()
		if idx, ok := snap.Indexes[id]; ok {
			idx.Comment = &comment
			snap.Indexes[id] = idx
		}
	}
}

// parseGrant folds GRANT ... ON TABLE into the named tables' privilege sets.
func parseGrant(snap *catalog.Snapshot, stmt *pg_query.GrantStmt) {
	if !stmt.IsGrant || stmt.Objtype != pg_query.ObjectType_OBJECT_TABLE {
		return
	}
	var privileges []string
	if len(stmt.Privileges) == 0 {
		privileges = []string{"ALL"}
	}
	for _, p := range stmt.Privileges {
		if ap, ok := p.Node.(*pg_query.Node_AccessPriv); ok {
			privileges = append(privileges, strings.ToUpper(ap.AccessPriv.PrivName))
		}
	}
	var grantees []string
	for _, g := range stmt.Grantees {
		if rs, ok := g.Node.(*pg_query.Node_RoleSpec); ok {
			name := rs.RoleSpec.Rolename
			if rs.RoleSpec.Roletype == pg_query.RoleSpecType_ROLESPEC_PUBLIC {
				name = "PUBLIC"
			}
			grantees = append(grantees, name)
		}
	}
	for _, obj := range stmt.Objects {
		rv, ok := obj.Node.(*pg_query.Node_RangeVar)
		if !ok {
			continue
		}
		id := catalog.Table{Schema: relationSchema(rv.RangeVar), Name: rv.RangeVar.Relname}.StableID()
		t, ok := snap.Tables[id]
		if !ok {
			continue
		}
		for _, grantee := range grantees {
			for _, priv := range privileges {
				t.Privileges = append(t.Privileges, catalog.Privilege{
					Grantee:   grantee,
					Privilege: priv,
					Grantable: stmt.GrantOption,
				})
			}
		}
		snap.Tables[id] = t
	}
}

// ---- AST helpers ----

func objectNameList(node *pg_query.Node) []*pg_query.Node {
	if node == nil {
		return nil
	}
	if l, ok := node.Node.(*pg_query.Node_List); ok {
		return l.List.Items
	}
	return []*pg_query.Node{node}
}

func stringListOf(nodes []*pg_query.Node) []string {
	var out []string
	for _, n := range nodes {
		if s, ok := n.Node.(*pg_query.Node_String_); ok {
			out = append(out, s.String_.Sval)
		}
	}
	return out
}

func qualifiedNameOf(nodes []*pg_query.Node) string {
	return strings.Join(stringListOf(nodes), ".")
}

func splitTypeNameNodes(nodes []*pg_query.Node) (schema, name string) {
	parts := stringListOf(nodes)
	switch len(parts) {
	case 0:
		return defaultSchema, ""
	case 1:
		return defaultSchema, parts[0]
	default:
		return parts[len(parts)-2], parts[len(parts)-1]
	}
}

func partitionStrategy(s pg_query.PartitionStrategy) string {
	switch s {
	case pg_query.PartitionStrategy_PARTITION_STRATEGY_RANGE:
		return "range"
	case pg_query.PartitionStrategy_PARTITION_STRATEGY_LIST:
		return "list"
	case pg_query.PartitionStrategy_PARTITION_STRATEGY_HASH:
		return "hash"
	default:
		return ""
	}
}

func partitionKey(spec *pg_query.PartitionSpec) string {
	var parts []string
	for _, elem := range spec.PartParams {
		if pe, ok := elem.Node.(*pg_query.Node_PartitionElem); ok {
			if pe.PartitionElem.Name != "" {
				parts = append(parts, pe.PartitionElem.Name)
			} else if pe.PartitionElem.Expr != nil {
				parts = append(parts, deparseExpr(pe.PartitionElem.Expr))
			}
		}
	}
	return strings.Join(parts, ", ")
}

// formatTypeName converts a TypeName AST to its SQL string.
func formatTypeName(typeName *pg_query.TypeName) string {
	if typeName == nil || len(typeName.Names) == 0 {
		return ""
	}

	var parts []string
	for _, name := range typeName.Names {
		if nameNode, ok := name.Node.(*pg_query.Node_String_); ok {
			// pg_catalog qualification is implied for built-ins.
			if nameNode.String_.Sval == "pg_catalog" {
				continue
			}
			parts = append(parts, nameNode.String_.Sval)
		}
	}
	typeStr := strings.Join(parts, ".")

	// Add type modifiers (e.g., varchar(255))
	if len(typeName.Typmods) > 0 {
		var mods []string
		for _, mod := range typeName.Typmods {
			if constNode, ok := mod.Node.(*pg_query.Node_AConst); ok {
				if ival := constNode.AConst.GetIval(); ival != nil {
					mods = append(mods, fmt.Sprintf("%d", ival.Ival))
				}
			}
		}
		if len(mods) > 0 {
			typeStr = fmt.Sprintf("%s(%s)", typeStr, strings.Join(mods, ","))
		}
	}

	if len(typeName.ArrayBounds) > 0 {
		typeStr += "[]"
	}

	return typeStr
}

// deparseExpr renders one expression node back to SQL by wrapping it in a
// synthetic SELECT and deparsing.
func deparseExpr(node *pg_query.Node) string {
	if node == nil {
		return ""
	}
	res := &pg_query.ParseResult{
		Stmts: []*pg_query.RawStmt{{
			Stmt: &pg_query.Node{Node: &pg_query.Node_SelectStmt{
				SelectStmt: &pg_query.SelectStmt{
					TargetList: []*pg_query.Node{{Node: &pg_query.Node_ResTarget{
						ResTarget: &pg_query.ResTarget{Val: node},
					}}},
				},
			}},
		}},
	}
	out, err := pg_query.Deparse(res)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(out, "SELECT ")
}

// deparseNode renders one statement node back to SQL.
func deparseNode(node *pg_query.Node) string {
	if node == nil {
		return ""
	}
	res := &pg_query.ParseResult{
		Stmts: []*pg_query.RawStmt{{Stmt: node}},
	}
	out, err := pg_query.Deparse(res)
	if err != nil {
		return ""
	}
	return out
}
