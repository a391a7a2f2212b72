package analyzer

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// StatementClass is the spec.md §4.6 step 2 classification of one
// statement's DDL/DML shape.
type StatementClass string

const (
	ClassCreateTable             StatementClass = "CREATE_TABLE"
	ClassCreateFunction          StatementClass = "CREATE_FUNCTION"
	ClassCreateView              StatementClass = "CREATE_VIEW"
	ClassCreateIndex             StatementClass = "CREATE_INDEX"
	ClassCreateType               StatementClass = "CREATE_TYPE"
	ClassCreateSchema            StatementClass = "CREATE_SCHEMA"
	ClassCreateExtension         StatementClass = "CREATE_EXTENSION"
	ClassCreateTrigger           StatementClass = "CREATE_TRIGGER"
	ClassCreatePolicy            StatementClass = "CREATE_POLICY"
	ClassCreatePublication       StatementClass = "CREATE_PUBLICATION"
	ClassCreateSubscription      StatementClass = "CREATE_SUBSCRIPTION"
	ClassCreateRole              StatementClass = "CREATE_ROLE"
	ClassCreateEventTrigger      StatementClass = "CREATE_EVENT_TRIGGER"
	ClassAlterTable              StatementClass = "ALTER_TABLE"
	ClassAlterSequence           StatementClass = "ALTER_SEQUENCE"
	ClassAlterOwner              StatementClass = "ALTER_OWNER"
	ClassAlterDefaultPrivileges  StatementClass = "ALTER_DEFAULT_PRIVILEGES"
	ClassGrant                   StatementClass = "GRANT"
	ClassRevoke                  StatementClass = "REVOKE"
	ClassComment                 StatementClass = "COMMENT"
	ClassDo                      StatementClass = "DO"
	ClassSelect                  StatementClass = "SELECT"
	ClassUpdate                  StatementClass = "UPDATE"
	ClassVariableSet             StatementClass = "VARIABLE_SET"
	ClassUnknown                 StatementClass = "UNKNOWN"
)

// classify parses a single statement's text and maps its parse-tree node
// to a StatementClass. A parse failure returns ClassUnknown together with
// the parser's error; Analyze turns that error into a PARSE_ERROR
// diagnostic, so one bad statement never stops the rest of the batch from
// being analyzed.
func classify(sqlText string) (StatementClass, *pg_query.ParseResult, error) {
	tree, err := pg_query.Parse(sqlText)
	if err != nil {
		return ClassUnknown, nil, err
	}
	if len(tree.Stmts) == 0 {
		return ClassUnknown, tree, nil
	}
	stmt := tree.Stmts[0].Stmt
	if stmt == nil {
		return ClassUnknown, tree, nil
	}

	switch n := stmt.Node.(type) {
	case *pg_query.Node_CreateStmt:
		return ClassCreateTable, tree, nil
	case *pg_query.Node_CreateFunctionStmt:
		return ClassCreateFunction, tree, nil
	case *pg_query.Node_ViewStmt:
		return ClassCreateView, tree, nil
	case *pg_query.Node_IndexStmt:
		return ClassCreateIndex, tree, nil
	case *pg_query.Node_CompositeTypeStmt, *pg_query.Node_CreateEnumStmt,
		*pg_query.Node_CreateDomainStmt, *pg_query.Node_CreateRangeStmt:
		return ClassCreateType, tree, nil
	case *pg_query.Node_CreateSchemaStmt:
		return ClassCreateSchema, tree, nil
	case *pg_query.Node_CreateExtensionStmt:
		return ClassCreateExtension, tree, nil
	case *pg_query.Node_CreateTrigStmt:
		return ClassCreateTrigger, tree, nil
	case *pg_query.Node_CreatePolicyStmt:
		return ClassCreatePolicy, tree, nil
	case *pg_query.Node_CreatePublicationStmt:
		return ClassCreatePublication, tree, nil
	case *pg_query.Node_CreateSubscriptionStmt:
		return ClassCreateSubscription, tree, nil
	case *pg_query.Node_CreateRoleStmt:
		return ClassCreateRole, tree, nil
	case *pg_query.Node_CreateEventTrigStmt:
		return ClassCreateEventTrigger, tree, nil
	case *pg_query.Node_AlterTableStmt:
		return ClassAlterTable, tree, nil
	case *pg_query.Node_AlterSeqStmt:
		return ClassAlterSequence, tree, nil
	case *pg_query.Node_AlterOwnerStmt:
		return ClassAlterOwner, tree, nil
	case *pg_query.Node_AlterDefaultPrivilegesStmt:
		return ClassAlterDefaultPrivileges, tree, nil
	case *pg_query.Node_GrantStmt:
		if n.GrantStmt.GetIsGrant() {
			return ClassGrant, tree, nil
		}
		return ClassRevoke, tree, nil
	case *pg_query.Node_CommentStmt:
		return ClassComment, tree, nil
	case *pg_query.Node_DoStmt:
		return ClassDo, tree, nil
	case *pg_query.Node_SelectStmt:
		return ClassSelect, tree, nil
	case *pg_query.Node_UpdateStmt:
		return ClassUpdate, tree, nil
	case *pg_query.Node_VariableSetStmt:
		return ClassVariableSet, tree, nil
	default:
		return ClassUnknown, tree, nil
	}
}
