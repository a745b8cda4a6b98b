package parser //nolint:revive // see parser.go

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// transactionRestriction explains why stmt cannot run inside a PL/pgSQL
// EXECUTE, or returns "" if it can.
func transactionRestriction(stmt *pg_query.RawStmt) string {
	if stmt == nil || stmt.Stmt == nil {
		return ""
	}

	switch node := stmt.Stmt.Node.(type) {
	case *pg_query.Node_IndexStmt:
		if node.IndexStmt != nil && node.IndexStmt.Concurrent {
			return "CREATE INDEX CONCURRENTLY cannot run inside a transaction block"
		}
	case *pg_query.Node_DropStmt:
		if node.DropStmt != nil && node.DropStmt.Concurrent {
			return "DROP INDEX CONCURRENTLY cannot run inside a transaction block"
		}
	case *pg_query.Node_VacuumStmt:
		return "VACUUM cannot run inside a transaction block"
	case *pg_query.Node_CreatedbStmt:
		return "CREATE DATABASE cannot run inside a transaction block"
	case *pg_query.Node_DropdbStmt:
		return "DROP DATABASE cannot run inside a transaction block"
	case *pg_query.Node_AlterSystemStmt:
		return "ALTER SYSTEM cannot run inside a transaction block"
	case *pg_query.Node_CreateTableSpaceStmt:
		return "CREATE TABLESPACE cannot run inside a transaction block"
	case *pg_query.Node_TransactionStmt:
		return "transaction control statements are not supported in PL/pgSQL EXECUTE"
	}

	return ""
}
