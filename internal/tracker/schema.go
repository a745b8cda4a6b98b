package tracker

// Names of the remote objects the runner depends on.
const (
	LedgerTable     = "schema_migrations"
	ExecFunction    = "exec_migration_sql"
	ExecFunctionArg = "sql_query"
)

// SetupSQL creates the ledger table and the SECURITY DEFINER function used to
// run migration SQL. It has to be run once by an operator with owner rights.
const SetupSQL = `-- Create schema_migrations table for tracking
CREATE TABLE IF NOT EXISTS schema_migrations (
  id SERIAL PRIMARY KEY,
  migration_name TEXT UNIQUE NOT NULL,
  executed_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
  checksum TEXT,
  execution_time_ms INTEGER
);

CREATE INDEX IF NOT EXISTS idx_schema_migrations_name
  ON schema_migrations(migration_name);

-- Create helper function to execute raw SQL
CREATE OR REPLACE FUNCTION exec_migration_sql(sql_query TEXT)
RETURNS void
LANGUAGE plpgsql
SECURITY DEFINER
AS $$
BEGIN
  EXECUTE sql_query;
END;
$$;
`
