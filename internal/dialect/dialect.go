// Package dialect renders the statements the engine owns: transaction
// control and the ledger protocol. Migration bodies are never touched.
package dialect

import (
	"fmt"

	"github.com/surmigrate/surmigrate/internal/protocol"
)

const (
	// LedgerTable is the engine-owned record set of applied one-off ids.
	LedgerTable = "migration"
	// LedgerField holds the applied one-off id.
	LedgerField = "filename_prefix"
	// ledgerParam names the bound id on ledger insert.
	ledgerParam = "migration_id"
)

// Dialect renders engine-owned statements for one backend.
type Dialect interface {
	Name() string
	Begin() protocol.Statement
	Commit() protocol.Statement
	// SelectApplied reads every applied id from the ledger.
	SelectApplied() protocol.Statement
	// Provision creates the namespace, database-scoped container and ledger
	// definition when they are missing.
	Provision() []protocol.Statement
	// InsertApplied records id in the ledger. The id is always bound as a
	// parameter, never interpolated.
	InsertApplied(id string) protocol.Statement
}

// Backend names accepted by New.
const (
	BackendSurrealDB = "surrealdb"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendLibSQL    = "libsql"
)

// New returns the dialect for a backend name.
func New(backend, namespace, database string) (Dialect, error) {
	switch backend {
	case BackendSurrealDB:
		return SurrealQL{Namespace: namespace, Database: database}, nil
	case BackendPostgres:
		return Postgres{Schema: namespace}, nil
	case BackendSQLite, BackendLibSQL:
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}
