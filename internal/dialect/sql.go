package dialect

import (
	"fmt"
	"strings"

	"github.com/surmigrate/surmigrate/internal/protocol"
)

// Postgres renders statements for PostgreSQL. The namespace maps to a schema;
// the database is fixed by the connection URL.
type Postgres struct {
	Schema string
}

func (Postgres) Name() string { return BackendPostgres }

func (Postgres) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (Postgres) Begin() protocol.Statement {
	return protocol.Statement{Kind: protocol.KindBegin, Text: "BEGIN"}
}

func (Postgres) Commit() protocol.Statement {
	return protocol.Statement{Kind: protocol.KindCommit, Text: "COMMIT"}
}

func (p Postgres) table() string {
	if p.Schema == "" {
		return LedgerTable
	}
	return QuoteSQLIdent(p.Schema) + "." + LedgerTable
}

func (p Postgres) SelectApplied() protocol.Statement {
	return protocol.Statement{
		Kind: protocol.KindQuery,
		Text: "SELECT " + LedgerField + " FROM " + p.table(),
	}
}

func (p Postgres) Provision() []protocol.Statement {
	var stmts []protocol.Statement
	if p.Schema != "" {
		stmts = append(stmts, protocol.Statement{
			Kind: protocol.KindDefine,
			Text: "CREATE SCHEMA IF NOT EXISTS " + QuoteSQLIdent(p.Schema),
		})
	}
	return append(stmts, protocol.Statement{
		Kind: protocol.KindDefine,
		Text: "CREATE TABLE IF NOT EXISTS " + p.table() + " (" + LedgerField + " TEXT NOT NULL)",
	})
}

func (p Postgres) InsertApplied(id string) protocol.Statement {
	return protocol.Statement{
		Kind:   protocol.KindLedgerInsert,
		Text:   "INSERT INTO " + p.table() + " (" + LedgerField + ") VALUES (" + p.Placeholder(1) + ")",
		Params: []protocol.Param{{Name: ledgerParam, Value: id}},
	}
}

// SQLite renders statements for SQLite and libSQL, which have no namespaces.
type SQLite struct{}

func (SQLite) Name() string { return BackendSQLite }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) Begin() protocol.Statement {
	return protocol.Statement{Kind: protocol.KindBegin, Text: "BEGIN"}
}

func (SQLite) Commit() protocol.Statement {
	return protocol.Statement{Kind: protocol.KindCommit, Text: "COMMIT"}
}

func (SQLite) SelectApplied() protocol.Statement {
	return protocol.Statement{
		Kind: protocol.KindQuery,
		Text: "SELECT " + LedgerField + " FROM " + LedgerTable,
	}
}

func (SQLite) Provision() []protocol.Statement {
	return []protocol.Statement{{
		Kind: protocol.KindDefine,
		Text: "CREATE TABLE IF NOT EXISTS " + LedgerTable + " (" + LedgerField + " TEXT NOT NULL)",
	}}
}

func (s SQLite) InsertApplied(id string) protocol.Statement {
	return protocol.Statement{
		Kind:   protocol.KindLedgerInsert,
		Text:   "INSERT INTO " + LedgerTable + " (" + LedgerField + ") VALUES (" + s.Placeholder(1) + ")",
		Params: []protocol.Param{{Name: ledgerParam, Value: id}},
	}
}

// QuoteSQLIdent double-quotes an identifier, doubling embedded quotes.
func QuoteSQLIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
