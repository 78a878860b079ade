package dialect

import (
	"strings"

	"github.com/surmigrate/surmigrate/internal/protocol"
)

// SurrealQL renders statements for SurrealDB.
type SurrealQL struct {
	Namespace string
	Database  string
}

func (SurrealQL) Name() string { return BackendSurrealDB }

func (SurrealQL) Begin() protocol.Statement {
	return protocol.Statement{Kind: protocol.KindBegin, Text: "BEGIN TRANSACTION"}
}

func (SurrealQL) Commit() protocol.Statement {
	return protocol.Statement{Kind: protocol.KindCommit, Text: "COMMIT TRANSACTION"}
}

func (SurrealQL) SelectApplied() protocol.Statement {
	return protocol.Statement{
		Kind: protocol.KindQuery,
		Text: "SELECT " + LedgerField + " FROM " + LedgerTable,
	}
}

func (s SurrealQL) Provision() []protocol.Statement {
	return []protocol.Statement{
		{Kind: protocol.KindDefine, Text: "DEFINE NAMESPACE " + QuoteSurrealIdent(s.Namespace)},
		{Kind: protocol.KindDefine, Text: "DEFINE DATABASE " + QuoteSurrealIdent(s.Database)},
		{Kind: protocol.KindDefine, Text: "DEFINE TABLE " + LedgerTable + " SCHEMAFULL PERMISSIONS NONE"},
		{Kind: protocol.KindDefine, Text: "DEFINE FIELD " + LedgerField + " ON TABLE " + LedgerTable + " TYPE string"},
	}
}

func (SurrealQL) InsertApplied(id string) protocol.Statement {
	return protocol.Statement{
		Kind:   protocol.KindLedgerInsert,
		Text:   "CREATE " + LedgerTable + " SET " + LedgerField + " = $" + ledgerParam,
		Params: []protocol.Param{{Name: ledgerParam, Value: id}},
	}
}

// QuoteSurrealIdent wraps an identifier in backticks, escaping backslashes
// and backticks inside it.
func QuoteSurrealIdent(name string) string {
	escaped := strings.NewReplacer(`\`, `\\`, "`", "\\`").Replace(name)
	return "`" + escaped + "`"
}
