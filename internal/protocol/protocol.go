// Package protocol is the contract between the migration engine and a
// database endpoint: a structured statement batch goes out, one result per
// executed statement comes back.
package protocol

import (
	"context"
	"fmt"
	"strings"
)

// StatementKind tells a client what role a statement plays in a batch.
// Clients that speak raw text ignore it; clients backed by database/sql use
// it to map transaction control onto *sql.Tx.
type StatementKind int

const (
	KindBody StatementKind = iota
	KindBegin
	KindCommit
	KindQuery
	KindDefine
	KindLedgerInsert
)

func (k StatementKind) String() string {
	switch k {
	case KindBody:
		return "body"
	case KindBegin:
		return "begin"
	case KindCommit:
		return "commit"
	case KindQuery:
		return "query"
	case KindDefine:
		return "define"
	case KindLedgerInsert:
		return "ledger-insert"
	default:
		return fmt.Sprintf("StatementKind(%d)", int(k))
	}
}

// Param is a bound statement parameter. Name is used by clients with named
// variables, position in Params by clients with positional placeholders.
type Param struct {
	Name  string
	Value string
}

// Statement is one element of a batch.
type Statement struct {
	Kind   StatementKind
	Text   string
	Params []Param
}

// Batch is an ordered list of statements submitted together.
type Batch struct {
	Statements []Statement
}

// NewBatch builds a batch from statements.
func NewBatch(stmts ...Statement) Batch {
	return Batch{Statements: stmts}
}

// Text renders the batch as semicolon-terminated statements, one per line.
// Body statements are emitted verbatim apart from trailing separators; empty
// ones are left out.
func (b Batch) Text() string {
	var sb strings.Builder
	for _, stmt := range b.Statements {
		text := strings.TrimRight(strings.TrimSpace(stmt.Text), ";")
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
		sb.WriteString(";")
	}
	return sb.String()
}

// Params collects the parameters of every statement in submission order.
func (b Batch) Params() []Param {
	var params []Param
	for _, stmt := range b.Statements {
		params = append(params, stmt.Params...)
	}
	return params
}

// Kinds lists the statement kinds of the batch, for tests and logging.
func (b Batch) Kinds() []StatementKind {
	kinds := make([]StatementKind, 0, len(b.Statements))
	for _, stmt := range b.Statements {
		kinds = append(kinds, stmt.Kind)
	}
	return kinds
}

// Client sends a batch to the database and returns one result per executed
// statement, in submission order. Transport failures, non-success status
// codes and malformed responses are returned as errors.
type Client interface {
	Execute(ctx context.Context, batch Batch) ([]StatementResult, error)
}

// Pinger is implemented by clients that can check connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
