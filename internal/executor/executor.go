// Package executor applies ordered migrations to a database, one atomic
// batch per migration.
package executor

import (
	"context"
	"log/slog"

	"github.com/surmigrate/surmigrate/internal/apperr"
	"github.com/surmigrate/surmigrate/internal/dialect"
	"github.com/surmigrate/surmigrate/internal/migration"
	"github.com/surmigrate/surmigrate/internal/protocol"
)

// Executor submits one migration at a time.
type Executor struct {
	client  protocol.Client
	dialect dialect.Dialect
	logger  *slog.Logger
}

// New creates an executor. A nil logger uses slog.Default().
func New(client protocol.Client, d dialect.Dialect, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{client: client, dialect: d, logger: logger}
}

// Unit builds the batch for a migration: the body wrapped in a transaction,
// plus the ledger insert for one-off migrations.
func (e *Executor) Unit(f migration.File, body string) protocol.Batch {
	stmts := []protocol.Statement{
		e.dialect.Begin(),
		{Kind: protocol.KindBody, Text: body},
	}
	if f.Kind == migration.OneOff {
		stmts = append(stmts, e.dialect.InsertApplied(f.ID))
	}
	stmts = append(stmts, e.dialect.Commit())
	return protocol.NewBatch(stmts...)
}

// Execute reads the migration, submits its unit and checks every statement
// result. Any failure is a MIGRATION_EXECUTION error naming the file.
func (e *Executor) Execute(ctx context.Context, f migration.File) error {
	body, err := f.Contents()
	if err != nil {
		return apperr.Migration(f.Name, "", err)
	}

	unit := e.Unit(f, body)
	e.logger.Debug("submitting migration", "file", f.Name, "statements", unit.Kinds())
	results, err := e.client.Execute(ctx, unit)
	if err != nil {
		return apperr.Migration(f.Name, "", err)
	}
	if !protocol.AllOK(results) {
		return apperr.Migration(f.Name, protocol.Encode(results), nil)
	}

	switch f.Kind {
	case migration.OneOff:
		e.logger.Info("executed one-off migration", "file", f.Name, "id", f.ID, "kind", f.Kind.String())
	default:
		e.logger.Info("executed idempotent migration", "file", f.Name, "kind", f.Kind.String())
	}
	return nil
}
