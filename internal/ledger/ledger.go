// Package ledger tracks which one-off migrations have been applied to a
// target database. The ledger lives in the target database itself and is
// created on first use.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/surmigrate/surmigrate/internal/apperr"
	"github.com/surmigrate/surmigrate/internal/dialect"
	"github.com/surmigrate/surmigrate/internal/protocol"
)

// Applied is the set of one-off ids recorded in the ledger.
type Applied map[string]struct{}

// Has reports whether id has been applied.
func (a Applied) Has(id string) bool {
	_, ok := a[id]
	return ok
}

// IDs returns the applied ids in lexical order.
func (a Applied) IDs() []string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store reads and provisions the ledger through a protocol client.
type Store struct {
	client  protocol.Client
	dialect dialect.Dialect
	logger  *slog.Logger
}

// NewStore creates a ledger store. A nil logger uses slog.Default().
func NewStore(client protocol.Client, d dialect.Dialect, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, dialect: d, logger: logger}
}

// Applied returns the set of applied one-off ids. When the first read fails
// the ledger structures are provisioned once and the read is retried.
func (s *Store) Applied(ctx context.Context) (Applied, error) {
	applied, detail, err := s.read(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeLedgerRead, "failed to read migration ledger", err)
	}
	if applied != nil {
		s.logger.Debug("read migration ledger", "applied", applied.IDs())
		return applied, nil
	}

	s.logger.Debug("migration ledger missing, provisioning", "backend", s.dialect.Name(), "detail", detail)
	if err := s.provision(ctx); err != nil {
		return nil, err
	}

	applied, detail, err = s.read(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeLedgerRead, "failed to read migration ledger", err)
	}
	if applied == nil {
		e := apperr.New(apperr.CodeLedgerRead, "failed to read migration ledger after provisioning")
		e.Detail = detail
		return nil, e
	}
	s.logger.Debug("read migration ledger", "applied", applied.IDs())
	return applied, nil
}

// read issues the ledger query. A nil set with a nil error means the
// statement itself failed; detail then holds the encoded results.
func (s *Store) read(ctx context.Context) (Applied, string, error) {
	results, err := s.client.Execute(ctx, protocol.NewBatch(s.dialect.SelectApplied()))
	if err != nil {
		return nil, "", err
	}
	if len(results) != 1 {
		return nil, "", fmt.Errorf("expected 1 result for ledger query, got %d", len(results))
	}

	switch r := results[0].(type) {
	case protocol.OK:
		applied, err := decode(r.Result)
		if err != nil {
			return nil, "", err
		}
		return applied, "", nil
	case protocol.Err:
		return nil, protocol.Encode(results), nil
	default:
		return nil, "", fmt.Errorf("unexpected result type %T", r)
	}
}

func (s *Store) provision(ctx context.Context) error {
	results, err := s.client.Execute(ctx, protocol.NewBatch(s.dialect.Provision()...))
	if err != nil {
		return apperr.Wrap(apperr.CodeLedgerProvision, "failed to provision migration ledger", err)
	}
	if !protocol.AllOK(results) {
		e := apperr.New(apperr.CodeLedgerProvision, "failed to provision migration ledger")
		e.Detail = protocol.Encode(results)
		return e
	}
	s.logger.Info("provisioned migration ledger", "backend", s.dialect.Name(), "table", dialect.LedgerTable)
	return nil
}

type entry struct {
	ID json.RawMessage `json:"filename_prefix"`
}

// decode flattens the ledger rows into a set of ids.
func decode(raw json.RawMessage) (Applied, error) {
	applied := Applied{}
	if len(raw) == 0 || string(raw) == "null" {
		return applied, nil
	}

	var rows []entry
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("unable to parse ledger rows: %w", err)
	}
	for _, row := range rows {
		if len(row.ID) == 0 || string(row.ID) == "null" {
			continue
		}
		var id string
		if err := json.Unmarshal(row.ID, &id); err != nil {
			// Ids written by hand as numbers still identify a migration.
			id = string(row.ID)
		}
		applied[id] = struct{}{}
	}
	return applied, nil
}
