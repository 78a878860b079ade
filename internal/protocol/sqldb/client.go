// Package sqldb implements protocol.Client on top of database/sql, for
// PostgreSQL, SQLite and libSQL targets.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/surmigrate/surmigrate/internal/protocol"
)

const (
	notExecuted = "The query was not executed due to a failed transaction"
	rolledBack  = "The query was rolled back due to a failed transaction"
)

// Splitter breaks a migration body into individually executed statements.
type Splitter func(body string) ([]string, error)

// Whole executes the body as a single statement.
func Whole(body string) ([]string, error) {
	return []string{body}, nil
}

// Client runs statement batches over a *sql.DB. Begin and commit statements
// map onto a *sql.Tx; a failing statement inside it rolls the whole
// transaction back.
type Client struct {
	db    *sql.DB
	split Splitter
}

// New wraps an open database. A nil splitter executes bodies whole.
func New(db *sql.DB, split Splitter) *Client {
	if split == nil {
		split = Whole
	}
	return &Client{db: db, split: split}
}

// Open a connection to the database for backend, and run a ping to test it.
func Open(backend, url string) (*Client, error) {
	driverName, err := DriverName(backend)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, DSN(backend, url))
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(db, SplitterFor(backend)), nil
}

// Close closes the underlying database.
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Execute runs every statement of the batch in order and reports one result
// per executed statement. Errors are returned only when the connection itself
// fails; statement failures are reported as protocol.Err results.
func (c *Client) Execute(ctx context.Context, batch protocol.Batch) ([]protocol.StatementResult, error) {
	var (
		tx      *sql.Tx
		inTx    bool
		txStart int
		failed  bool
		results []protocol.StatementResult
	)
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range batch.Statements {
		if failed {
			results = append(results, protocol.Err{Detail: notExecuted})
			continue
		}

		start := time.Now()
		switch stmt.Kind {
		case protocol.KindBegin:
			if inTx {
				results = append(results, protocol.Err{Detail: "a transaction is already open", Time: elapsed(start)})
				break
			}
			var err error
			tx, err = c.db.BeginTx(ctx, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to begin transaction: %w", err)
			}
			inTx = true
			txStart = len(results)
			results = append(results, protocol.OK{Time: elapsed(start)})

		case protocol.KindCommit:
			if !inTx {
				results = append(results, protocol.Err{Detail: "no transaction is open", Time: elapsed(start)})
				break
			}
			err := tx.Commit()
			tx = nil
			if err != nil {
				results = append(results, protocol.Err{Detail: err.Error(), Time: elapsed(start)})
				break
			}
			inTx = false
			results = append(results, protocol.OK{Time: elapsed(start)})

		case protocol.KindBody:
			results = append(results, c.execBody(ctx, c.conn(tx), stmt.Text)...)

		case protocol.KindQuery:
			results = append(results, query(ctx, c.conn(tx), stmt))

		default:
			results = append(results, exec(ctx, c.conn(tx), stmt.Text, args(stmt)...))
		}

		if inTx && protocol.FirstErr(results[txStart:]) >= 0 {
			if tx != nil {
				_ = tx.Rollback()
				tx = nil
			}
			inTx = false
			failed = true
			for i := txStart; i < len(results); i++ {
				if _, ok := results[i].(protocol.OK); ok {
					results[i] = protocol.Err{Detail: rolledBack, Time: results[i].Elapsed()}
				}
			}
		}
	}

	return results, nil
}

func (c *Client) conn(tx *sql.Tx) execer {
	if tx != nil {
		return tx
	}
	return c.db
}

func (c *Client) execBody(ctx context.Context, conn execer, body string) []protocol.StatementResult {
	if strings.TrimSpace(body) == "" {
		return []protocol.StatementResult{protocol.OK{}}
	}

	start := time.Now()
	pieces, err := c.split(body)
	if err != nil {
		return []protocol.StatementResult{protocol.Err{Detail: err.Error(), Time: elapsed(start)}}
	}

	results := make([]protocol.StatementResult, 0, len(pieces))
	for _, piece := range pieces {
		r := exec(ctx, conn, piece)
		results = append(results, r)
		if _, ok := r.(protocol.Err); ok {
			break
		}
	}
	return results
}

func exec(ctx context.Context, conn execer, text string, args ...any) protocol.StatementResult {
	start := time.Now()
	res, err := conn.ExecContext(ctx, text, args...)
	if err != nil {
		return protocol.Err{Detail: err.Error(), Time: elapsed(start)}
	}

	var payload json.RawMessage
	if n, err := res.RowsAffected(); err == nil {
		payload, _ = json.Marshal(map[string]int64{"rows_affected": n})
	}
	return protocol.OK{Result: payload, Time: elapsed(start)}
}

// query returns the rows as a JSON array of column-keyed objects.
func query(ctx context.Context, conn execer, stmt protocol.Statement) protocol.StatementResult {
	start := time.Now()
	rows, err := conn.QueryContext(ctx, stmt.Text, args(stmt)...)
	if err != nil {
		return protocol.Err{Detail: err.Error(), Time: elapsed(start)}
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return protocol.Err{Detail: err.Error(), Time: elapsed(start)}
	}

	records := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return protocol.Err{Detail: err.Error(), Time: elapsed(start)}
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
				continue
			}
			record[col] = values[i]
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return protocol.Err{Detail: err.Error(), Time: elapsed(start)}
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return protocol.Err{Detail: err.Error(), Time: elapsed(start)}
	}
	return protocol.OK{Result: payload, Time: elapsed(start)}
}

func args(stmt protocol.Statement) []any {
	out := make([]any, 0, len(stmt.Params))
	for _, p := range stmt.Params {
		out = append(out, p.Value)
	}
	return out
}

func elapsed(start time.Time) string {
	return time.Since(start).String()
}
