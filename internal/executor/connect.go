package executor

import (
	"context"
	"fmt"

	"github.com/surmigrate/surmigrate/internal/config"
	"github.com/surmigrate/surmigrate/internal/dialect"
	"github.com/surmigrate/surmigrate/internal/protocol"
	"github.com/surmigrate/surmigrate/internal/protocol/sqldb"
	"github.com/surmigrate/surmigrate/internal/protocol/surreal"
)

// Connection is a protocol client for a target paired with the dialect its
// engine-owned statements are rendered in.
type Connection struct {
	Client  protocol.Client
	Dialect dialect.Dialect
	close   func() error
}

// Connect creates the client for the target's backend. SQL backends are
// pinged while opening; SurrealDB is contacted on first use.
func Connect(target config.Target) (*Connection, error) {
	d, err := dialect.New(target.Backend, target.Namespace, target.Database)
	if err != nil {
		return nil, err
	}

	switch target.Backend {
	case dialect.BackendSurrealDB:
		client, err := surreal.New(surreal.Config{
			URL:       target.URL,
			User:      target.User,
			Password:  target.Password,
			Namespace: target.Namespace,
			Database:  target.Database,
		})
		if err != nil {
			return nil, err
		}
		return &Connection{Client: client, Dialect: d, close: func() error { return nil }}, nil
	case dialect.BackendPostgres, dialect.BackendSQLite, dialect.BackendLibSQL:
		client, err := sqldb.Open(target.Backend, target.ConnectionURL())
		if err != nil {
			return nil, err
		}
		return &Connection{Client: client, Dialect: d, close: client.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", target.Backend)
	}
}

// Ping checks connectivity when the client supports it.
func (c *Connection) Ping(ctx context.Context) error {
	if p, ok := c.Client.(protocol.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the client's resources.
func (c *Connection) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}
