package sqldb

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// DriverName returns the database/sql driver registered for a backend.
func DriverName(backend string) (string, error) {
	switch backend {
	case "postgres":
		return "postgres", nil
	case "sqlite":
		return "sqlite", nil
	case "libsql":
		return "libsql", nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", backend)
	}
}

// DSN converts a configured url into the form the backend's driver expects.
func DSN(backend, url string) string {
	if backend == "sqlite" {
		return ExtractSQLiteFilePath(url)
	}
	return url
}

// SplitterFor returns how bodies are broken up for a backend. PostgreSQL
// bodies are split with the server's own parser so each statement reports
// its own result; other backends execute the body whole.
func SplitterFor(backend string) Splitter {
	if backend == "postgres" {
		return SplitPostgres
	}
	return Whole
}

// SplitPostgres splits a body into statements using the PostgreSQL parser.
func SplitPostgres(body string) ([]string, error) {
	stmts, err := pg_query.SplitWithParser(body, true)
	if err != nil {
		return nil, fmt.Errorf("failed to parse migration: %w", err)
	}
	return stmts, nil
}

// ExtractSQLiteFilePath extracts the file path from a sqlite:// url. file:
// URIs and plain paths are passed through, since the driver accepts them.
func ExtractSQLiteFilePath(connStr string) string {
	if strings.HasPrefix(connStr, "sqlite://") {
		path := strings.TrimPrefix(connStr, "sqlite://")
		if idx := strings.Index(path, "?"); idx >= 0 {
			path = path[:idx]
		}
		return path
	}
	return connStr
}
