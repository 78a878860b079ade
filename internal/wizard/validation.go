package wizard

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/surmigrate/surmigrate/internal/config"
	"github.com/surmigrate/surmigrate/internal/executor"
)

// ValidateEnvironmentName checks if an environment name is valid
func ValidateEnvironmentName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name cannot be empty")
	}

	// Must be alphanumeric or underscore
	for _, ch := range name {
		isValid := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-'
		if !isValid {
			return fmt.Errorf("environment name must contain only letters, numbers, underscores, and hyphens")
		}
	}

	return nil
}

// ValidatePort checks if a port number is valid
func ValidatePort(port string) error {
	if port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	return nil
}

// ValidateNamespace checks a SurrealDB namespace or database name. Both are
// sent as headers and used in DEFINE statements, so ';' is refused.
func ValidateNamespace(kind, name string, required bool) error {
	if name == "" {
		if required {
			return fmt.Errorf("%s cannot be empty", kind)
		}
		return nil
	}
	if strings.Contains(name, ";") {
		return fmt.Errorf("%s must not contain ';'", kind)
	}
	return nil
}

// ValidateConnectionString checks if a connection string is well-formed
func ValidateConnectionString(connStr string, backend string) error {
	if connStr == "" {
		return fmt.Errorf("connection string cannot be empty")
	}

	switch backend {
	case "surrealdb":
		u, err := url.Parse(connStr)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("SurrealDB url must start with http:// or https://")
		}

	case "postgres":
		// Check for postgresql:// or postgres://
		if !strings.HasPrefix(connStr, "postgres://") &&
			!strings.HasPrefix(connStr, "postgresql://") {
			return fmt.Errorf("PostgreSQL connection string must start with postgres:// or postgresql://")
		}

	case "sqlite":
		// Check for sqlite:// or file path
		if !strings.HasPrefix(connStr, "sqlite://") &&
			!strings.HasPrefix(connStr, "./") &&
			!strings.HasPrefix(connStr, "/") &&
			!strings.Contains(connStr, ".db") {
			return fmt.Errorf("SQLite connection string must be sqlite:// or a file path")
		}

	case "libsql":
		// Check for libsql://
		if !strings.HasPrefix(connStr, "libsql://") {
			return fmt.Errorf("libSQL connection string must start with libsql://")
		}

	default:
		return fmt.Errorf("unsupported database type: %s", backend)
	}

	return nil
}

// Target converts the input into the connection context used by apply.
func (env EnvironmentInput) Target() config.Target {
	t := config.Target{
		Environment: env.Name,
		Backend:     env.Backend,
		User:        env.User,
		Password:    env.Password,
		AuthToken:   env.AuthToken,
		Namespace:   env.Namespace,
		Database:    env.Database,
	}
	switch env.Backend {
	case "postgres":
		t.URL = BuildPostgresConnectionString(env)
		t.Database = ""
	case "sqlite":
		t.URL = BuildSQLiteConnectionString(env)
	default:
		t.URL = env.URL
	}
	return t
}

// TestConnection attempts to connect to the database
func TestConnection(env EnvironmentInput) error {
	target := env.Target()
	if err := target.Validate(); err != nil {
		return err
	}

	conn, err := executor.Connect(target)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func postgresSSLMode(env EnvironmentInput) string {
	if env.SSLMode != "" {
		return env.SSLMode
	}
	// Auto-detect SSL mode based on host
	if env.Host == "localhost" || env.Host == "127.0.0.1" {
		return "disable"
	}
	return "require"
}

// BuildPostgresConnectionString constructs a PostgreSQL connection string
func BuildPostgresConnectionString(env EnvironmentInput) string {
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(env.User, env.Password),
		Host:     env.Host + ":" + env.Port,
		Path:     "/" + env.Database,
		RawQuery: "sslmode=" + postgresSSLMode(env),
	}
	return u.String()
}

// BuildSQLiteConnectionString constructs a SQLite file path
func BuildSQLiteConnectionString(env EnvironmentInput) string {
	filePath := env.FilePath
	if filePath == "" {
		filePath = "./data/surmigrate.db"
	} else if !strings.HasPrefix(filePath, "./") && !strings.HasPrefix(filePath, "/") {
		filePath = "./" + filePath
	}

	return filePath
}
