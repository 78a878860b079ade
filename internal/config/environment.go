package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/surmigrate/surmigrate/internal/apperr"
	"github.com/surmigrate/surmigrate/internal/dialect"
	"github.com/surmigrate/surmigrate/internal/source"
)

const (
	defaultEnvironmentName = "local"
	defaultMigrationsDir   = "migrations"
	defaultBackend         = dialect.BackendSurrealDB
	envPrefix              = "SURMIGRATE_"
)

// Overrides are values that replace what the config file and dotenv supply.
// They come from SURMIGRATE_* process variables and from command-line flags.
type Overrides struct {
	Environment      string `env:"ENVIRONMENT"`
	Backend          string `env:"BACKEND"`
	URL              string `env:"URL"`
	User             string `env:"USER"`
	Password         string `env:"PASSWORD"`
	Namespace        string `env:"NAMESPACE"`
	Database         string `env:"DATABASE"`
	MigrationsDir    string `env:"MIGRATIONS_DIR"`
	WorkingDirectory string `env:"WORKING_DIRECTORY"`
}

// ParseEnv loads overrides from SURMIGRATE_* environment variables.
func ParseEnv() (Overrides, error) {
	var o Overrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: envPrefix}); err != nil {
		return Overrides{}, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}

// Merge returns o with every non-empty field of other applied on top.
func (o Overrides) Merge(other Overrides) Overrides {
	pick := func(base, over string) string {
		if over != "" {
			return over
		}
		return base
	}
	return Overrides{
		Environment:      pick(o.Environment, other.Environment),
		Backend:          pick(o.Backend, other.Backend),
		URL:              pick(o.URL, other.URL),
		User:             pick(o.User, other.User),
		Password:         pick(o.Password, other.Password),
		Namespace:        pick(o.Namespace, other.Namespace),
		Database:         pick(o.Database, other.Database),
		MigrationsDir:    pick(o.MigrationsDir, other.MigrationsDir),
		WorkingDirectory: pick(o.WorkingDirectory, other.WorkingDirectory),
	}
}

// Target is the fully resolved connection context for a run. It is built
// once and passed by value to everything that talks to the database.
type Target struct {
	Environment   string
	Backend       string
	URL           string
	User          string
	Password      string
	AuthToken     string
	Namespace     string
	Database      string
	MigrationsDir string
	Extensions    []string
	DotenvPath    string
	FromConfig    bool
	FromDotenv    bool
}

// Resolve combines, from lowest to highest precedence, the environment's
// section of surmigrate.toml, its .env.<name> file and the overrides.
func Resolve(config *Config, overrides Overrides) (Target, error) {
	envName := strings.TrimSpace(overrides.Environment)
	if envName == "" {
		if config != nil && config.DefaultEnvironment != "" {
			envName = config.DefaultEnvironment
		} else {
			envName = defaultEnvironmentName
		}
	}

	var (
		envConfig EnvironmentConfig
		envExists bool
	)
	if config != nil && config.Environments != nil {
		if cfg, ok := config.Environments[envName]; ok {
			envConfig = cfg
			envExists = true
		}
	}

	target := Target{
		Environment: envName,
		Backend:     envConfig.Backend,
		URL:         envConfig.URL,
		Namespace:   envConfig.Namespace,
		Database:    envConfig.Database,
		FromConfig:  envExists,
	}

	baseDir := config.ConfigDir()
	if baseDir == "" {
		baseDir = overrides.WorkingDirectory
	}
	if baseDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			baseDir = cwd
		}
	}

	target.DotenvPath = filepath.Join(baseDir, ".env."+envName)
	if info, err := os.Stat(target.DotenvPath); err == nil && !info.IsDir() {
		values, err := godotenv.Read(target.DotenvPath)
		if err != nil {
			return Target{}, fmt.Errorf("failed to read %s: %w", target.DotenvPath, err)
		}
		target.FromDotenv = true

		if value := values["DATABASE_URL"]; value != "" {
			target.URL = value
		}
		if value := values["SURREAL_USER"]; value != "" {
			target.User = value
		}
		if value := values["SURREAL_PASS"]; value != "" {
			target.Password = value
		}
		if value := values["LIBSQL_AUTH_TOKEN"]; value != "" {
			target.AuthToken = value
		}
	} else if err != nil && !os.IsNotExist(err) {
		return Target{}, fmt.Errorf("failed to access %s: %w", target.DotenvPath, err)
	}

	if config != nil && len(config.Environments) > 0 && !envExists && !target.FromDotenv {
		return Target{}, apperr.New(apperr.CodeConfig,
			fmt.Sprintf("environment %q not defined in %s and %s not found", envName, FileName, target.DotenvPath))
	}

	if overrides.Backend != "" {
		target.Backend = overrides.Backend
	}
	if overrides.URL != "" {
		target.URL = overrides.URL
	}
	if overrides.User != "" {
		target.User = overrides.User
	}
	if overrides.Password != "" {
		target.Password = overrides.Password
	}
	if overrides.Namespace != "" {
		target.Namespace = overrides.Namespace
	}
	if overrides.Database != "" {
		target.Database = overrides.Database
	}
	if target.Backend == "" {
		target.Backend = defaultBackend
	}

	workingDir := overrides.WorkingDirectory
	if workingDir == "" {
		workingDir = baseDir
	}
	migrationsDir := overrides.MigrationsDir
	if migrationsDir == "" && config != nil {
		migrationsDir = config.MigrationsDir
	}
	if migrationsDir == "" {
		migrationsDir = defaultMigrationsDir
	}
	if !filepath.IsAbs(migrationsDir) {
		migrationsDir = filepath.Join(workingDir, migrationsDir)
	}
	target.MigrationsDir = migrationsDir

	target.Extensions = source.DefaultExtensions
	if config != nil && len(config.Extensions) > 0 {
		target.Extensions = config.Extensions
	}

	if err := target.Validate(); err != nil {
		return Target{}, err
	}
	return target, nil
}

// Validate checks the target can be connected to.
func (t Target) Validate() error {
	switch t.Backend {
	case dialect.BackendSurrealDB, dialect.BackendPostgres, dialect.BackendSQLite, dialect.BackendLibSQL:
	default:
		return apperr.New(apperr.CodeConfig, fmt.Sprintf("unsupported backend %q", t.Backend))
	}

	if strings.TrimSpace(t.URL) == "" {
		return apperr.New(apperr.CodeConfig, fmt.Sprintf("no database url for environment %q", t.Environment))
	}

	if t.Backend == dialect.BackendSurrealDB {
		if t.Namespace == "" {
			return apperr.New(apperr.CodeConfig, "namespace is required for surrealdb")
		}
		if t.Database == "" {
			return apperr.New(apperr.CodeConfig, "database is required for surrealdb")
		}
	}
	if strings.Contains(t.Namespace, ";") {
		return apperr.New(apperr.CodeConfig, "namespace must not contain ';'")
	}
	if strings.Contains(t.Database, ";") {
		return apperr.New(apperr.CodeConfig, "database must not contain ';'")
	}
	return nil
}

// ConnectionURL is the url handed to the driver. libSQL auth tokens from
// dotenv are appended as a query parameter.
func (t Target) ConnectionURL() string {
	if t.Backend != dialect.BackendLibSQL || t.AuthToken == "" || strings.Contains(t.URL, "authToken=") {
		return t.URL
	}
	sep := "?"
	if strings.Contains(t.URL, "?") {
		sep = "&"
	}
	return t.URL + sep + "authToken=" + t.AuthToken
}
