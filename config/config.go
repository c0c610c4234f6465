package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/guttosm/b3vap/internal/domain/models"
	"github.com/spf13/viper"
)

// Config holds the full application configuration, resolved once at startup.
//
// It is composed of smaller structs that represent different concerns of the system:
// VAP defaults, the bar provider, the HTTP server and the Postgres connection.
// The value is passed explicitly to every component that needs it.
//
// Example ENV equivalent:
//
//	SYMBOL=WIN$N
//	PERIOD=M1
//	LIMIT=566
//	SORT=volume
//	TICK_SIZE=5
//	DIGITOS=2
//	PROVIDER=csv
//	DATA_DIR=./data
type Config struct {
	VAP      VAPConfig      // Report defaults
	Provider ProviderConfig // Where bars come from
	Server   ServerConfig   // HTTP server configuration
	Postgres PostgresConfig // PostgreSQL connection settings
}

// VAPConfig holds the defaults used when a request does not override them.
type VAPConfig struct {
	Symbol   string
	Period   string
	Limit    int
	Sort     string
	TickSize float64
	Digits   int
}

// ProviderConfig selects the bar source.
//
// Fields:
//   - Kind: "csv", "parquet" or "postgres".
//   - Dir: directory holding exported bar files (csv/parquet).
type ProviderConfig struct {
	Kind string
	Dir  string
}

// Supported provider kinds.
const (
	ProviderCSV      = "csv"
	ProviderParquet  = "parquet"
	ProviderPostgres = "postgres"
)

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host, Port, User, Password, DBName, SSLMode: connection settings.
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// DefaultStorePath is the shared configuration store read when MTCLI_CONFIG is unset.
// Any format viper understands works; the type is taken from the extension.
const DefaultStorePath = "mtcli.toml"

// defaults are the hardcoded values, keyed by their lower-case config name.
// The environment variable for each key is its upper-case form.
var defaults = map[string]any{
	"symbol":            "WIN$N",
	"period":            "M1",
	"limit":             566,
	"sort":              "volume",
	"tick_size":         5.0,
	"digitos":           2,
	"provider":          ProviderCSV,
	"data_dir":          "./data",
	"server_port":       "8080",
	"postgres_host":     "localhost",
	"postgres_port":     5432,
	"postgres_user":     "postgres",
	"postgres_password": "postgres",
	"postgres_db":       "b3vap",
	"postgres_sslmode":  "disable",
}

// LoadConfig resolves the configuration.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this package.
//  2. The shared store (MTCLI_CONFIG, default mtcli.toml), if present: keys of
//     its [DEFAULT] table, or top-level keys for flat formats such as .env.
//  3. Environment variables.
//
// Returns an error wrapping models.ErrInvalidConfiguration when a value is
// missing or out of range, or when the store exists but cannot be parsed.
func LoadConfig() (Config, error) {
	v := viper.New()
	for key, def := range defaults {
		v.SetDefault(key, def)
	}

	if err := mergeStore(v, storePath()); err != nil {
		return Config{}, err
	}

	// Read environment variables automatically (symbol -> SYMBOL, ...)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{
		VAP: VAPConfig{
			Symbol:   v.GetString("symbol"),
			Period:   strings.ToUpper(v.GetString("period")),
			Limit:    v.GetInt("limit"),
			Sort:     strings.ToLower(v.GetString("sort")),
			TickSize: v.GetFloat64("tick_size"),
			Digits:   v.GetInt("digitos"),
		},
		Provider: ProviderConfig{
			Kind: strings.ToLower(v.GetString("provider")),
			Dir:  v.GetString("data_dir"),
		},
		Server: ServerConfig{
			Port: v.GetString("server_port"),
		},
		Postgres: PostgresConfig{
			Host:     v.GetString("postgres_host"),
			Port:     v.GetInt("postgres_port"),
			User:     v.GetString("postgres_user"),
			Password: v.GetString("postgres_password"),
			DBName:   v.GetString("postgres_db"),
			SSLMode:  v.GetString("postgres_sslmode"),
		},
	}

	cfg.Postgres.URL = cfg.Postgres.DSN()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DSN builds the PostgreSQL connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

func storePath() string {
	if p := os.Getenv("MTCLI_CONFIG"); p != "" {
		return p
	}
	return DefaultStorePath
}

// mergeStore lays the shared store over the hardcoded defaults.
// A missing file is not an error.
func mergeStore(v *viper.Viper, path string) error {
	store := viper.New()
	store.SetConfigFile(path)
	if err := store.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: read config store %s: %v", models.ErrInvalidConfiguration, path, err)
	}

	for key := range defaults {
		switch {
		case store.IsSet("default." + key):
			v.SetDefault(key, store.Get("default."+key))
		case store.IsSet(key):
			v.SetDefault(key, store.Get(key))
		}
	}
	return nil
}

// Validate ensures every value the core depends on is present and in range.
//
// Behavior:
//   - Checks each critical field.
//   - Collects every offending key.
//   - Returns a single error wrapping models.ErrInvalidConfiguration.
func (c Config) Validate() error {
	var invalid []string

	if strings.TrimSpace(c.VAP.Symbol) == "" {
		invalid = append(invalid, "SYMBOL")
	}
	if _, err := models.ParseTimeframe(c.VAP.Period); err != nil {
		invalid = append(invalid, "PERIOD")
	}
	if c.VAP.Limit < 1 {
		invalid = append(invalid, "LIMIT")
	}
	if _, err := models.ParseSortMode(c.VAP.Sort); err != nil {
		invalid = append(invalid, "SORT")
	}
	if !(c.VAP.TickSize > 0) {
		invalid = append(invalid, "TICK_SIZE")
	}
	if c.VAP.Digits < 0 {
		invalid = append(invalid, "DIGITOS")
	}
	switch c.Provider.Kind {
	case ProviderCSV, ProviderParquet:
		if c.Provider.Dir == "" {
			invalid = append(invalid, "DATA_DIR")
		}
	case ProviderPostgres:
		if c.Postgres.Host == "" {
			invalid = append(invalid, "POSTGRES_HOST")
		}
		if c.Postgres.Port == 0 {
			invalid = append(invalid, "POSTGRES_PORT")
		}
		if c.Postgres.User == "" {
			invalid = append(invalid, "POSTGRES_USER")
		}
		if c.Postgres.DBName == "" {
			invalid = append(invalid, "POSTGRES_DB")
		}
	default:
		invalid = append(invalid, "PROVIDER")
	}
	if c.Server.Port == "" {
		invalid = append(invalid, "SERVER_PORT")
	}

	if len(invalid) > 0 {
		return fmt.Errorf("%w: missing or invalid settings: %v", models.ErrInvalidConfiguration, invalid)
	}
	return nil
}
