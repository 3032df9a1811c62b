package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DriverDatabricks = "databricks"
	DriverDuckDB     = "duckdb"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	LLM           LLMConfig
	Warehouse     WarehouseConfig
	Table         Table
	History       HistoryConfig
	Export        ExportConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LLMConfig selects one provider. Provider is kept as given so an unknown
// value can be reported by the generator factory.
type LLMConfig struct {
	Provider          string
	OpenAI            OpenAIConfig
	Gemini            GeminiConfig
	Timeout           time.Duration
	RequestsPerMinute int
}

type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type WarehouseConfig struct {
	Driver     string
	Host       string
	HTTPPath   string
	Token      string
	DuckDBPath string
}

// Complete reports whether every connection parameter for the configured driver is present.
func (w WarehouseConfig) Complete() bool {
	switch w.Driver {
	case DriverDuckDB:
		return w.DuckDBPath != ""
	default:
		return w.Host != "" && w.HTTPPath != "" && w.Token != ""
	}
}

type Table struct {
	Catalog string
	Schema  string
	Name    string
}

func (t Table) Valid() bool {
	return t.Catalog != "" && t.Schema != "" && t.Name != ""
}

// FullName renders catalog.schema.table without quoting.
func (t Table) FullName() string {
	return t.Catalog + "." + t.Schema + "." + t.Name
}

// HistoryConfig points at the postgres audit log. An empty DSN disables recording.
type HistoryConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

func (h HistoryConfig) Enabled() bool { return h.DSN != "" }

type ExportConfig struct {
	Enabled     bool
	Format      string
	ObjectStore ObjectStoreConfig
}

type ObjectStoreConfig struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("SQLASSIST_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid SQLASSIST_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	steps := []error{
		applyString(lookup, "SQLASSIST_SERVICE_NAME", &cfg.Service.Name),
		applyString(lookup, "SQLASSIST_HTTP_ADDR", &cfg.HTTP.Address),
		applyDuration(lookup, "SQLASSIST_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout),
		applyDuration(lookup, "SQLASSIST_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout),
		applyDuration(lookup, "SQLASSIST_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout),

		applyString(lookup, "LLM_PROVIDER", &cfg.LLM.Provider),
		applyString(lookup, "OPENAI_API_KEY", &cfg.LLM.OpenAI.APIKey),
		applyString(lookup, "OPENAI_MODEL", &cfg.LLM.OpenAI.Model),
		applyString(lookup, "OPENAI_BASE_URL", &cfg.LLM.OpenAI.BaseURL),
		applyFloat(lookup, "SQLASSIST_OPENAI_TEMPERATURE", &cfg.LLM.OpenAI.Temperature),
		applyInt(lookup, "SQLASSIST_OPENAI_MAX_TOKENS", &cfg.LLM.OpenAI.MaxTokens),
		applyString(lookup, "GEMINI_API_KEY", &cfg.LLM.Gemini.APIKey),
		applyString(lookup, "GEMINI_MODEL", &cfg.LLM.Gemini.Model),
		applyString(lookup, "GEMINI_BASE_URL", &cfg.LLM.Gemini.BaseURL),
		applyDuration(lookup, "SQLASSIST_LLM_TIMEOUT", &cfg.LLM.Timeout),
		applyInt(lookup, "SQLASSIST_LLM_REQUESTS_PER_MINUTE", &cfg.LLM.RequestsPerMinute),

		applyString(lookup, "SQLASSIST_WAREHOUSE_DRIVER", &cfg.Warehouse.Driver),
		applyString(lookup, "DATABRICKS_SERVER_HOSTNAME", &cfg.Warehouse.Host),
		applyString(lookup, "DATABRICKS_HTTP_PATH", &cfg.Warehouse.HTTPPath),
		applyString(lookup, "DATABRICKS_ACCESS_TOKEN", &cfg.Warehouse.Token),
		applyString(lookup, "SQLASSIST_DUCKDB_PATH", &cfg.Warehouse.DuckDBPath),
		applyString(lookup, "CATALOG_NAME", &cfg.Table.Catalog),
		applyString(lookup, "SCHEMA_NAME", &cfg.Table.Schema),
		applyString(lookup, "TABLE_NAME", &cfg.Table.Name),

		applyString(lookup, "SQLASSIST_HISTORY_DSN", &cfg.History.DSN),
		applyInt(lookup, "SQLASSIST_HISTORY_MAX_OPEN_CONNS", &cfg.History.MaxOpenConns),
		applyInt(lookup, "SQLASSIST_HISTORY_MAX_IDLE_CONNS", &cfg.History.MaxIdleConns),
		applyDuration(lookup, "SQLASSIST_HISTORY_CONN_MAX_IDLE_TIME", &cfg.History.ConnMaxIdleTime),
		applyDuration(lookup, "SQLASSIST_HISTORY_CONN_MAX_LIFETIME", &cfg.History.ConnMaxLifetime),

		applyBool(lookup, "SQLASSIST_EXPORT_ENABLED", &cfg.Export.Enabled),
		applyString(lookup, "SQLASSIST_EXPORT_FORMAT", &cfg.Export.Format),
		applyString(lookup, "SQLASSIST_OBJECTSTORE_ENDPOINT", &cfg.Export.ObjectStore.Endpoint),
		applyString(lookup, "SQLASSIST_OBJECTSTORE_REGION", &cfg.Export.ObjectStore.Region),
		applyString(lookup, "SQLASSIST_OBJECTSTORE_BUCKET", &cfg.Export.ObjectStore.Bucket),
		applyString(lookup, "SQLASSIST_OBJECTSTORE_ACCESS_KEY", &cfg.Export.ObjectStore.AccessKeyID),
		applyString(lookup, "SQLASSIST_OBJECTSTORE_SECRET_KEY", &cfg.Export.ObjectStore.SecretAccessKey),
		applyBool(lookup, "SQLASSIST_OBJECTSTORE_USE_SSL", &cfg.Export.ObjectStore.UseSSL),
		applyString(lookup, "SQLASSIST_OBJECTSTORE_PREFIX", &cfg.Export.ObjectStore.Prefix),
		applyBool(lookup, "SQLASSIST_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.Export.ObjectStore.AutoCreateBucket),

		applyBool(lookup, "SQLASSIST_LOG_JSON", &cfg.Observability.LogJSON),
		applyLogLevel(lookup, "SQLASSIST_LOG_LEVEL", &cfg.Observability.LogLevel),
		applyBool(lookup, "SQLASSIST_AUTH_REQUIRED", &cfg.Auth.Required),
		applyString(lookup, "SQLASSIST_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys),
	}
	for _, err := range steps {
		if err != nil {
			return Config{}, err
		}
	}

	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	cfg.Warehouse.Driver = strings.ToLower(cfg.Warehouse.Driver)
	cfg.Export.Format = strings.ToLower(cfg.Export.Format)

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	switch cfg.Warehouse.Driver {
	case DriverDatabricks, DriverDuckDB:
	default:
		return Config{}, fmt.Errorf("invalid SQLASSIST_WAREHOUSE_DRIVER: %q", cfg.Warehouse.Driver)
	}
	switch cfg.Export.Format {
	case "csv", "parquet":
	default:
		return Config{}, fmt.Errorf("invalid SQLASSIST_EXPORT_FORMAT: %q", cfg.Export.Format)
	}
	if cfg.LLM.RequestsPerMinute < 0 {
		return Config{}, fmt.Errorf("SQLASSIST_LLM_REQUESTS_PER_MINUTE must be >= 0")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "sqlassist"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			OpenAI: OpenAIConfig{
				Model:       "gpt-4",
				BaseURL:     "https://api.openai.com",
				Temperature: 0.1,
				MaxTokens:   500,
			},
			Gemini: GeminiConfig{
				Model:   "gemini-pro",
				BaseURL: "https://generativelanguage.googleapis.com",
			},
			Timeout: 60 * time.Second,
		},
		Warehouse: WarehouseConfig{
			Driver: DriverDatabricks,
		},
		History: HistoryConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Export: ExportConfig{
			Enabled: false,
			Format:  "csv",
			ObjectStore: ObjectStoreConfig{
				Endpoint:         "localhost:9000",
				Region:           "us-east-1",
				Bucket:           "sqlassist-exports",
				AccessKeyID:      "minio",
				SecretAccessKey:  "miniostorage",
				UseSSL:           false,
				AutoCreateBucket: true,
			},
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  false,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Observability.LogJSON = true
		cfg.Auth.Required = true
		cfg.Export.ObjectStore.UseSSL = true
		cfg.Export.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
