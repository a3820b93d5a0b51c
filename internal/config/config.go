package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
)

const (
	BackendDynamo   = "dynamo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config stores process-level configuration read from the environment.
// Per-table scrape behaviour lives in Settings.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	SettingsPath   string
	GameDataPath   string
	OutputDir      string

	Backend              string
	TableConnection      string
	TableAccountName     string
	TableAccessKey       string
	DynamoRegion         string
	DynamoEndpoint       string
	PostgresPageSize     int
	PostgresAppName      string
	MemoryDumpEnabled    bool
	ClashToken           string
	ClashEmail           string
	ClashPassword        string
	ClashBaseURL         string
	ClashDeveloperURL    string
	ClashKeyName         string
	ClashTimeout         time.Duration
	ClashMaxRetries      int
	ClashCircuitEnabled  bool
	ClashCircuitFailures int
	ClashCircuitOpen     time.Duration
	ClashCircuitHalfOpen int

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	LogLevel  logging.Level
	LogFormat logging.Format
}

// LoadDotEnv loads the first readable .env file among paths. Missing files
// are not an error; variables already set win.
func LoadDotEnv(paths ...string) (string, bool) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	backend, err := parseBackend(getEnv("TABLE_BACKEND", BackendDynamo))
	if err != nil {
		return Config{}, err
	}

	postgresPageSize, err := getEnvAsInt("POSTGRES_PAGE_SIZE", 500)
	if err != nil {
		return Config{}, fmt.Errorf("parse POSTGRES_PAGE_SIZE: %w", err)
	}
	if postgresPageSize < 1 {
		return Config{}, fmt.Errorf("POSTGRES_PAGE_SIZE must be >= 1")
	}
	memoryDumpEnabled, err := strconv.ParseBool(getEnv("MEMORY_DUMP_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse MEMORY_DUMP_ENABLED: %w", err)
	}

	clashTimeout, err := time.ParseDuration(getEnv("CLASH_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CLASH_TIMEOUT: %w", err)
	}
	if clashTimeout <= 0 {
		return Config{}, fmt.Errorf("CLASH_TIMEOUT must be > 0")
	}
	clashMaxRetries, err := getEnvAsInt("CLASH_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse CLASH_MAX_RETRIES: %w", err)
	}
	if clashMaxRetries < 0 {
		return Config{}, fmt.Errorf("CLASH_MAX_RETRIES must be >= 0")
	}
	clashCircuitEnabled, err := strconv.ParseBool(getEnv("CLASH_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CLASH_CIRCUIT_ENABLED: %w", err)
	}
	clashCircuitFailures, err := getEnvAsInt("CLASH_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse CLASH_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if clashCircuitFailures < 1 {
		return Config{}, fmt.Errorf("CLASH_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	clashCircuitOpen, err := time.ParseDuration(getEnv("CLASH_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CLASH_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if clashCircuitOpen <= 0 {
		return Config{}, fmt.Errorf("CLASH_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	clashCircuitHalfOpen, err := getEnvAsInt("CLASH_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse CLASH_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if clashCircuitHalfOpen < 1 {
		return Config{}, fmt.Errorf("CLASH_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "clash-tables"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		SettingsPath:               strings.TrimSpace(getEnv("SETTINGS_PATH", "settings.yaml")),
		GameDataPath:               strings.TrimSpace(getEnv("GAME_DATA_PATH", "data/gamedata.json")),
		OutputDir:                  strings.TrimSpace(getEnv("OUTPUT_DIR", "./data")),
		Backend:                    backend,
		TableConnection:            strings.TrimSpace(getEnv("TABLE_CONNECTION_STRING", "")),
		TableAccountName:           strings.TrimSpace(getEnv("TABLE_ACCOUNT_NAME", "")),
		TableAccessKey:             strings.TrimSpace(getEnv("TABLE_ACCESS_KEY", "")),
		DynamoRegion:               strings.TrimSpace(getEnv("AWS_REGION", "us-east-1")),
		DynamoEndpoint:             strings.TrimSpace(getEnv("DYNAMO_ENDPOINT", "")),
		PostgresPageSize:           postgresPageSize,
		MemoryDumpEnabled:          memoryDumpEnabled,
		ClashToken:                 strings.TrimSpace(getEnv("CLASH_TOKEN", "")),
		ClashEmail:                 strings.TrimSpace(getEnv("CLASH_EMAIL", "")),
		ClashPassword:              getEnv("CLASH_PASSWORD", ""),
		ClashBaseURL:               strings.TrimSpace(getEnv("CLASH_BASE_URL", "https://api.clashofclans.com/v1")),
		ClashDeveloperURL:          strings.TrimSpace(getEnv("CLASH_DEVELOPER_URL", "https://developer.clashofclans.com")),
		ClashKeyName:               strings.TrimSpace(getEnv("CLASH_KEY_NAME", "clash-tables")),
		ClashTimeout:               clashTimeout,
		ClashMaxRetries:            clashMaxRetries,
		ClashCircuitEnabled:        clashCircuitEnabled,
		ClashCircuitFailures:       clashCircuitFailures,
		ClashCircuitOpen:           clashCircuitOpen,
		ClashCircuitHalfOpen:       clashCircuitHalfOpen,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		LogLevel:                   logging.ParseLevel(getEnv("APP_LOG_LEVEL", "warn")),
		LogFormat:                  logging.ParseFormat(getEnv("APP_LOG_FORMAT", string(logging.FormatJSON))),
	}
	cfg.PostgresAppName = strings.TrimSpace(getEnv("POSTGRES_APPLICATION_NAME", cfg.ServiceName))
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	return cfg, nil
}

// Validate checks the fields that flags may override after Load.
func (c Config) Validate() error {
	if _, err := parseBackend(c.Backend); err != nil {
		return err
	}
	if c.ClashToken == "" && (c.ClashEmail == "" || c.ClashPassword == "") {
		return fmt.Errorf("a clash api token or email and password are required")
	}
	if c.Backend != BackendMemory && c.TableConnection == "" && (c.TableAccountName == "" || c.TableAccessKey == "") {
		return fmt.Errorf("a table connection string or account name and access key are required for backend %s", c.Backend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseBackend(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case BackendDynamo, BackendPostgres, BackendMemory:
		return value, nil
	default:
		return "", fmt.Errorf("invalid table backend %q: valid values are %s, %s, %s", v, BackendDynamo, BackendPostgres, BackendMemory)
	}
}
