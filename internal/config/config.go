package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values shared by the server and the importer.
type Config struct {
	DBPath        string
	ServerPort    int
	LogLevel      string
	LogFormat     string
	SentryDSN     string
	Environment   string
	ShutdownGrace time.Duration
	CSVEncoding   string
	ImportBaseDir string
	LLMEndpoint   string
	LLMAPIKey     string
	LLMModels     []string
	RateLimit     RateLimitConfig
}

// RateLimitConfig controls the per-client token bucket applied to HTTP requests.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

const (
	defaultDBPath        = "./data/portfolio.db"
	defaultServerPort    = 8080
	defaultLogLevel      = "info"
	defaultLogFormat     = "json"
	defaultEnvironment   = "development"
	defaultShutdownGrace = 10 * time.Second
	defaultCSVEncoding   = "utf-8-sig"
	defaultImportBaseDir = "."
	defaultRateLimitRPS  = 5.0
	defaultRateBurst     = 20
	defaultRateLimitTTL  = 5 * time.Minute
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:        getEnv("DB_PATH", defaultDBPath),
		LogLevel:      getEnv("LOG_LEVEL", defaultLogLevel),
		LogFormat:     getEnv("LOG_FORMAT", defaultLogFormat),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		Environment:   getEnv("ENV", defaultEnvironment),
		ShutdownGrace: defaultShutdownGrace,
		CSVEncoding:   getEnv("CSV_ENCODING", defaultCSVEncoding),
		ImportBaseDir: getEnv("IMPORT_BASE_DIR", defaultImportBaseDir),
		LLMEndpoint:   os.Getenv("LLM_ENDPOINT"),
		LLMAPIKey:     os.Getenv("LLM_API_KEY"),
	}

	if modelsJSON := os.Getenv("LLM_MODELS"); modelsJSON != "" {
		models, err := parseModels(modelsJSON)
		if err != nil {
			return nil, eris.Wrap(err, "parsing LLM_MODELS")
		}
		cfg.LLMModels = models
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	rateLimit, err := loadRateLimit()
	if err != nil {
		return nil, err
	}
	cfg.RateLimit = rateLimit

	return cfg, nil
}

func loadRateLimit() (RateLimitConfig, error) {
	settings := RateLimitConfig{
		RequestsPerSecond: defaultRateLimitRPS,
		Burst:             defaultRateBurst,
		ClientTTL:         defaultRateLimitTTL,
	}

	if raw := os.Getenv("RATE_LIMIT_RPS"); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps <= 0 {
			return settings, eris.Errorf("invalid RATE_LIMIT_RPS value: %s", raw)
		}
		settings.RequestsPerSecond = rps
	}

	if raw := os.Getenv("RATE_LIMIT_BURST"); raw != "" {
		burst, err := strconv.Atoi(raw)
		if err != nil || burst <= 0 {
			return settings, eris.Errorf("invalid RATE_LIMIT_BURST value: %s", raw)
		}
		settings.Burst = burst
	}

	if raw := os.Getenv("RATE_LIMIT_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return settings, eris.Errorf("invalid RATE_LIMIT_TTL value: %s", raw)
		}
		settings.ClientTTL = ttl
	}

	return settings, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseModels(raw string) ([]string, error) {
	// Accept either a JSON array of strings or an object with a `models` field.
	var arrayInput []string
	if err := json.Unmarshal([]byte(raw), &arrayInput); err == nil {
		return arrayInput, nil
	}

	var objectInput struct {
		Models []string `json:"models"`
	}
	if err := json.Unmarshal([]byte(raw), &objectInput); err != nil {
		return nil, eris.Wrap(err, "decoding JSON")
	}

	if len(objectInput.Models) == 0 {
		return nil, eris.New("models list is empty")
	}

	return objectInput.Models, nil
}
