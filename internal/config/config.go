// Package config loads runtime configuration from the environment, after
// reading an optional .env file from the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"spareparts/internal/domain/inventory"
	"spareparts/internal/infrastructure/http/client"
	"spareparts/pkg/logger"
)

// Environment variables.
const (
	EnvAPIBaseURL  = "SPAREPARTS_API_BASE_URL"
	EnvHTTPTimeout = "SPAREPARTS_HTTP_TIMEOUT"
	EnvStateDB     = "SPAREPARTS_STATE_DB"
	EnvStockRule   = "SPAREPARTS_STOCK_RULE"
	EnvLogLevel    = "LOG_LEVEL"
	EnvAppEnv      = "APP_ENV"

	EnvMockAddr         = "MOCKAPI_ADDR"
	EnvMockJWTSecret    = "MOCKAPI_JWT_SECRET"
	EnvMockTokenTTL     = "MOCKAPI_TOKEN_TTL"
	EnvMockResultsStyle = "MOCKAPI_RESULTS_STYLE"
	EnvMockSeed         = "MOCKAPI_SEED"
)

// Client configures the command-line client.
type Client struct {
	API       client.Config
	StateDB   string
	StockRule string
	Log       logger.Config
}

// MockAPI configures the fake backend.
type MockAPI struct {
	Addr      string
	JWTSecret string
	TokenTTL  time.Duration
	Log       logger.Config

	// ResultsStyle serves paginated lists as bare {count, results}.
	ResultsStyle bool

	// Seed loads the demo data at startup.
	Seed bool
}

// LoadDotEnv reads .env into the process environment. Variables already set
// win; a missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// LoadClient returns the client configuration.
func LoadClient() (Client, error) {
	if err := LoadDotEnv(); err != nil {
		return Client{}, err
	}

	timeout, err := getEnvDuration(EnvHTTPTimeout, 30*time.Second)
	if err != nil {
		return Client{}, err
	}

	stateDB := getEnv(EnvStateDB, "")
	if stateDB == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Client{}, fmt.Errorf("resolve home dir for %s: %w", EnvStateDB, err)
		}
		stateDB = filepath.Join(home, ".spareparts", "state.db")
	}

	return Client{
		API: client.Config{
			BaseURL: getEnv(EnvAPIBaseURL, client.DefaultBaseURL),
			Timeout: timeout,
		},
		StateDB:   stateDB,
		StockRule: getEnv(EnvStockRule, inventory.DefaultStockRule),
		Log:       logConfig(),
	}, nil
}

// LoadMockAPI returns the fake backend configuration.
func LoadMockAPI() (MockAPI, error) {
	if err := LoadDotEnv(); err != nil {
		return MockAPI{}, err
	}

	ttl, err := getEnvDuration(EnvMockTokenTTL, time.Hour)
	if err != nil {
		return MockAPI{}, err
	}

	resultsStyle, err := getEnvBool(EnvMockResultsStyle, false)
	if err != nil {
		return MockAPI{}, err
	}
	seed, err := getEnvBool(EnvMockSeed, true)
	if err != nil {
		return MockAPI{}, err
	}

	return MockAPI{
		Addr:         getEnv(EnvMockAddr, ":8000"),
		JWTSecret:    getEnv(EnvMockJWTSecret, "spareparts-dev-secret"),
		TokenTTL:     ttl,
		ResultsStyle: resultsStyle,
		Seed:         seed,
		Log:          logConfig(),
	}, nil
}

func logConfig() logger.Config {
	return logger.Config{
		Level:       getEnv(EnvLogLevel, "info"),
		Development: getEnv(EnvAppEnv, "development") == "development",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	// Bare numbers are seconds.
	secs, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return time.Duration(secs) * time.Second, nil
}
