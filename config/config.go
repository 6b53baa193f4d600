// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Environment is the deployment environment
type Environment int

const (
	EnvDevelopment Environment = iota
	EnvStaging
	EnvProduction
	EnvTest
)

// String returns the short name used in ENV
func (e Environment) String() string {
	switch e {
	case EnvStaging:
		return "staging"
	case EnvProduction:
		return "prod"
	case EnvTest:
		return "test"
	default:
		return "dev"
	}
}

// ParseEnvironment parses an ENV value. Long names are accepted too.
func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	default:
		return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", value)
	}
}

// Catalog backends
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	CatalogBackend string
	ProductsDB     string
	MedicareDB     string
	OrangeBookFile string
	PartDFile      string
	// RefreshSchedule is a gocron At spec such as "06:00;18:00". Empty disables refreshes.
	RefreshSchedule string

	StrengthBonus      float64
	IdentityRowCap     int
	EquivalentRowCap   int
	PrefixMinLen       int
	PrefixLen          int
	CandidateCostLimit int
	FallbackTermLimit  int
	LookupParallelism  int

	RateLimitRate     float64 // tokens per second per client
	RateLimitCapacity int64
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	env, err := ParseEnvironment(getEnvWithDefault("ENV", "dev"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}

	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               env,
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default

		CatalogBackend:  strings.ToLower(getEnvWithDefault("CATALOG_BACKEND", BackendSQLite)),
		ProductsDB:      getEnvWithDefault("PRODUCTS_DB", "data/products.db"),
		MedicareDB:      getEnvWithDefault("MEDICARE_DB", "data/medicare.db"),
		OrangeBookFile:  getEnvWithDefault("ORANGE_BOOK_FILE", "data/products.txt"),
		PartDFile:       getEnvWithDefault("PARTD_FILE", "data/partd.csv"),
		RefreshSchedule: os.Getenv("REFRESH_SCHEDULE"),

		StrengthBonus:      getFloatEnvWithDefault("STRENGTH_BONUS", 20),
		IdentityRowCap:     getIntEnvWithDefault("IDENTITY_ROW_CAP", 2000),
		EquivalentRowCap:   getIntEnvWithDefault("EQUIVALENT_ROW_CAP", 5000),
		PrefixMinLen:       getIntEnvWithDefault("PREFIX_MIN_LEN", 4),
		PrefixLen:          getIntEnvWithDefault("PREFIX_LEN", 8),
		CandidateCostLimit: getIntEnvWithDefault("CANDIDATE_COST_LIMIT", 5),
		FallbackTermLimit:  getIntEnvWithDefault("FALLBACK_TERM_LIMIT", 5),
		LookupParallelism:  getIntEnvWithDefault("LOOKUP_PARALLELISM", 4),

		RateLimitRate:     getFloatEnvWithDefault("RATE_LIMIT_RATE", 3),
		RateLimitCapacity: getInt64EnvWithDefault("RATE_LIMIT_CAPACITY", 1000),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// RefreshEnabled reports whether scheduled catalog refreshes are configured
func (c *Config) RefreshEnabled() bool {
	return strings.TrimSpace(c.RefreshSchedule) != ""
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	// Validate PORT
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	// Validate ADDRESS
	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	// Validate LOG_LEVEL
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	// Validate MAX_REQUEST_BODY
	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	// Validate MAX_HEADER_SIZE
	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	// Validate LOG_RETENTION_WEEKS
	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	// Validate MAX_LOG_FILE_SIZE
	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	// Validate CATALOG_BACKEND and the files it needs
	if err := validateBackend(cfg); err != nil {
		return fmt.Errorf("invalid CATALOG_BACKEND: %w", err)
	}

	// Validate the lookup tuning
	if err := validateTuning(cfg); err != nil {
		return err
	}

	// Validate RATE_LIMIT_*
	if cfg.RateLimitRate <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_RATE: must be positive, got: %v", cfg.RateLimitRate)
	}
	if cfg.RateLimitCapacity <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_CAPACITY: must be positive, got: %d", cfg.RateLimitCapacity)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Check for privileged ports
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// Private network ranges only (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16)
	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 { // 1 year maximum
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE must be positive, got: %d", size)
	}

	// Minimum 1MB, maximum 1GB
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateBackend checks the backend name and that the paths it reads are set
func validateBackend(cfg *Config) error {
	switch cfg.CatalogBackend {
	case BackendSQLite:
		if cfg.ProductsDB == "" || cfg.MedicareDB == "" {
			return fmt.Errorf("sqlite backend needs PRODUCTS_DB and MEDICARE_DB")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("must be one of: [%s %s], got: %s", BackendSQLite, BackendMemory, cfg.CatalogBackend)
	}

	if (cfg.CatalogBackend == BackendMemory || cfg.RefreshEnabled()) &&
		(strings.TrimSpace(cfg.OrangeBookFile) == "" || strings.TrimSpace(cfg.PartDFile) == "") {
		return fmt.Errorf("%s backend with refreshes needs ORANGE_BOOK_FILE and PARTD_FILE", cfg.CatalogBackend)
	}
	return nil
}

// validateTuning checks the resolver, equivalence and cost lookup knobs
func validateTuning(cfg *Config) error {
	if cfg.StrengthBonus < 0 {
		return fmt.Errorf("invalid STRENGTH_BONUS: must not be negative, got: %v", cfg.StrengthBonus)
	}

	positive := []struct {
		name  string
		value int
	}{
		{"IDENTITY_ROW_CAP", cfg.IdentityRowCap},
		{"EQUIVALENT_ROW_CAP", cfg.EquivalentRowCap},
		{"PREFIX_MIN_LEN", cfg.PrefixMinLen},
		{"PREFIX_LEN", cfg.PrefixLen},
		{"CANDIDATE_COST_LIMIT", cfg.CandidateCostLimit},
		{"FALLBACK_TERM_LIMIT", cfg.FallbackTermLimit},
		{"LOOKUP_PARALLELISM", cfg.LookupParallelism},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("invalid %s: must be positive, got: %d", p.name, p.value)
		}
	}

	if cfg.PrefixLen < cfg.PrefixMinLen {
		return fmt.Errorf("invalid PREFIX_LEN: must be at least PREFIX_MIN_LEN (%d), got: %d", cfg.PrefixMinLen, cfg.PrefixLen)
	}
	if cfg.LookupParallelism > 64 {
		return fmt.Errorf("invalid LOOKUP_PARALLELISM: max 64, got: %d", cfg.LookupParallelism)
	}
	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnvWithDefault gets an environment variable as float64 with a default value
func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"CATALOG_BACKEND",
		"PRODUCTS_DB",
		"MEDICARE_DB",
		"ORANGE_BOOK_FILE",
		"PARTD_FILE",
		"REFRESH_SCHEDULE",
		"STRENGTH_BONUS",
		"IDENTITY_ROW_CAP",
		"EQUIVALENT_ROW_CAP",
		"PREFIX_MIN_LEN",
		"PREFIX_LEN",
		"CANDIDATE_COST_LIMIT",
		"FALLBACK_TERM_LIMIT",
		"LOOKUP_PARALLELISM",
		"RATE_LIMIT_RATE",
		"RATE_LIMIT_CAPACITY",
	}
}
