package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kendall-kelly/customer-analytics-api/logger"
)

// Record sources
const (
	DataSourceDatabase = "database"
	DataSourceCSV      = "csv"
)

// Model stores
const (
	ModelStoreLocal = "local"
	ModelStoreS3    = "s3"
	ModelStoreRedis = "redis"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	LogLevel           string
	DataSource         string
	DataDir            string
	ModelStore         string
	ModelsDir          string
	RedisURL           string
	Auth0Domain        string
	Auth0Audience      string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	DefaultTenantID    uint
	CORSAllowedOrigins []string
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// Deployed environments set variables directly
			logger.L().Info("no .env file found, using system environment variables")
		}
	} else {
		logger.L().Info("loaded configuration", "file", envFile)
	}

	tenantID, err := strconv.ParseUint(getEnv("DEFAULT_TENANT_ID", "1"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_TENANT_ID must be a positive integer: %w", err)
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DataSource:         strings.ToLower(getEnv("DATA_SOURCE", DataSourceDatabase)),
		DataDir:            getEnv("DATA_DIR", "."),
		ModelStore:         strings.ToLower(getEnv("MODEL_STORE", ModelStoreLocal)),
		ModelsDir:          getEnv("MODELS_DIR", "models"),
		RedisURL:           getEnv("REDIS_URL", ""),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DefaultTenantID:    uint(tenantID),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate checks that the settings required by the chosen source and model store are present
func (c *Config) Validate() error {
	switch c.DataSource {
	case DataSourceDatabase:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=%s", DataSourceDatabase)
		}
	case DataSourceCSV:
	default:
		return fmt.Errorf("unknown DATA_SOURCE %q (want %s or %s)", c.DataSource, DataSourceDatabase, DataSourceCSV)
	}

	switch c.ModelStore {
	case ModelStoreLocal:
	case ModelStoreS3:
		if c.AWSS3Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required when MODEL_STORE=%s", ModelStoreS3)
		}
	case ModelStoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when MODEL_STORE=%s", ModelStoreRedis)
		}
	default:
		return fmt.Errorf("unknown MODEL_STORE %q (want %s, %s or %s)", c.ModelStore, ModelStoreLocal, ModelStoreS3, ModelStoreRedis)
	}

	if c.DefaultTenantID == 0 {
		return fmt.Errorf("DEFAULT_TENANT_ID must be a positive integer")
	}
	return nil
}

// AuthEnabled reports whether JWT validation is configured
func (c *Config) AuthEnabled() bool {
	return c.Auth0Domain != "" && c.Auth0Audience != ""
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetConfig returns the configuration set by Load or SetConfig
func GetConfig() *Config {
	return appConfig
}

// SetConfig sets the configuration instance (primarily for testing)
func SetConfig(c *Config) {
	appConfig = c
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
