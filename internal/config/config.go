package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreDynamoDB = "dynamodb"

	PacingFixed       = "fixed"
	PacingTokenBucket = "token_bucket"
)

// multipartOverhead is added to the document limit for the request body
// limit so the form envelope around a near-limit file still fits.
const multipartOverhead = 1 << 20

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Env  string
	Port string

	Store         string
	DatabaseURL   string
	RunMigrations bool

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	DynamoTable string
	AWSRegion   string
	AWSEndpoint string

	RedisURL   string
	AdminToken string

	ImportBaseDir    string
	ImportMaxBytes   int64
	RequestBodyLimit string

	Pacing             string
	UploadDelay        time.Duration
	UploadRatePerSec   float64
	UploadBurst        int
	UploadWriteTimeout time.Duration
	UploadLockTTL      time.Duration
	UploadRetention    time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	maxBody := getEnv("IMPORT_MAX_BYTES", "10M")
	maxBytes, err := parseByteSize(maxBody)
	if err != nil {
		return Config{}, fmt.Errorf("%w: IMPORT_MAX_BYTES: %v", ErrInvalidConfig, err)
	}

	rate, err := strconv.ParseFloat(getEnv("UPLOAD_RATE_PER_SECOND", "20"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("%w: UPLOAD_RATE_PER_SECOND: %v", ErrInvalidConfig, err)
	}

	cfg := Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),

		Store:         strings.ToLower(getEnv("ACCOUNT_STORE", StorePostgres)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RunMigrations: parseBoolEnv("RUN_MIGRATIONS", true),

		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "account_admin"),
		MongoCollection: getEnv("MONGO_COLLECTION", "accounts"),

		DynamoTable: getEnv("DDB_TABLE_ACCOUNTS", "Accounts"),
		AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint: os.Getenv("AWS_ENDPOINT"),

		RedisURL:   os.Getenv("REDIS_URL"),
		AdminToken: os.Getenv("ADMIN_TOKEN"),

		ImportBaseDir:    getEnv("IMPORT_BASE_DIR", "."),
		ImportMaxBytes:   maxBytes,
		RequestBodyLimit: requestBodyLimit(maxBytes),

		Pacing:             strings.ToLower(getEnv("UPLOAD_PACING", PacingFixed)),
		UploadDelay:        time.Duration(parseIntEnv("UPLOAD_DELAY_MS", 50)) * time.Millisecond,
		UploadRatePerSec:   rate,
		UploadBurst:        parseIntEnv("UPLOAD_BURST", 1),
		UploadWriteTimeout: time.Duration(parseIntEnv("UPLOAD_WRITE_TIMEOUT_MS", 5000)) * time.Millisecond,
		UploadLockTTL:      time.Duration(parseIntEnv("UPLOAD_LOCK_TTL_SECONDS", 1800)) * time.Second,
		UploadRetention:    time.Duration(parseIntEnv("UPLOAD_RETENTION_SECONDS", 3600)) * time.Second,
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres store", ErrInvalidConfig)
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("%w: MONGO_URI is required for the mongo store", ErrInvalidConfig)
		}
	case StoreDynamoDB:
		if c.DynamoTable == "" {
			return fmt.Errorf("%w: DDB_TABLE_ACCOUNTS is required for the dynamodb store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown ACCOUNT_STORE %q", ErrInvalidConfig, c.Store)
	}

	switch c.Pacing {
	case PacingFixed:
		if c.UploadDelay < 0 {
			return fmt.Errorf("%w: UPLOAD_DELAY_MS must not be negative", ErrInvalidConfig)
		}
	case PacingTokenBucket:
		if c.UploadRatePerSec <= 0 || c.UploadBurst <= 0 {
			return fmt.Errorf("%w: UPLOAD_RATE_PER_SECOND and UPLOAD_BURST must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown UPLOAD_PACING %q", ErrInvalidConfig, c.Pacing)
	}

	if c.UploadWriteTimeout <= 0 {
		return fmt.Errorf("%w: UPLOAD_WRITE_TIMEOUT_MS must be positive", ErrInvalidConfig)
	}
	return nil
}

func parseByteSize(raw string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier, s = 1<<10, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier, s = 1<<20, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier, s = 1<<30, strings.TrimSuffix(s, "G")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size %q", raw)
	}
	return n * multiplier, nil
}

// requestBodyLimit renders the document limit plus multipart headroom in the
// unit syntax understood by echo's body limit middleware.
func requestBodyLimit(maxBytes int64) string {
	total := maxBytes + multipartOverhead
	return fmt.Sprintf("%dK", (total+1<<10-1)/(1<<10))
}

func parseIntEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseBoolEnv(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
