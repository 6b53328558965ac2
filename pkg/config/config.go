package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// Store drivers understood by the store factory
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

const defaultSigningKey = "defaultsecretkey"

// DBConfig holds the Postgres connection and pool settings
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN builds the key/value DSN understood by the postgres driver
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type ServerConfig struct {
	Port string
	Env  string
}

// Production reports whether APP_ENV is "production"
func (c *ServerConfig) Production() bool {
	return c.Env == "production"
}

type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

type LogConfig struct {
	Level string
}

type MetricsConfig struct {
	Prefix string
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver string
}

// RedisConfig holds the ville cache connection. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// MinIOConfig holds object storage settings for commerce images.
// An empty Endpoint disables image uploads.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (c *MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// SchedulerConfig holds cron specs for background jobs
type SchedulerConfig struct {
	ExpirySweep string
}

// Config is the full service configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Store       StoreConfig
	Redis       RedisConfig
	MinIO       MinIOConfig
	Scheduler   SchedulerConfig
}

// Load reads an optional .env file, then the environment, and validates the result
func Load(serviceName string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	conf := &Config{
		ServiceName: serviceName,
		DB:          loadDB(serviceName),
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", defaultSigningKey),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log:       LogConfig{Level: getEnv("LOG_LEVEL", "info")},
		Metrics:   MetricsConfig{Prefix: getEnv("METRICS_PREFIX", serviceName)},
		Store:     StoreConfig{Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres))},
		Redis:     loadRedis(),
		MinIO:     loadMinIO(),
		Scheduler: SchedulerConfig{ExpirySweep: getEnv("EXPIRY_SWEEP_SCHEDULE", "@every 1h")},
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func loadDB(serviceName string) DBConfig {
	return DBConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnv("DB_PORT", "5432"),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", "password"),
		DBName:          getEnv("DB_NAME", serviceName),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
	}
}

func loadRedis() RedisConfig {
	return RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("REDIS_DB", 0),
		TTL:      getEnvAsDuration("VILLE_CACHE_TTL", 24*time.Hour),
	}
}

func loadMinIO() MinIOConfig {
	return MinIOConfig{
		Endpoint:  getEnv("MINIO_ENDPOINT", ""),
		AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		SecretKey: getEnv("MINIO_SECRET_KEY", ""),
		Bucket:    getEnv("MINIO_BUCKET", "commerce-images"),
		UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
	}
}

// Validate rejects combinations the service cannot start with
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver))
	}
	if c.Server.Production() && (c.JWT.SigningKey == "" || c.JWT.SigningKey == defaultSigningKey) {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
	}
	if c.JWT.ExpirationHours <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_HOURS must be positive"))
	}
	if c.MinIO.Enabled() && (c.MinIO.AccessKey == "" || c.MinIO.SecretKey == "") {
		errs = append(errs, errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required with MINIO_ENDPOINT"))
	}
	if c.Redis.Enabled() && c.Redis.TTL <= 0 {
		errs = append(errs, errors.New("VILLE_CACHE_TTL must be positive"))
	}

	return errors.Join(errs...)
}

// LogConfig lists the non-secret settings as zap fields for the startup log
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("store_driver", c.Store.Driver),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.Bool("ville_cache", c.Redis.Enabled()),
		zap.Bool("image_storage", c.MinIO.Enabled()),
		zap.String("expiry_sweep", c.Scheduler.ExpirySweep),
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// parseEnv returns defaultValue when key is unset or does not parse
func parseEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	value, err := parse(strings.TrimSpace(raw))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, strconv.Atoi)
}

func getEnvAsBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, strconv.ParseBool)
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, time.ParseDuration)
}

var gormLogLevels = map[string]logger.LogLevel{
	"silent": logger.Silent,
	"error":  logger.Error,
	"warn":   logger.Warn,
	"info":   logger.Info,
}

func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	return parseEnv(key, defaultValue, func(s string) (logger.LogLevel, error) {
		level, ok := gormLogLevels[strings.ToLower(s)]
		if !ok {
			return 0, fmt.Errorf("unknown log level %q", s)
		}
		return level, nil
	})
}
