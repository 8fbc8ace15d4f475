package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"lodge/pkg/client"
	kafka_config "lodge/pkg/kafka/config"
	"lodge/pkg/logger"
	"lodge/pkg/ratelimit"
	"lodge/pkg/sanitizer"

	"github.com/joho/godotenv"
)

const (
	StoreFile  = "file"
	StoreMongo = "mongo"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFormat   string

	AllowedOrigins []string
	TrustProxyHops int
	MaxRequestSize int

	RateLimitRequests        int
	RateLimitWindow          time.Duration
	BookingRateLimitRequests int
	BookingRateLimitWindow   time.Duration
	RateLimitBackend         string
	RedisURL                 string
	RedisConnTimeout         time.Duration

	RecaptchaSecret    string
	RecaptchaMinScore  float64
	RecaptchaVerifyURL string
	RecaptchaTimeout   time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPSecure   bool
	SMTPUser     string
	SMTPPass     string
	NotifyEmail  string
	FromEmail    string
	EmailSubject string
	SMTPTimeout  time.Duration

	BookingStore string
	BookingsFile string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Kafka *kafka_config.Config

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads .env (when present) and the environment, and exits on an
// invalid configuration.
func Load(serviceName string) *Config {
	envFileErr := godotenv.Load()

	cfg := FromEnv(serviceName)

	if envFileErr != nil && !errors.Is(envFileErr, fs.ErrNotExist) {
		cfg.Log.Warn("Failed to read .env file", "error", envFileErr)
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a Config from the process environment without validating it.
func FromEnv(serviceName string) *Config {
	cfg := &Config{
		Port:        getEnvStr(EnvPort, DefaultPort),
		Environment: getEnvStr(EnvEnvironment, DefaultEnvironment),
		LogLevel:    getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat:   getEnvStr(EnvLogFormat, DefaultLogFormat),

		AllowedOrigins: getEnvList(EnvAllowedOrigins, DefaultAllowedOrigins),
		TrustProxyHops: getEnvNum(EnvTrustProxyHops, DefaultTrustProxyHops),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		RateLimitRequests:        getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:          getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),
		BookingRateLimitRequests: getEnvNum(EnvBookingRateLimitRequests, DefaultBookingRateLimitRequests),
		BookingRateLimitWindow:   getEnvDuration(EnvBookingRateLimitWindow, DefaultBookingRateLimitWindow),
		RateLimitBackend:         getEnvStr(EnvRateLimitBackend, DefaultRateLimitBackend),
		RedisURL:                 getEnvStr(EnvRedisURL, ""),
		RedisConnTimeout:         getEnvDuration(EnvRedisConnTimeout, DefaultRedisConnTimeout),

		RecaptchaSecret:    getEnvStr(EnvRecaptchaSecret, ""),
		RecaptchaMinScore:  getEnvFloat(EnvRecaptchaMinScore, DefaultRecaptchaMinScore),
		RecaptchaVerifyURL: getEnvStr(EnvRecaptchaVerifyURL, DefaultRecaptchaVerifyURL),
		RecaptchaTimeout:   getEnvDuration(EnvRecaptchaTimeout, DefaultRecaptchaTimeout),

		SMTPHost:     getEnvStr(EnvSMTPHost, ""),
		SMTPPort:     getEnvNum(EnvSMTPPort, DefaultSMTPPort),
		SMTPSecure:   getEnvBool(EnvSMTPSecure, false),
		SMTPUser:     getEnvStr(EnvSMTPUser, ""),
		SMTPPass:     getEnvStr(EnvSMTPPass, ""),
		FromEmail:    getEnvStr(EnvFromEmail, DefaultFromEmail),
		EmailSubject: getEnvStr(EnvEmailSubject, DefaultEmailSubject),
		SMTPTimeout:  getEnvDuration(EnvSMTPTimeout, DefaultSMTPTimeout),

		BookingStore: getEnvStr(EnvBookingStore, DefaultBookingStore),
		BookingsFile: getEnvStr(EnvBookingsFile, DefaultBookingsFile),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Kafka: kafka_config.Load(),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Client: client.NewClient(),
	}
	cfg.NotifyEmail = getEnvStr(EnvNotifyEmail, cfg.SMTPUser)

	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})

	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisURL, cfg.RedisConnTimeout)
}

func (cfg *Config) IsDevelopment() bool {
	return cfg.Environment == EnvironmentDevelopment
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.Environment != EnvironmentProduction && cfg.Environment != EnvironmentDevelopment {
		errors = append(errors, fmt.Sprintf("Environment must be '%s' or '%s', got: %s", EnvironmentProduction, EnvironmentDevelopment, cfg.Environment))
	}
	if cfg.LogFormat != logger.JSON && cfg.LogFormat != logger.TEXT {
		errors = append(errors, fmt.Sprintf("LogFormat must be '%s' or '%s', got: %s", logger.JSON, logger.TEXT, cfg.LogFormat))
	}

	if len(cfg.AllowedOrigins) == 0 {
		errors = append(errors, "AllowedOrigins cannot be empty")
	}
	if cfg.TrustProxyHops < 0 {
		errors = append(errors, fmt.Sprintf("TrustProxyHops cannot be negative, got: %d", cfg.TrustProxyHops))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.BookingRateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("BookingRateLimitRequests must be positive, got: %d", cfg.BookingRateLimitRequests))
	}
	if cfg.BookingRateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("BookingRateLimitWindow must be positive, got: %s", cfg.BookingRateLimitWindow))
	}
	switch cfg.RateLimitBackend {
	case ratelimit.BackendMemory:
	case ratelimit.BackendRedis:
		if cfg.RedisURL == "" {
			errors = append(errors, "RedisURL cannot be empty when RateLimitBackend is 'redis'")
		}
	default:
		errors = append(errors, fmt.Sprintf("RateLimitBackend must be '%s' or '%s', got: %s", ratelimit.BackendMemory, ratelimit.BackendRedis, cfg.RateLimitBackend))
	}

	if cfg.RecaptchaMinScore < 0 || cfg.RecaptchaMinScore > 1 {
		errors = append(errors, fmt.Sprintf("RecaptchaMinScore must be between 0 and 1, got: %g", cfg.RecaptchaMinScore))
	}
	if cfg.RecaptchaSecret != "" && cfg.RecaptchaVerifyURL == "" {
		errors = append(errors, "RecaptchaVerifyURL cannot be empty when RecaptchaSecret is set")
	}
	if cfg.RecaptchaTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RecaptchaTimeout must be positive, got: %s", cfg.RecaptchaTimeout))
	}

	if cfg.SMTPHost != "" {
		if cfg.SMTPPort < 1 || cfg.SMTPPort > 65535 {
			errors = append(errors, fmt.Sprintf("SMTPPort must be between 1 and 65535, got: %d", cfg.SMTPPort))
		}
		if cfg.NotifyEmail == "" {
			errors = append(errors, "NotifyEmail or SMTPUser must be set when SMTPHost is set")
		}
		if cfg.SMTPTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("SMTPTimeout must be positive, got: %s", cfg.SMTPTimeout))
		}
	}

	switch cfg.BookingStore {
	case StoreFile:
		if cfg.BookingsFile == "" {
			errors = append(errors, "BookingsFile cannot be empty when BookingStore is 'file'")
		}
	case StoreMongo:
		if !strings.HasPrefix(cfg.MongoURI, "mongodb://") && !strings.HasPrefix(cfg.MongoURI, "mongodb+srv://") {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", client.RedactURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	default:
		errors = append(errors, fmt.Sprintf("BookingStore must be '%s' or '%s', got: %s", StoreFile, StoreMongo, cfg.BookingStore))
	}

	if cfg.Kafka != nil {
		errors = append(errors, cfg.Kafka.Validate()...)
	}

	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"allowed_origins", cfg.AllowedOrigins,
		"trust_proxy_hops", cfg.TrustProxyHops,
		"max_request_size", cfg.MaxRequestSize,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"booking_rate_limit_requests", cfg.BookingRateLimitRequests,
		"booking_rate_limit_window", cfg.BookingRateLimitWindow,
		"rate_limit_backend", cfg.RateLimitBackend,
		"redis_url", client.RedactURI(cfg.RedisURL),
		"recaptcha_secret_set", cfg.RecaptchaSecret != "",
		"recaptcha_min_score", cfg.RecaptchaMinScore,
		"smtp_host", cfg.SMTPHost,
		"smtp_port", cfg.SMTPPort,
		"smtp_secure", cfg.SMTPSecure,
		"smtp_user_set", cfg.SMTPUser != "",
		"smtp_pass_set", cfg.SMTPPass != "",
		"notify_email", cfg.NotifyEmail,
		"booking_store", cfg.BookingStore,
		"bookings_file", cfg.BookingsFile,
		"mongo_uri", client.RedactURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"kafka_brokers", cfg.Kafka.Brokers,
		"kafka_bookings_topic", cfg.Kafka.BookingsTopic,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func (cfg *Config) GracefulShutdown(ctx context.Context) {
	cfg.Client.GracefulShutdown(ctx)
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvBool only treats the literal "true" as true.
func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true"
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	return sanitizer.NormalizeStringSlice(strings.Split(getEnvStr(key, fallback), ","), sanitizer.SanitizeString)
}
