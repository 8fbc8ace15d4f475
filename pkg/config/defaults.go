package config

import "time"

const (
	DefaultPort        = "3000"
	DefaultEnvironment = EnvironmentProduction
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"

	DefaultAllowedOrigins = "http://localhost:3000,https://demo.grasshopperlodge.com"
	DefaultTrustProxyHops = 1
	DefaultMaxRequestSize = 16 * 1024 // 16kb

	DefaultRateLimitRequests        = 200
	DefaultRateLimitWindow          = 15 * time.Minute
	DefaultBookingRateLimitRequests = 20
	DefaultBookingRateLimitWindow   = 1 * time.Hour
	DefaultRateLimitBackend         = "memory"
	DefaultRedisConnTimeout         = 5 * time.Second

	DefaultRecaptchaMinScore  = 0.45
	DefaultRecaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"
	DefaultRecaptchaTimeout   = 5 * time.Second

	DefaultSMTPPort     = 587
	DefaultFromEmail    = "no-reply@grasshopperlodge.com"
	DefaultEmailSubject = "New booking request — Grasshopper Lodge"
	DefaultSMTPTimeout  = 10 * time.Second

	DefaultBookingStore = "file"
	DefaultBookingsFile = "data/bookings.json"

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "lodge"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 45 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)

const (
	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"
)
