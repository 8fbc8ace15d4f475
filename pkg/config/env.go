package config

const (
	EnvPort        = "PORT"
	EnvEnvironment = "APP_ENV"
	EnvLogLevel    = "LOG_LEVEL"
	EnvLogFormat   = "LOG_FORMAT"

	EnvAllowedOrigins = "ALLOWED_ORIGINS"
	EnvTrustProxyHops = "TRUST_PROXY_HOPS"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvRateLimitRequests        = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow          = "RATE_LIMIT_WINDOW"
	EnvBookingRateLimitRequests = "BOOKING_RATE_LIMIT_REQUESTS"
	EnvBookingRateLimitWindow   = "BOOKING_RATE_LIMIT_WINDOW"
	EnvRateLimitBackend         = "RATE_LIMIT_BACKEND"
	EnvRedisURL                 = "REDIS_URL"
	EnvRedisConnTimeout         = "REDIS_CONN_TIMEOUT"

	EnvRecaptchaSecret    = "RECAPTCHA_SECRET"
	EnvRecaptchaMinScore  = "RECAPTCHA_MIN_SCORE"
	EnvRecaptchaVerifyURL = "RECAPTCHA_VERIFY_URL"
	EnvRecaptchaTimeout   = "RECAPTCHA_TIMEOUT"

	EnvSMTPHost     = "SMTP_HOST"
	EnvSMTPPort     = "SMTP_PORT"
	EnvSMTPSecure   = "SMTP_SECURE"
	EnvSMTPUser     = "SMTP_USER"
	EnvSMTPPass     = "SMTP_PASS"
	EnvNotifyEmail  = "NOTIFY_EMAIL"
	EnvFromEmail    = "FROM_EMAIL"
	EnvEmailSubject = "EMAIL_SUBJECT"
	EnvSMTPTimeout  = "SMTP_TIMEOUT"

	EnvBookingStore = "BOOKING_STORE"
	EnvBookingsFile = "BOOKINGS_FILE"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
