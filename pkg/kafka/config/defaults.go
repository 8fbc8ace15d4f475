package kafka_config

import "time"

const (
	// Empty brokers disable event publishing
	DefaultKafkaBrokers = ""

	DefaultBookingsTopic = "bookings.received"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerWriteTimeout = 5 * time.Second
	DefaultProducerRequireAcks  = -1 // Require all replicas
	DefaultProducerCompression  = "snappy"
)
