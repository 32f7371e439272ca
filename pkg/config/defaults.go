package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "laundro"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultKafkaBrokers     = "localhost:9092"
	DefaultKafkaEventsTopic = "laundro.events"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultCORSOrigins = "*"

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultWasherCount = 2
	// DefaultDryerMaxHours caps the dryer duration input.
	DefaultDryerMaxHours = 9
	// DefaultDebounce governs both dryer validation and lock republish.
	DefaultDebounce = 300 * time.Millisecond
	// Poll cadence while an active dryer booking exists.
	DefaultDryerActivePoll = 5 * time.Second
	// Poll cadence while the dryer is merely selected.
	DefaultDryerIdlePoll = 15 * time.Second
)

// DryerMachineID is the fixed id of the single continuous-duration machine.
const DryerMachineID = "dryer"
