package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"laundro/pkg/client"
	"laundro/pkg/logger"
	"laundro/pkg/model"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	KafkaBrokers     []string
	KafkaEventsTopic string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	MaxRequestSize int

	CORSOrigins []string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	WasherCount     int
	DryerMaxHours   int
	Debounce        time.Duration
	DryerActivePoll time.Duration
	DryerIdlePoll   time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		KafkaBrokers:     strings.Split(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers), ","),
		KafkaEventsTopic: getEnvStr(EnvKafkaEventsTopic, DefaultKafkaEventsTopic),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		CORSOrigins: strings.Split(getEnvStr(EnvCORSOrigins, DefaultCORSOrigins), ","),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		WasherCount:     getEnvNum(EnvWasherCount, DefaultWasherCount),
		DryerMaxHours:   getEnvNum(EnvDryerMaxHours, DefaultDryerMaxHours),
		Debounce:        getEnvDuration(EnvDebounce, DefaultDebounce),
		DryerActivePoll: getEnvDuration(EnvDryerActivePoll, DefaultDryerActivePoll),
		DryerIdlePoll:   getEnvDuration(EnvDryerIdlePoll, DefaultDryerIdlePoll),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("%s cannot be empty", EnvMongoURI)
	}
	if c.MongoDatabaseName == "" {
		return fmt.Errorf("%s cannot be empty", EnvMongoDatabaseName)
	}
	if c.Port == "" {
		return fmt.Errorf("%s cannot be empty", EnvPort)
	}
	if len(c.KafkaBrokers) == 0 || c.KafkaBrokers[0] == "" {
		return fmt.Errorf("%s must name at least one broker", EnvKafkaBrokers)
	}
	if c.WasherCount < 1 {
		return fmt.Errorf("%s must be at least 1", EnvWasherCount)
	}
	if c.DryerMaxHours < 1 {
		return fmt.Errorf("%s must be at least 1", EnvDryerMaxHours)
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("%s must be positive", EnvDebounce)
	}
	return nil
}

// Machines builds the fixed machine list: N slot-based washers plus the
// single continuous-duration dryer.
func (c *Config) Machines() []model.Machine {
	machines := make([]model.Machine, 0, c.WasherCount+1)
	for i := 1; i <= c.WasherCount; i++ {
		machines = append(machines, model.Machine{
			ID:    fmt.Sprintf("washer-%d", i),
			Kind:  model.MachineWasher,
			Label: fmt.Sprintf("Washer %d", i),
		})
	}
	machines = append(machines, model.Machine{
		ID:    DryerMachineID,
		Kind:  model.MachineDryer,
		Label: "Dryer",
	})
	return machines
}

func (c *Config) LogConfiguration() {
	c.Log.Info("Configuration loaded",
		"mongo_database", c.MongoDatabaseName,
		"port", c.Port,
		"kafka_brokers", strings.Join(c.KafkaBrokers, ","),
		"kafka_events_topic", c.KafkaEventsTopic,
		"washer_count", c.WasherCount,
		"dryer_max_hours", c.DryerMaxHours,
		"debounce", c.Debounce,
		"dryer_active_poll", c.DryerActivePoll,
		"dryer_idle_poll", c.DryerIdlePoll,
	)
}

func getEnvStr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
