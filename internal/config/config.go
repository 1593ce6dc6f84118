package config

import (
	"errors"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// CORS origins for the probe API. Empty allows every origin.
	CORSAllowedOrigins []string

	Grid GridConfig
}

// GridConfig names the NetCDF file loaded at startup and the variables read
// from it. File is empty when no grid is preloaded. Dew point is read from
// DewPointVar when set, otherwise derived from RHVar.
type GridConfig struct {
	File           string
	TemperatureVar string
	DewPointVar    string
	RHVar          string
	UVar           string
	VVar           string
	LevelVar       string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-soundings"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "sounding-notifications"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "storm-sounding"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		CORSAllowedOrigins: sharedcfg.ParseBrokers(os.Getenv("CORS_ALLOWED_ORIGINS")),

		Grid: GridConfig{
			File:           os.Getenv("GRID_FILE"),
			TemperatureVar: sharedcfg.EnvOrDefault("GRID_TEMPERATURE_VAR", "t"),
			DewPointVar:    os.Getenv("GRID_DEWPOINT_VAR"),
			RHVar:          sharedcfg.EnvOrDefault("GRID_RH_VAR", "r"),
			UVar:           sharedcfg.EnvOrDefault("GRID_U_VAR", "u"),
			VVar:           sharedcfg.EnvOrDefault("GRID_V_VAR", "v"),
			LevelVar:       sharedcfg.EnvOrDefault("GRID_LEVEL_VAR", "level"),
		},
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}
