package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	DatasetPath     string
	StationsPath    string
	RoutesDir       string
	SettingsPath    string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Google Maps routing configuration.
	GoogleMapsAPIKey string
	RoutingEnabled   bool
	RoutingTimeout   time.Duration
	RoutingCacheSize int

	// Kafka dataset refresh configuration. No brokers means refresh is off.
	KafkaBrokers      []string
	KafkaRefreshTopic string
	KafkaGroupID      string
}

// RefreshEnabled reports whether the Kafka dataset refresh subscriber
// should run.
func (c *Config) RefreshEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	routingTimeoutStr := envOrDefault("ROUTING_TIMEOUT", "5s")
	routingTimeout, err := time.ParseDuration(routingTimeoutStr)
	if err != nil || routingTimeout <= 0 {
		return nil, errors.New("invalid ROUTING_TIMEOUT")
	}

	apiKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	routingEnabled := apiKey != ""
	if v := os.Getenv("ROUTING_ENABLED"); v != "" {
		routingEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		DatasetPath:     envOrDefault("DATASET_PATH", "data/site_statistics.json"),
		StationsPath:    envOrDefault("STATIONS_PATH", "data/hydrogen_refuelling_stations.csv"),
		RoutesDir:       envOrDefault("ROUTES_DIR", "data/routes"),
		SettingsPath:    envOrDefault("SETTINGS_PATH", "dashboard.yml"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GoogleMapsAPIKey: apiKey,
		RoutingEnabled:   routingEnabled,
		RoutingTimeout:   routingTimeout,
		RoutingCacheSize: parseRoutingCacheSize(),

		KafkaBrokers:      parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaRefreshTopic: envOrDefault("KAFKA_REFRESH_TOPIC", "traffic-dataset-refresh"),
		KafkaGroupID:      envOrDefault("KAFKA_GROUP_ID", "truck-traffic-dashboard"),
	}

	if cfg.RoutingEnabled && cfg.GoogleMapsAPIKey == "" {
		return nil, errors.New("ROUTING_ENABLED is true but GOOGLE_MAPS_API_KEY is not set")
	}
	if cfg.RefreshEnabled() && cfg.KafkaRefreshTopic == "" {
		return nil, errors.New("KAFKA_REFRESH_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// envOrDefault returns the environment variable's value, or fallback when
// unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseBrokers splits a comma-separated broker list, dropping blanks.
func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseShutdownTimeout() (time.Duration, error) {
	s := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	return d, nil
}

func parseRoutingCacheSize() int {
	if s := os.Getenv("ROUTING_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
