package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	CSVPath   string
	OutputDir string
	FirstYear int
	LastYear  int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	MetricsTextfile string

	// Kafka publishing is enabled when KafkaBrokers is non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Mapbox geocoding configuration.
	MapboxToken   string
	MapboxEnabled bool
	MapboxTimeout time.Duration

	// Site animation.
	AnimationFrameDelay time.Duration
	AnimationLoops      int
	AnimationFrames     []string
}

// KafkaEnabled reports whether site summaries are published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	frameDelay, err := parsePositiveDuration("ANIMATION_FRAME_DELAY", "1s")
	if err != nil {
		return nil, err
	}

	firstYear, err := parseInt("FIRST_YEAR", 1993)
	if err != nil {
		return nil, err
	}
	lastYear, err := parseInt("LAST_YEAR", 2020)
	if err != nil {
		return nil, err
	}
	loops, err := parseInt("ANIMATION_LOOPS", 20)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); strings.TrimSpace(v) != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		CSVPath:         sharedcfg.EnvOrDefault("SWE_CSV_PATH", "data/snowateq.mw.data.16.csv"),
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "output"),
		FirstYear:       firstYear,
		LastYear:        lastYear,
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "swe-series"),

		MapboxToken:   mapboxToken,
		MapboxEnabled: mapboxEnabled,
		MapboxTimeout: mapboxTimeout,

		AnimationFrameDelay: frameDelay,
		AnimationLoops:      loops,
		AnimationFrames:     parseList(os.Getenv("ANIMATION_FRAMES")),
	}

	if strings.TrimSpace(cfg.CSVPath) == "" {
		return nil, errors.New("SWE_CSV_PATH is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.FirstYear > cfg.LastYear {
		return nil, fmt.Errorf("FIRST_YEAR %d is after LAST_YEAR %d", cfg.FirstYear, cfg.LastYear)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.AnimationLoops < 0 {
		return nil, errors.New("ANIMATION_LOOPS must not be negative")
	}

	return cfg, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// parseList splits a comma-separated list, keeping order and duplicates.
func parseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
