package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	StorageMode        string
	MySQLDSN           string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	CORSOrigins        []string
	// AuthTokens maps static bearer tokens to user ids ("token:id" pairs).
	// A stand-in for the identity service this core does not own.
	AuthTokens map[string]int64
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		StorageMode:      strings.ToLower(getEnv("STORAGE_MODE", "memory")),
		MySQLDSN:         os.Getenv("MYSQL_DSN"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	origins := getEnv("CORS_ORIGINS", "*")
	if origins != "" {
		cfg.CORSOrigins = strings.Split(origins, ",")
	}

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	tokens, err := parseTokenPairs(getEnv("AUTH_TOKENS", ""))
	if err != nil {
		return Config{}, err
	}
	cfg.AuthTokens = tokens

	switch cfg.StorageMode {
	case "memory":
	case "mysql":
		if cfg.MySQLDSN == "" {
			return Config{}, fmt.Errorf("MYSQL_DSN is required when STORAGE_MODE=mysql")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_MODE %q", cfg.StorageMode)
	}
	return cfg, nil
}

func parseTokenPairs(raw string) (map[string]int64, error) {
	tokens := make(map[string]int64)
	if raw == "" {
		return tokens, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, id, ok := strings.Cut(pair, ":")
		if !ok || token == "" {
			return nil, fmt.Errorf("invalid AUTH_TOKENS entry %q", pair)
		}
		var userID int64
		if _, err := fmt.Sscanf(id, "%d", &userID); err != nil {
			return nil, fmt.Errorf("invalid AUTH_TOKENS user id in %q: %w", pair, err)
		}
		tokens[token] = userID
	}
	return tokens, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}
