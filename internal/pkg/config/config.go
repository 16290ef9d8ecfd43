// Package config loads service configuration through viper. Every setting
// has a default suitable for local development and can be overridden with
// a SAGA_-prefixed environment variable (SAGA_PORT, SAGA_REDIS_ADDR, ...).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServiceName string
	Env         string
	Port        string

	// Downstream service base URLs, used by the orchestrator's step clients.
	SeatServiceURL       string
	PaymentServiceURL    string
	AllocationServiceURL string

	// ClientTimeout bounds every downstream call. A timeout is treated as
	// a step failure and drives the normal compensation path.
	ClientTimeout time.Duration

	// SQLitePath, when set, switches the orchestrator to the SQLite-backed
	// booking log. Empty means in-memory.
	SQLitePath string

	// RedisAddr, when set, lets the payment service mirror processed
	// payments in redis. Empty disables the cache.
	RedisAddr string

	// KafkaBrokers/KafkaTopic, when set, enable booking lifecycle event
	// publishing. Empty topic disables it.
	KafkaBrokers []string
	KafkaTopic   string

	OTLPEndpoint string
}

// Load reads the configuration for the named service. Defaults mirror the
// local development layout: orchestrator on 8000, seat on 8001, payment on
// 8002, allocation on 8003.
func Load(serviceName, defaultPort string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SAGA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "local")
	v.SetDefault("port", defaultPort)
	v.SetDefault("seat_service_url", "http://localhost:8001")
	v.SetDefault("payment_service_url", "http://localhost:8002")
	v.SetDefault("allocation_service_url", "http://localhost:8003")
	v.SetDefault("client_timeout", "10s")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "")
	v.SetDefault("otlp_endpoint", "localhost:4317")

	timeout, err := time.ParseDuration(v.GetString("client_timeout"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid client_timeout: %w", err)
	}

	var brokers []string
	if raw := v.GetString("kafka_brokers"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return &Config{
		ServiceName:          serviceName,
		Env:                  v.GetString("env"),
		Port:                 v.GetString("port"),
		SeatServiceURL:       v.GetString("seat_service_url"),
		PaymentServiceURL:    v.GetString("payment_service_url"),
		AllocationServiceURL: v.GetString("allocation_service_url"),
		ClientTimeout:        timeout,
		SQLitePath:           v.GetString("sqlite_path"),
		RedisAddr:            v.GetString("redis_addr"),
		KafkaBrokers:         brokers,
		KafkaTopic:           v.GetString("kafka_topic"),
		OTLPEndpoint:         v.GetString("otlp_endpoint"),
	}, nil
}

// Addr returns the listen address for the service.
func (c *Config) Addr() string {
	return ":" + c.Port
}
