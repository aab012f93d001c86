package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// ErrNoSecret means JWT_SECRET_KEY is unset. An empty HMAC key would let
// anyone mint tokens.
var ErrNoSecret = errors.New("JWT_SECRET_KEY is not set")

type Config struct {
	Port       string
	RateLimit  int
	JWTSecret  string
	NatsURL    string
	MongoURI   string // empty disables the backlog
	Backlog    int
	BacklogTTL time.Duration
	LogLevel   string
}

func Load() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("MONITOR_SERVICE_PORT", "8010")
	v.SetDefault("RATE_LIMIT", 120)
	v.SetDefault("MONITOR_BACKLOG", 20)
	v.SetDefault("MONITOR_BACKLOG_TTL", 12*time.Hour)
	v.SetDefault("LOG_LEVEL", "info")

	return Config{
		Port:       v.GetString("MONITOR_SERVICE_PORT"),
		RateLimit:  v.GetInt("RATE_LIMIT"),
		JWTSecret:  v.GetString("JWT_SECRET_KEY"),
		NatsURL:    v.GetString("NATS_URL"),
		MongoURI:   v.GetString("MONGODB_URI"),
		Backlog:    v.GetInt("MONITOR_BACKLOG"),
		BacklogTTL: v.GetDuration("MONITOR_BACKLOG_TTL"),
		LogLevel:   v.GetString("LOG_LEVEL"),
	}
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrNoSecret
	}
	return nil
}
