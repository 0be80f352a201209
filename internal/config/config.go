package config

import "github.com/caarlos0/env/v11"

type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	RateLimitRequests      int `env:"RATE_LIMIT_REQUESTS" envDefault:"0"`
	RateLimitWindowSeconds int `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`

	AuditVerifyLimit int `env:"AUDIT_VERIFY_LIMIT" envDefault:"1000"`
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
