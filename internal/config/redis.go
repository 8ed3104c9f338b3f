package config

import "time"

type Redis struct {
	Addr     string        `env:"REDIS_ADDR,required"`
	Password string        `env:"REDIS_PASSWORD" envDefault:""`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL time.Duration `env:"REDIS_CACHE_TTL" envDefault:"5m"`
}
