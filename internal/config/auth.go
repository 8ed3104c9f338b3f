package config

import "time"

type Auth struct {
	JWTSecret  string        `env:"AUTH_JWT_SECRET,required"`
	TokenTTL   time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"1h"`
	BcryptCost int           `env:"AUTH_BCRYPT_COST" envDefault:"10"`
}
