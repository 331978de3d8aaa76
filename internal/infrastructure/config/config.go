package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo MongoConfig
	Redis RedisConfig
	Auth  AuthConfig
	Audit AuditConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=forum"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type AuthConfig struct {
	// DefaultRole is granted to every freshly registered account.
	// Leave empty to register accounts with no roles.
	DefaultRole string        `env:"AUTH_DEFAULT_ROLE, default=USER"`
	TokenTTL    time.Duration `env:"AUTH_TOKEN_TTL,    default=24h"`
	BcryptCost  int           `env:"AUTH_BCRYPT_COST,  default=10"`

	// Failed-login lockout window.
	MaxLoginAttempts int           `env:"AUTH_MAX_LOGIN_ATTEMPTS, default=5"`
	LockoutWindow    time.Duration `env:"AUTH_LOCKOUT_WINDOW,     default=15m"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
