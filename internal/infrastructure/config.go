package infrastructure

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the service. Token settings are
// carried here and handed to the codec at construction time; nothing reads
// them from ambient globals.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	TableName string `envconfig:"TABLE_NAME" required:"true"`
	Region    string `envconfig:"AWS_REGION" required:"true"`

	JWTSecret       string        `envconfig:"JWT_SECRET_KEY" required:"true"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"30m"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return Config{}, errors.New("token lifetimes must be positive")
	}
	return cfg, nil
}
