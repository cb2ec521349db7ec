package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the process configuration, read from the environment.
type Config struct {
	HTTPAddr  string `env:"GACHA_HTTP_ADDR,default=:8080"`
	GRPCAddr  string `env:"GACHA_GRPC_ADDR,default=:9090"`
	ConfigDir string `env:"GACHA_CONFIG_DIR,default=configs"`

	// Seed makes every banner's RNG deterministic. 0 uses crypto/rand.
	Seed uint64 `env:"GACHA_SEED,default=0"`

	Watch          bool          `env:"GACHA_WATCH,default=true"`
	ReloadDebounce time.Duration `env:"GACHA_RELOAD_DEBOUNCE,default=500ms"`

	LogLevel  string `env:"GACHA_LOG_LEVEL,default=info"`
	LogFormat string `env:"GACHA_LOG_FORMAT,default=text"` // text or json

	ShutdownTimeout time.Duration `env:"GACHA_SHUTDOWN_TIMEOUT,default=10s"`
}

// Load reads the given .env files (missing ones are skipped) and then the
// environment. Variables already set take precedence over .env values.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	return cfg, nil
}

// Logger builds the process logger.
func (c Config) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetLevel(level)
	switch c.LogFormat {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return log, nil
}
