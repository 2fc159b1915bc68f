package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`     // dev|stage|prod
	Service   string `yaml:"service"` // chat-service
	Version   string `yaml:"version"`
	Backend   string `yaml:"backend"` // std|zap
	AddSource bool   `yaml:"addSource"`
	Debug     bool   `yaml:"debug"`
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

type Auth struct {
	JWTSecret string `yaml:"jwtSecret"`
}

type Moderation struct {
	// fail-open lets messages through when the classifier errors out;
	// default is fail-closed.
	FailOpen     bool     `yaml:"failOpen"`
	RawTimeout   string   `yaml:"timeout"` // "2s"
	BlockedWords []string `yaml:"blockedWords"`

	Timeout time.Duration `yaml:"-"`
}

type Chat struct {
	RawDrainInterval string     `yaml:"drainInterval"`  // "5s", message batch persist
	RawFlushInterval string     `yaml:"flushInterval"`  // "10s", per-sender counters
	DepthWarnAbove   int        `yaml:"depthWarnAbove"` // queue depth warn threshold
	Moderation       Moderation `yaml:"moderation"`

	DrainInterval time.Duration `yaml:"-"`
	FlushInterval time.Duration `yaml:"-"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
	Auth     Auth     `yaml:"auth"`
	Chat     Chat     `yaml:"chat"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwtSecret is required")
	}
	// defaults
	if c.Logging.Service == "" {
		c.Logging.Service = "chat-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	c.Chat.DrainInterval = parseDurationOr(5*time.Second, c.Chat.RawDrainInterval)
	c.Chat.FlushInterval = parseDurationOr(10*time.Second, c.Chat.RawFlushInterval)
	c.Chat.Moderation.Timeout = parseDurationOr(2*time.Second, c.Chat.Moderation.RawTimeout)
	if c.Chat.DepthWarnAbove <= 0 {
		c.Chat.DepthWarnAbove = 10_000
	}
	return nil
}

// helper for parsing timeouts
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
