// Package settings loads server settings from an optional YAML file and the
// environment.
package settings

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage backends for sessions
const (
	StorageFile  = "file"
	StorageRedis = "redis"
)

type Settings struct {
	Host      string `yaml:"host" env:"HOST" env-default:"localhost"`
	Port      int    `yaml:"port" env:"PORT" env-default:"8080"`
	LogLevel  string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	ConfigDir string `yaml:"config-dir" env:"CONFIG_DIR" env-default:"configs"`
	StaticDir string `yaml:"static-dir" env:"STATIC_DIR" env-default:""`

	Storage Storage `yaml:"storage"`
	Redis   Redis   `yaml:"redis"`
	Ngrok   Ngrok   `yaml:"ngrok"`
}

type Storage struct {
	Backend         string        `yaml:"backend" env:"STORAGE_BACKEND" env-default:"file"`
	SessionsDir     string        `yaml:"sessions-dir" env:"SESSIONS_DIR" env-default:"sessions"`
	SessionTTL      time.Duration `yaml:"session-ttl" env:"SESSION_TTL" env-default:"24h"`
	CleanupInterval time.Duration `yaml:"cleanup-interval" env:"CLEANUP_INTERVAL" env-default:"1m"`
}

type Redis struct {
	Addr      string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password  string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB        int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	KeyPrefix string `yaml:"key-prefix" env:"REDIS_KEY_PREFIX" env-default:"tictactwo:session:"`
}

type Ngrok struct {
	Enabled   bool   `yaml:"enabled" env:"NGROK_ENABLED" env-default:"false"`
	AuthToken string `yaml:"auth-token" env:"NGROK_AUTHTOKEN" env-default:""`
	Domain    string `yaml:"domain" env:"NGROK_DOMAIN" env-default:""`
}

// Load reads settings from path when it is not empty, otherwise from the
// environment alone. Environment variables win over the file.
func Load(path string) (*Settings, error) {
	s := &Settings{}

	if path != "" {
		if err := cleanenv.ReadConfig(path, s); err != nil {
			return nil, fmt.Errorf("unable to load settings file: %w", err)
		}
	} else if err := cleanenv.ReadEnv(s); err != nil {
		return nil, fmt.Errorf("unable to read settings from environment: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the values a server cannot start without.
func (s *Settings) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	switch s.Storage.Backend {
	case StorageFile:
		if s.Storage.SessionsDir == "" {
			return fmt.Errorf("sessions dir is required for file storage")
		}
	case StorageRedis:
		if s.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for redis storage")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", s.Storage.Backend)
	}
	if s.Storage.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup interval must be positive")
	}
	return nil
}

// Addr is the host:port the HTTP server listens on.
func (s *Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// BaseURL is the loopback URL clients of this server use.
func (s *Settings) BaseURL() string {
	return "http://" + s.Addr()
}

// Usage describes the environment variables Settings reads.
func Usage() string {
	text, err := cleanenv.GetDescription(&Settings{}, nil)
	if err != nil {
		return ""
	}
	return text
}
