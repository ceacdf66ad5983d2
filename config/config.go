package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Board      BoardConfig      `yaml:"board"`
	Local      LocalConfig      `yaml:"local"`
	Remote     RemoteConfig     `yaml:"remote"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Classifier ClassifierConfig `yaml:"classifier"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are set.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// BoardConfig holds the board settings.
type BoardConfig struct {
	Timezone string         `yaml:"timezone"`
	Location *time.Location `yaml:"-"`
}

// Local storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// LocalConfig selects the local persistence engine.
type LocalConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
	BadgerDir  string `yaml:"badger_dir"`
}

// RemoteConfig holds the remote mirror database configuration.
type RemoteConfig struct {
	Enabled                bool          `yaml:"enabled"`
	DSN                    string        `yaml:"dsn"`
	MaxOpenConns           int           `yaml:"max_open_conns"`
	MaxIdleConns           int           `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int           `yaml:"conn_max_lifetime_minutes"`
	PollIntervalSeconds    int           `yaml:"poll_interval_seconds"`
	PollInterval           time.Duration `yaml:"-"` // Ignored by YAML parser
}

// ClassifierConfig holds the document classification settings.
type ClassifierConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

// Load reads the configuration from the given path. A .env file in the
// working directory is loaded first; secrets in the environment override the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to load .env file: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Classifier.APIKey = v
	}
	if v := os.Getenv("REMOTE_DSN"); v != "" {
		cfg.Remote.DSN = v
	}
	if v := os.Getenv("VAPID_PUBLIC_KEY"); v != "" {
		cfg.Push.PublicKey = v
	}
	if v := os.Getenv("VAPID_PRIVATE_KEY"); v != "" {
		cfg.Push.PrivateKey = v
	}
}

func applyDefaults(cfg *Config) error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Board.Timezone == "" {
		cfg.Board.Timezone = "Europe/Paris"
	}
	loc, err := time.LoadLocation(cfg.Board.Timezone)
	if err != nil {
		return err
	}
	cfg.Board.Location = loc

	if cfg.Local.Driver == "" {
		cfg.Local.Driver = DriverSQLite
	}
	if cfg.Local.SQLitePath == "" {
		cfg.Local.SQLitePath = "./data/palletd.db"
	}
	if cfg.Local.BadgerDir == "" {
		cfg.Local.BadgerDir = "./data/badger"
	}

	if cfg.Remote.PollIntervalSeconds <= 0 {
		cfg.Remote.PollIntervalSeconds = 5
	}
	cfg.Remote.PollInterval = time.Duration(cfg.Remote.PollIntervalSeconds) * time.Second
	if cfg.Remote.MaxOpenConns <= 0 {
		cfg.Remote.MaxOpenConns = 4
	}
	if cfg.Remote.MaxIdleConns <= 0 {
		cfg.Remote.MaxIdleConns = 2
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Classifier.Model == "" {
		cfg.Classifier.Model = "gemini-2.5-flash"
	}
	return nil
}
