package config

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/tether/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "tether.yaml"

	// DefaultAddress is the default listen address.
	DefaultAddress = ":8080"

	// DefaultBasePath prefixes the tether HTTP routes.
	DefaultBasePath = "/tether"

	// DefaultMetricsPath serves prometheus metrics.
	DefaultMetricsPath = "/metrics"

	// DefaultDebounce is the default client-side edit debounce.
	DefaultDebounce = 300 * time.Millisecond
)

// Transport drivers.
const (
	TransportHub   = "hub"
	TransportRedis = "redis"
)

// Snapshot drivers. An empty driver disables snapshots.
const (
	SnapshotNone     = ""
	SnapshotMemory   = "memory"
	SnapshotPebble   = "pebble"
	SnapshotPostgres = "postgres"
	SnapshotS3       = "s3"
	SnapshotRedis    = "redis"
)

// Config represents the complete tether.yaml configuration.
type Config struct {
	// Server contains HTTP settings.
	Server ServerConfig `yaml:"server"`

	// Channel is the channel models are bound to when they do not name one.
	Channel string `yaml:"channel,omitempty"`

	// Debounce is how long browsers wait after a change before sending it.
	Debounce time.Duration `yaml:"debounce"`

	// Transport selects how broadcasts reach clients.
	Transport TransportConfig `yaml:"transport"`

	// Snapshot selects where model state is persisted.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// RateLimit limits inbound websocket messages per client.
	RateLimit RateLimitConfig `yaml:"rateLimit"`

	// WebSocket contains connection limits.
	WebSocket WebSocketConfig `yaml:"websocket"`

	// Log configures the logger.
	Log LogConfig `yaml:"log"`

	// path stores the path where the config was loaded from.
	path string
}

// ServerConfig contains HTTP settings.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	BasePath        string        `yaml:"basePath"`
	MetricsPath     string        `yaml:"metricsPath"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxBodySize     int64         `yaml:"maxBodySize"`
}

// TransportConfig selects the transport.
type TransportConfig struct {
	// Driver is "hub" or "redis".
	Driver string      `yaml:"driver"`
	Redis  RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig contains redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// SnapshotConfig selects the snapshot store.
type SnapshotConfig struct {
	// Driver is empty (disabled), "memory", "pebble", "postgres", "s3" or
	// "redis". The redis driver uses the transport.redis connection.
	Driver   string         `yaml:"driver,omitempty"`
	Interval time.Duration  `yaml:"interval,omitempty"`
	Pebble   PebbleConfig   `yaml:"pebble,omitempty"`
	Postgres PostgresConfig `yaml:"postgres,omitempty"`
	S3       S3Config       `yaml:"s3,omitempty"`
}

// PebbleConfig locates the Pebble database.
type PebbleConfig struct {
	Path string `yaml:"path,omitempty"`
}

// PostgresConfig locates the Postgres table.
type PostgresConfig struct {
	URL   string `yaml:"url,omitempty"`
	Table string `yaml:"table,omitempty"`
}

// S3Config locates the S3 bucket.
type S3Config struct {
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"accessKey,omitempty"`
	SecretKey string `yaml:"secretKey,omitempty"`
}

// RateLimitConfig limits inbound messages per client.
type RateLimitConfig struct {
	// PerSecond is the sustained rate. Zero disables limiting.
	PerSecond float64 `yaml:"perSecond"`
	Burst     int     `yaml:"burst"`
}

// WebSocketConfig contains connection limits.
type WebSocketConfig struct {
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	PingInterval   time.Duration `yaml:"pingInterval"`
	MaxMessageSize int64         `yaml:"maxMessageSize"`
	SendBuffer     int           `yaml:"sendBuffer"`
}

// LogConfig configures the logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`

	// Sink is "stdout", "stderr" or "file:<path>".
	Sink string `yaml:"sink,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         DefaultAddress,
			BasePath:        DefaultBasePath,
			MetricsPath:     DefaultMetricsPath,
			ShutdownTimeout: 10 * time.Second,
			MaxBodySize:     64 * 1024,
		},
		Debounce: DefaultDebounce,
		Transport: TransportConfig{
			Driver: TransportHub,
			Redis:  RedisConfig{Prefix: "tether:"},
		},
		Snapshot: SnapshotConfig{
			Interval: time.Second,
			Postgres: PostgresConfig{Table: "tether_snapshots"},
		},
		RateLimit: RateLimitConfig{
			PerSecond: 50,
			Burst:     100,
		},
		WebSocket: WebSocketConfig{
			ReadTimeout:    60 * time.Second,
			WriteTimeout:   10 * time.Second,
			PingInterval:   30 * time.Second,
			MaxMessageSize: 64 * 1024,
			SendBuffer:     256,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Sink:   "stdout",
		},
	}
}

// Load reads the configuration file at path, applies the environment and
// validates the result. An empty path uses defaults and the environment
// only.
func Load(path string) (*Config, error) {
	dir := "."
	if path != "" {
		dir = filepath.Dir(path)
	}
	if err := LoadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	cfg := New()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads a .env file into the environment. A missing file is not
// an error and variables already set are kept.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.New("E109").
			WithDetail("Failed to read " + path).
			Wrap(err)
	}
	return nil
}

// LoadFile reads the configuration file at path over the defaults, without
// applying the environment.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'tether init' to write a default configuration")
		}
		return nil, errors.New("E102").Wrap(err)
	}

	cfg := New()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.New("E102").
			WithLocationFromError(path, err).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check indentation and key names against 'tether init' output")
	}

	cfg.path = path
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.path)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New("E111").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E111").Wrap(err)
	}
	c.path = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		return errors.New("E103").
			WithDetail("server.address is " + quote(c.Server.Address)).
			Wrap(err)
	}

	switch c.Transport.Driver {
	case TransportHub:
	case TransportRedis:
		if c.Transport.Redis.Addr == "" {
			return errors.New("E106").
				WithSuggestion("Set transport.redis.addr or TETHER_REDIS_ADDR")
		}
	default:
		return errors.New("E104").
			WithDetail("transport.driver is " + quote(c.Transport.Driver)).
			WithSuggestion(`Use "hub" or "redis"`)
	}

	switch c.Snapshot.Driver {
	case SnapshotNone, SnapshotMemory:
	case SnapshotPebble:
		if c.Snapshot.Pebble.Path == "" {
			return errors.New("E107").WithSuggestion("Set snapshot.pebble.path")
		}
	case SnapshotPostgres:
		if c.Snapshot.Postgres.URL == "" {
			return errors.New("E107").WithSuggestion("Set snapshot.postgres.url or TETHER_POSTGRES_URL")
		}
	case SnapshotS3:
		if c.Snapshot.S3.Bucket == "" {
			return errors.New("E107").WithSuggestion("Set snapshot.s3.bucket or TETHER_S3_BUCKET")
		}
	case SnapshotRedis:
		if c.Transport.Redis.Addr == "" {
			return errors.New("E107").WithSuggestion("Set transport.redis.addr or TETHER_REDIS_ADDR")
		}
	default:
		return errors.New("E105").
			WithDetail("snapshot.driver is " + quote(c.Snapshot.Driver))
	}

	if c.Debounce < 0 || c.Snapshot.Interval < 0 || c.RateLimit.PerSecond < 0 ||
		c.RateLimit.Burst < 0 || c.WebSocket.MaxMessageSize < 0 || c.WebSocket.SendBuffer < 0 ||
		c.Server.MaxBodySize < 0 || c.Server.ShutdownTimeout < 0 {
		return errors.New("E108")
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return errors.New("E110").Wrap(err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("E110").WithDetail("log.format is " + quote(c.Log.Format))
	}
	return nil
}

func quote(s string) string {
	return `"` + s + `"`
}
