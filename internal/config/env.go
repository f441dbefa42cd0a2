package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/vango-dev/tether/internal/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TETHER_"

// LookupFunc looks up an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envVar struct {
	name  string
	apply func(c *Config, v string) error
}

func setString(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func setDuration(dst func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

func setInt(dst func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

var envVars = []envVar{
	{"ADDRESS", setString(func(c *Config) *string { return &c.Server.Address })},
	{"BASE_PATH", setString(func(c *Config) *string { return &c.Server.BasePath })},
	{"METRICS_PATH", setString(func(c *Config) *string { return &c.Server.MetricsPath })},
	{"CHANNEL", setString(func(c *Config) *string { return &c.Channel })},
	{"DEBOUNCE", setDuration(func(c *Config) *time.Duration { return &c.Debounce })},
	{"TRANSPORT", setString(func(c *Config) *string { return &c.Transport.Driver })},
	{"REDIS_ADDR", setString(func(c *Config) *string { return &c.Transport.Redis.Addr })},
	{"REDIS_PASSWORD", setString(func(c *Config) *string { return &c.Transport.Redis.Password })},
	{"REDIS_DB", setInt(func(c *Config) *int { return &c.Transport.Redis.DB })},
	{"REDIS_PREFIX", setString(func(c *Config) *string { return &c.Transport.Redis.Prefix })},
	{"SNAPSHOT", setString(func(c *Config) *string { return &c.Snapshot.Driver })},
	{"SNAPSHOT_INTERVAL", setDuration(func(c *Config) *time.Duration { return &c.Snapshot.Interval })},
	{"PEBBLE_PATH", setString(func(c *Config) *string { return &c.Snapshot.Pebble.Path })},
	{"POSTGRES_URL", setString(func(c *Config) *string { return &c.Snapshot.Postgres.URL })},
	{"POSTGRES_TABLE", setString(func(c *Config) *string { return &c.Snapshot.Postgres.Table })},
	{"S3_BUCKET", setString(func(c *Config) *string { return &c.Snapshot.S3.Bucket })},
	{"S3_PREFIX", setString(func(c *Config) *string { return &c.Snapshot.S3.Prefix })},
	{"S3_REGION", setString(func(c *Config) *string { return &c.Snapshot.S3.Region })},
	{"S3_ENDPOINT", setString(func(c *Config) *string { return &c.Snapshot.S3.Endpoint })},
	{"S3_ACCESS_KEY", setString(func(c *Config) *string { return &c.Snapshot.S3.AccessKey })},
	{"S3_SECRET_KEY", setString(func(c *Config) *string { return &c.Snapshot.S3.SecretKey })},
	{"RATE_LIMIT", func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.RateLimit.PerSecond = f
		return nil
	}},
	{"RATE_BURST", setInt(func(c *Config) *int { return &c.RateLimit.Burst })},
	{"LOG_LEVEL", setString(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_FORMAT", setString(func(c *Config) *string { return &c.Log.Format })},
	{"LOG_SINK", setString(func(c *Config) *string { return &c.Log.Sink })},
}

// EnvNames returns the names of every supported environment variable.
func EnvNames() []string {
	names := make([]string, len(envVars))
	for i, ev := range envVars {
		names[i] = EnvPrefix + ev.name
	}
	return names
}

// ApplyEnv overrides settings with the TETHER_* variables lookup finds.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, ev := range envVars {
		v, ok := lookup(EnvPrefix + ev.name)
		if !ok {
			continue
		}
		if err := ev.apply(c, v); err != nil {
			return errors.New("E109").
				WithDetail(fmt.Sprintf("%s%s=%q", EnvPrefix, ev.name, v)).
				Wrap(err)
		}
	}
	return nil
}
