package server

import (
	"strings"
	"time"
)

// Config holds HTTP surface settings.
type Config struct {
	// BasePath prefixes every tether route.
	// Default: "/tether".
	BasePath string

	// MetricsPath is where prometheus metrics are served when a gatherer is
	// configured.
	// Default: "/metrics".
	MetricsPath string

	// Debounce is how long the browser waits after the last change to a
	// field before sending it. It is passed to the script unchanged.
	// Default: 300ms.
	Debounce time.Duration

	// MaxBodySize limits posted message bodies.
	// Default: 64KB.
	MaxBodySize int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:    "/tether",
		MetricsPath: "/metrics",
		Debounce:    300 * time.Millisecond,
		MaxBodySize: 64 * 1024,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BasePath == "" {
		c.BasePath = d.BasePath
	}
	c.BasePath = "/" + strings.Trim(c.BasePath, "/")
	if c.BasePath == "/" {
		c.BasePath = ""
	}
	if c.MetricsPath == "" {
		c.MetricsPath = d.MetricsPath
	}
	if c.Debounce <= 0 {
		c.Debounce = d.Debounce
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = d.MaxBodySize
	}
	return c
}
