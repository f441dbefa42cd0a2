package tether

import (
	"io/fs"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/vango-dev/tether/pkg/server"
	"github.com/vango-dev/tether/pkg/snapshot"
	"github.com/vango-dev/tether/pkg/transport/hub"
	"github.com/vango-dev/tether/pkg/wirename"
)

// DefaultShutdownTimeout bounds graceful shutdown in Run.
const DefaultShutdownTimeout = 10 * time.Second

// Options configures an App. The zero value serves a single-node app with
// no persistence.
type Options struct {
	// Server configures the HTTP routes.
	// Default: server.DefaultConfig().
	Server server.Config

	// Hub configures websocket connections.
	// Default: hub.DefaultConfig().
	Hub *hub.Config

	// Redis, when set, fans broadcasts out to every node sharing the
	// server through redis pub/sub.
	Redis redis.UniversalClient

	// RedisPrefix prefixes the pub/sub channels.
	// Default: redisbus.DefaultPrefix.
	RedisPrefix string

	// Store, when set, persists every bound model.
	Store snapshot.Store

	// SnapshotInterval limits how often a model is saved.
	// Default: snapshot.DefaultInterval.
	SnapshotInterval time.Duration

	// ShutdownTimeout bounds graceful shutdown in Run.
	// Default: 10s.
	ShutdownTimeout time.Duration

	// Static serves pages and assets for requests no tether route claims.
	Static fs.FS

	// Logger is the structured logger.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Registry receives the tether collectors and is served on the metrics
	// path. If nil, a new registry is created.
	Registry *prometheus.Registry

	// Names maps field names to wire names.
	// Default: wirename.Default.
	Names *wirename.Table
}
