package tether

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/tether/pkg/bind"
	"github.com/vango-dev/tether/pkg/server"
	"github.com/vango-dev/tether/pkg/telemetry"
	"github.com/vango-dev/tether/pkg/transport"
	"github.com/vango-dev/tether/pkg/transport/hub"
	"github.com/vango-dev/tether/pkg/transport/redisbus"
	"github.com/vango-dev/tether/pkg/wirename"
)

// App wires the websocket hub, the optional redis bus, the HTTP server and
// snapshot persistence into a single http.Handler.
//
//	app := tether.New(tether.Options{Store: snapshot.NewMemoryStore()})
//	app.Bind(&Form{}, bind.WithChannel("form"))
//	http.ListenAndServe(":8080", app)
type App struct {
	opts    Options
	logger  *slog.Logger
	metrics *telemetry.Metrics

	hub    *hub.Hub
	bus    *redisbus.Bus
	server *server.Server

	mu       sync.Mutex
	bindings map[string]*bind.Binding
	closed   bool
}

// New creates an App from opts.
func New(opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Names == nil {
		opts.Names = wirename.Default
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}

	a := &App{
		opts:     opts,
		logger:   opts.Logger,
		metrics:  telemetry.NewMetrics(telemetry.WithRegistry(opts.Registry)),
		bindings: make(map[string]*bind.Binding),
	}

	a.hub = hub.New(opts.Hub,
		hub.WithLogger(a.logger),
		hub.WithMetrics(a.metrics),
	)
	if opts.Redis != nil {
		busOpts := []redisbus.Option{redisbus.WithLogger(a.logger)}
		if opts.RedisPrefix != "" {
			busOpts = append(busOpts, redisbus.WithPrefix(opts.RedisPrefix))
		}
		a.bus = redisbus.New(opts.Redis, a.hub, busOpts...)
	}
	a.server = server.New(opts.Server,
		server.WithLogger(a.logger),
		server.WithHub(a.hub),
		server.WithGatherer(opts.Registry),
	)
	return a
}

// Transport returns the transport bindings broadcast through: the redis
// bus when one is configured, otherwise the local hub.
func (a *App) Transport() transport.Transport {
	if a.bus != nil {
		return a.bus
	}
	return a.hub
}

// Hub returns the websocket hub.
func (a *App) Hub() *hub.Hub {
	return a.hub
}

// Server returns the HTTP server, for adding handlers and routes.
func (a *App) Server() *server.Server {
	return a.server
}

// Bind binds m to a channel and serves it. The app's logger, metrics, wire
// names and snapshot store apply unless opts override them. Binding a
// channel that is already bound closes the previous binding first.
func (a *App) Bind(m any, opts ...bind.Option) (*bind.Binding, error) {
	all := []bind.Option{
		bind.WithLogger(a.logger),
		bind.WithMetrics(a.metrics),
		bind.WithNames(a.opts.Names),
	}
	if a.opts.Store != nil {
		all = append(all, bind.WithSnapshots(a.opts.Store, a.opts.SnapshotInterval))
	}
	all = append(all, opts...)

	channel := a.channelOf(opts)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, bind.ErrClosed
	}
	if prev, ok := a.bindings[channel]; ok {
		a.server.Unmount(channel)
		if err := prev.Close(context.Background()); err != nil {
			a.logger.Warn("closing previous binding failed", "channel", channel, "error", err)
		}
		delete(a.bindings, channel)
	}

	b, err := bind.New(m, a.Transport(), all...)
	if err != nil {
		return nil, err
	}
	a.bindings[b.Channel()] = b
	a.server.Mount(b)
	return b, nil
}

// channelOf resolves the channel opts select without binding anything.
func (a *App) channelOf(opts []bind.Option) string {
	if ch := bind.ChannelOf(opts...); ch != "" {
		return ch
	}
	return a.Transport().DefaultChannel()
}

// Unbind closes the binding on channel and stops serving it.
func (a *App) Unbind(ctx context.Context, channel string) error {
	a.mu.Lock()
	b, ok := a.bindings[channel]
	delete(a.bindings, channel)
	a.mu.Unlock()
	if !ok {
		return nil
	}
	a.server.Unmount(channel)
	return b.Close(ctx)
}

// ServeHTTP implements http.Handler. Requests under the base path and the
// metrics path always reach the tether routes; other requests try the
// static files first, if any.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.opts.Static != nil && !a.server.Owns(r.URL.Path) && a.serveStatic(w, r) {
		return
	}
	a.server.ServeHTTP(w, r)
}

// Run serves on addr until ctx is done or serving fails, then closes the
// app. With redis configured, the bus runs alongside the server and a bus
// failure stops both.
func (a *App) Run(ctx context.Context, addr string) error {
	g, ctx := errgroup.WithContext(ctx)
	if a.bus != nil {
		g.Go(func() error {
			return a.bus.Run(ctx)
		})
	}
	g.Go(func() error {
		return a.server.ListenAndServe(ctx, addr, a.opts.ShutdownTimeout)
	})
	err := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), a.opts.ShutdownTimeout)
	defer cancel()
	return errors.Join(err, a.Close(closeCtx))
}

// Close closes every binding, which flushes pending snapshots, then the hub
// and the snapshot store. Close is idempotent.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	bindings := a.bindings
	a.bindings = make(map[string]*bind.Binding)
	a.mu.Unlock()

	var errs []error
	for channel, b := range bindings {
		a.server.Unmount(channel)
		if err := b.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.hub.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.opts.Store != nil {
		if err := a.opts.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
