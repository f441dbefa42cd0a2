package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/tether/pkg/bind"
	"github.com/vango-dev/tether/pkg/protocol"
	"github.com/vango-dev/tether/pkg/transport"
	"github.com/vango-dev/tether/pkg/transport/hub"
)

// ClientHeader carries the client ID on posted messages so the sender is
// skipped by the broadcast.
const ClientHeader = "X-Tether-Client"

// Handler handles one inbound message and returns the reply text.
type Handler func(ctx context.Context, payload []byte) string

// Server routes inbound messages to handlers and serves bound models.
type Server struct {
	config   Config
	logger   *slog.Logger
	hub      *hub.Hub
	gatherer prometheus.Gatherer

	mu       sync.RWMutex
	handlers map[string]map[string]Handler // channel -> message -> handler
	bindings map[string]*bind.Binding

	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHub serves h on {base}/ws and makes the server its dispatcher.
func WithHub(h *hub.Hub) Option {
	return func(s *Server) { s.hub = h }
}

// WithGatherer serves g on the metrics path.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New returns a Server.
func New(cfg Config, opts ...Option) *Server {
	s := &Server{
		config:   cfg.withDefaults(),
		logger:   slog.Default(),
		handlers: make(map[string]map[string]Handler),
		bindings: make(map[string]*bind.Binding),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hub != nil {
		s.hub.SetDispatcher(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	base := s.config.BasePath
	r.Get(base+"/{channel}.js", s.serveScript)
	r.Post(base+"/{channel}/{message}", s.serveMessage)
	if s.hub != nil {
		r.Get(base+"/ws", s.hub.ServeHTTP)
	}
	if s.gatherer != nil {
		r.Method(http.MethodGet, s.config.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Owns reports whether path is reserved for the server's routes: the base
// path and everything below it, and the metrics path. With an empty base
// path only the websocket and metrics paths are reserved.
func (s *Server) Owns(path string) bool {
	if s.gatherer != nil && path == s.config.MetricsPath {
		return true
	}
	base := s.config.BasePath
	if base == "" {
		return s.hub != nil && path == "/ws"
	}
	return path == base || strings.HasPrefix(path, base+"/")
}

// Router returns the chi router so applications can add routes.
func (s *Server) Router() chi.Router {
	return s.router
}

// Handle registers h for message on channel, replacing any previous
// handler.
func (s *Server) Handle(channel, message string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.handlers[channel]
	if msgs == nil {
		msgs = make(map[string]Handler)
		s.handlers[channel] = msgs
	}
	msgs[message] = h
}

// Mount serves b's script and routes its channel's edits to it.
func (s *Server) Mount(b *bind.Binding) {
	s.Handle(b.Channel(), protocol.MessageWatchers, b.Handle)
	s.mu.Lock()
	s.bindings[b.Channel()] = b
	s.mu.Unlock()
	s.logger.Info("model mounted", "channel", b.Channel())
}

// Unmount removes the binding and handlers of channel.
func (s *Server) Unmount(channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, channel)
	delete(s.handlers, channel)
}

// Binding returns the binding mounted on channel.
func (s *Server) Binding(channel string) (*bind.Binding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bindings[channel]
	return b, ok
}

// Dispatch routes env to its handler. It implements hub.Dispatcher.
func (s *Server) Dispatch(ctx context.Context, env protocol.Envelope) (string, error) {
	s.mu.RLock()
	h := s.handlers[env.Channel][env.Message]
	s.mu.RUnlock()
	if h == nil {
		return "", &RouteError{Channel: env.Channel, Message: env.Message, Err: ErrNoHandler}
	}
	return h(ctx, env.Payload), nil
}

func (s *Server) serveScript(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	b, ok := s.Binding(channel)
	if !ok {
		http.NotFound(w, r)
		return
	}
	script, err := s.Script(b)
	if err != nil {
		s.logger.Error("script render failed", "channel", channel, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(script)
}

func (s *Server) serveMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodySize))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	env, err := protocol.DecodeEnvelope(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	env.Channel = chi.URLParam(r, "channel")
	env.Message = chi.URLParam(r, "message")

	ctx := r.Context()
	if id := strings.TrimSpace(r.Header.Get(ClientHeader)); id != "" {
		ctx = transport.WithClient(ctx, transport.ClientID(id))
	}
	reply, err := s.Dispatch(ctx, env)
	if errors.Is(err, ErrNoHandler) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, reply)
}

// ListenAndServe serves on addr until ctx is done, then shuts down within
// timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, timeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "address", addr, "base_path", s.config.BasePath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if s.hub != nil {
		s.hub.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
