package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/tether/pkg/bind"
	"github.com/vango-dev/tether/pkg/protocol"
	"github.com/vango-dev/tether/pkg/reactive"
	"github.com/vango-dev/tether/pkg/telemetry"
	"github.com/vango-dev/tether/pkg/transport/hub"
	"github.com/vango-dev/tether/pkg/transport/transporttest"
	"github.com/vango-dev/tether/pkg/wirename"
)

type note struct {
	Title reactive.Reactive[string] `tether:"title"`
	Stars reactive.Reactive[int]    `tether:"stars"`
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func mounted(t *testing.T, opts ...Option) (*Server, *note, *transporttest.Recorder) {
	t.Helper()
	rec := transporttest.NewRecorder()
	rec.Connect("A", "notes")
	rec.Connect("B", "notes")

	m := &note{}
	m.Title.Set("hi")
	b, err := bind.New(m, rec, bind.WithChannel("notes"), bind.WithLogger(quiet), bind.WithNames(&wirename.Table{}))
	if err != nil {
		t.Fatal(err)
	}
	s := New(Config{}, append([]Option{WithLogger(quiet)}, opts...)...)
	s.Mount(b)
	return s, m, rec
}

func TestServeScript(t *testing.T) {
	s, _, _ := mounted(t)

	req := httptest.NewRequest(http.MethodGet, "/tether/notes.js", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`var channel = "notes";`,
		`var debounce = 300;`,
		`var wsPath = "/tether/ws";`,
		`"el":undefined`,
		`"data":{"title":"hi","stars":0}`,
		`tether.mixins["tetherWatcher"]`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("script missing %s", want)
		}
	}
}

func TestServeScriptUnknownChannel(t *testing.T) {
	s, _, _ := mounted(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tether/missing.js", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPostMessage(t *testing.T) {
	s, m, tr := mounted(t)
	tr.Reset()

	body := `{"payload":{"field":"stars","newval":4,"oldval":0}}`
	req := httptest.NewRequest(http.MethodPost, "/tether/notes/watchers", strings.NewReader(body))
	req.Header.Set(ClientHeader, "A")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != protocol.Ack {
		t.Fatalf("response = %d %q, want 200 OK", rec.Code, rec.Body.String())
	}
	if got := m.Stars.Get(); got != 4 {
		t.Errorf("Stars = %d, want 4", got)
	}
	casts := tr.Broadcasts()
	if len(casts) != 2 || casts[0].Except != "A" {
		t.Errorf("broadcasts = %+v", casts)
	}
}

func TestPostMessageErrors(t *testing.T) {
	s, _, _ := mounted(t)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown message", "/tether/notes/other", `{"payload":{}}`, http.StatusNotFound},
		{"unknown channel", "/tether/nope/watchers", `{"payload":{}}`, http.StatusNotFound},
		{"invalid json", "/tether/notes/watchers", `{`, http.StatusBadRequest},
		{"invalid edit still acks", "/tether/notes/watchers", `{"payload":{"newval":1}}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestPostMessageBodyLimit(t *testing.T) {
	rec := transporttest.NewRecorder()
	s := New(Config{MaxBodySize: 16}, WithLogger(quiet))
	s.Handle(rec.DefaultChannel(), "x", func(context.Context, []byte) string { return protocol.Ack })

	w := httptest.NewRecorder()
	body := `{"payload":"` + strings.Repeat("a", 64) + `"}`
	s.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tether/__/x", strings.NewReader(body)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestDispatch(t *testing.T) {
	s := New(Config{}, WithLogger(quiet))
	var got []byte
	s.Handle("c", "m", func(_ context.Context, payload []byte) string {
		got = payload
		return "done"
	})

	reply, err := s.Dispatch(context.Background(), protocol.Envelope{Channel: "c", Message: "m", Payload: []byte(`1`)})
	if err != nil || reply != "done" || string(got) != "1" {
		t.Errorf("Dispatch() = %q, %v (payload %s)", reply, err, got)
	}

	_, err = s.Dispatch(context.Background(), protocol.Envelope{Channel: "c", Message: "other"})
	var re *RouteError
	if !errors.As(err, &re) || !errors.Is(err, ErrNoHandler) {
		t.Errorf("Dispatch(unknown) error = %v", err)
	}

	s.Unmount("c")
	if _, err := s.Dispatch(context.Background(), protocol.Envelope{Channel: "c", Message: "m"}); err == nil {
		t.Error("Dispatch() after Unmount expected error")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(telemetry.WithRegistry(reg))
	metrics.RateLimited()

	s := New(Config{}, WithLogger(quiet), WithGatherer(reg))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tether_rate_limited_total 1") {
		t.Errorf("metrics output missing counter:\n%s", rec.Body.String())
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "/tether"},
		{"/sync/", "/sync"},
		{"sync", "/sync"},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := (Config{BasePath: tt.in}).withDefaults().BasePath; got != tt.want {
			t.Errorf("BasePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOwns(t *testing.T) {
	gathered := New(Config{}, WithGatherer(prometheus.NewRegistry()))
	root := New(Config{BasePath: "/"}, WithHub(hub.New(nil)))

	tests := []struct {
		s    *Server
		path string
		want bool
	}{
		{gathered, "/tether", true},
		{gathered, "/tether/board.js", true},
		{gathered, "/metrics", true},
		{gathered, "/tetherish", false},
		{gathered, "/index.html", false},
		{root, "/ws", true},
		{root, "/board.js", false},
		{root, "/metrics", false},
	}
	for _, tt := range tests {
		if got := tt.s.Owns(tt.path); got != tt.want {
			t.Errorf("Owns(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWebsocketEndToEnd(t *testing.T) {
	h := hub.New(nil, hub.WithLogger(quiet))
	s := New(Config{}, WithLogger(quiet), WithHub(h))

	m := &note{}
	b, err := bind.New(m, h, bind.WithChannel("notes"), bind.WithLogger(quiet), bind.WithNames(&wirename.Table{}))
	if err != nil {
		t.Fatal(err)
	}
	s.Mount(b)

	srv := httptest.NewServer(s)
	defer srv.Close()
	defer h.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tether/ws?channel=notes"
	sender, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer sender.Close()
	other, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()

	deadline := time.Now().Add(2 * time.Second)
	for len(h.Clients("notes")) < 2 {
		if time.Now().After(deadline) {
			t.Fatal("clients did not connect")
		}
		time.Sleep(5 * time.Millisecond)
	}

	msg := `{"channel":"notes","message":"watchers","payload":{"field":"title","newval":"typed","oldval":""}}`
	if err := sender.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatal(err)
	}

	want := `{"key":"title","value":"typed"}`
	for i := 0; i < 2; i++ {
		other.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, got, err := other.ReadMessage()
		if err != nil {
			t.Fatalf("other ReadMessage() error = %v", err)
		}
		if string(got) != want {
			t.Errorf("other got %s, want %s", got, want)
		}
	}

	// The sender only gets the listener echo.
	sender.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, got, err := sender.ReadMessage(); err != nil || string(got) != want {
		t.Fatalf("sender ReadMessage() = %s, %v", got, err)
	}
	sender.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, got, err := sender.ReadMessage(); err == nil {
		t.Errorf("sender got a second message %s", got)
	}

	if m.Title.Get() != "typed" {
		t.Errorf("Title = %q", m.Title.Get())
	}
}
