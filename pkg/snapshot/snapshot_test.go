package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/redis/go-redis/v9"
)

func sampleState() State {
	return State{
		"title": json.RawMessage(`"hello"`),
		"count": json.RawMessage(`3`),
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Save(ctx, "room", sampleState()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load(ctx, "room")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got["title"]) != `"hello"` || string(got["count"]) != `3` {
		t.Errorf("Load() = %v", got)
	}

	// Overwrite
	if err := s.Save(ctx, "room", State{"count": json.RawMessage(`4`)}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, _ = s.Load(ctx, "room")
	if len(got) != 1 || string(got["count"]) != `4` {
		t.Errorf("Load() after overwrite = %v", got)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestPebbleStore(t *testing.T) {
	s, err := OpenPebble(t.TempDir())
	if err != nil {
		t.Fatalf("OpenPebble() error = %v", err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestPebbleStoreReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenPebble(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.Background(), "room", sampleState()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenPebble(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.Load(context.Background(), "room")
	if err != nil {
		t.Fatalf("Load() after reopen error = %v", err)
	}
	if string(got["title"]) != `"hello"` {
		t.Errorf("title = %s", got["title"])
	}
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{objects: make(map[string][]byte)}
	s := NewS3Store(fake, "bucket", "tether/")
	testStore(t, s)

	if len(fake.puts) == 0 {
		t.Fatal("no PutObject calls")
	}
	in := fake.puts[0]
	if aws.ToString(in.Key) != "tether/room.json" {
		t.Errorf("Key = %q, want %q", aws.ToString(in.Key), "tether/room.json")
	}
	if aws.ToString(in.ContentType) != "application/json" {
		t.Errorf("ContentType = %q", aws.ToString(in.ContentType))
	}
}

type fakeRedis struct {
	mu   sync.Mutex
	keys map[string]string
	ttls map[string]time.Duration
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.keys[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func TestRedisStore(t *testing.T) {
	fake := &fakeRedis{keys: map[string]string{}, ttls: map[string]time.Duration{}}
	testStore(t, NewRedisStore(fake, "", time.Hour))

	if _, ok := fake.keys[DefaultRedisPrefix+"room"]; !ok {
		t.Errorf("keys = %v, want %q", fake.keys, DefaultRedisPrefix+"room")
	}
	if ttl := fake.ttls[DefaultRedisPrefix+"room"]; ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", ttl)
	}
}

func TestNewPostgresStoreRejectsBadTable(t *testing.T) {
	for _, name := range []string{"drop table x;", "1abc", "a-b"} {
		if _, err := NewPostgresStore(nil, name); err == nil {
			t.Errorf("NewPostgresStore(%q) expected error", name)
		}
	}
	s, err := NewPostgresStore(nil, "")
	if err != nil {
		t.Fatalf("NewPostgresStore(\"\") error = %v", err)
	}
	if s.table != `"tether_snapshots"` {
		t.Errorf("table = %s", s.table)
	}
}

type countingStore struct {
	*MemoryStore
	saves atomic.Int32
	err   error
}

func (c *countingStore) Save(ctx context.Context, channel string, st State) error {
	c.saves.Add(1)
	if c.err != nil {
		return c.err
	}
	return c.MemoryStore.Save(ctx, channel, st)
}

func TestWriterCoalesces(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	var n atomic.Int32
	capture := func() (State, error) {
		n.Add(1)
		return sampleState(), nil
	}
	w := NewWriter(store, "room", capture, WithInterval(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	for i := 0; i < 10; i++ {
		w.MarkDirty()
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.saves.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(60 * time.Millisecond)
	cancel()
	<-done

	if got := store.saves.Load(); got != 1 {
		t.Errorf("saves = %d, want 1", got)
	}
	if _, err := store.Load(context.Background(), "room"); err != nil {
		t.Errorf("Load() error = %v", err)
	}
}

func TestWriterFlushObserver(t *testing.T) {
	boom := errors.New("boom")
	store := &countingStore{MemoryStore: NewMemoryStore(), err: boom}

	var gotChannel string
	var gotErr error
	w := NewWriter(store, "room", func() (State, error) { return sampleState(), nil },
		WithObserver(func(channel string, err error) {
			gotChannel, gotErr = channel, err
		}))

	if err := w.Flush(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Flush() error = %v, want boom", err)
	}
	if gotChannel != "room" || !errors.Is(gotErr, boom) {
		t.Errorf("observer got (%q, %v)", gotChannel, gotErr)
	}
}

func TestWriterCaptureError(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	boom := errors.New("capture")
	w := NewWriter(store, "room", func() (State, error) { return nil, boom })
	if err := w.Flush(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Flush() error = %v, want capture error", err)
	}
	if store.saves.Load() != 0 {
		t.Error("Save should not run when capture fails")
	}
}
