package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/vango-dev/tether/internal/config"
	"github.com/vango-dev/tether/internal/errors"
	"github.com/vango-dev/tether/pkg/server"
	"github.com/vango-dev/tether/pkg/snapshot"
	"github.com/vango-dev/tether/pkg/transport/hub"
)

// connectTimeout bounds the startup checks against redis and storage.
const connectTimeout = 10 * time.Second

// loadConfig loads path, or ./tether.yaml when path is empty and the file
// exists, or defaults and the environment otherwise.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.ConfigFileName); err == nil {
			path = config.ConfigFileName
		}
	}
	return config.Load(path)
}

func serverConfig(cfg *config.Config) server.Config {
	return server.Config{
		BasePath:    cfg.Server.BasePath,
		MetricsPath: cfg.Server.MetricsPath,
		Debounce:    cfg.Debounce,
		MaxBodySize: cfg.Server.MaxBodySize,
	}
}

func hubConfig(cfg *config.Config) *hub.Config {
	return &hub.Config{
		Channel:        cfg.Channel,
		ReadTimeout:    cfg.WebSocket.ReadTimeout,
		WriteTimeout:   cfg.WebSocket.WriteTimeout,
		PingInterval:   cfg.WebSocket.PingInterval,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		SendBuffer:     cfg.WebSocket.SendBuffer,
		RateLimit:      rate.Limit(cfg.RateLimit.PerSecond),
		RateBurst:      cfg.RateLimit.Burst,
	}
}

// openRedis returns nil when neither the transport nor the snapshot store
// uses redis.
func openRedis(ctx context.Context, cfg *config.Config) (redis.UniversalClient, error) {
	if cfg.Transport.Driver != config.TransportRedis && cfg.Snapshot.Driver != config.SnapshotRedis {
		return nil, nil
	}
	r := cfg.Transport.Redis
	client := redis.NewClient(&redis.Options{
		Addr:     r.Addr,
		Password: r.Password,
		DB:       r.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.New("E301").
			WithDetail("redis at " + r.Addr + " did not answer PING").
			WithSuggestion("Check transport.redis.addr or set transport.driver to hub").
			Wrap(err)
	}
	return client, nil
}

// openStore returns nil when snapshots are disabled. rdb is required by
// the redis driver.
func openStore(ctx context.Context, cfg *config.Config, rdb redis.UniversalClient) (snapshot.Store, error) {
	sc := cfg.Snapshot
	switch sc.Driver {
	case config.SnapshotNone:
		return nil, nil

	case config.SnapshotMemory:
		return snapshot.NewMemoryStore(), nil

	case config.SnapshotPebble:
		store, err := snapshot.OpenPebble(sc.Pebble.Path)
		if err != nil {
			return nil, errors.New("E303").
				WithDetail("Failed to open " + sc.Pebble.Path).
				WithSuggestion("Only one process can open a Pebble database at a time").
				Wrap(err)
		}
		return store, nil

	case config.SnapshotPostgres:
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		store, err := snapshot.ConnectPostgres(ctx, sc.Postgres.URL, sc.Postgres.Table)
		if err != nil {
			return nil, errors.New("E302").
				WithSuggestion("Check snapshot.postgres.url or TETHER_POSTGRES_URL").
				Wrap(err)
		}
		return store, nil

	case config.SnapshotS3:
		client := snapshot.NewS3Client(snapshot.S3Options{
			Region:    sc.S3.Region,
			Endpoint:  sc.S3.Endpoint,
			AccessKey: sc.S3.AccessKey,
			SecretKey: sc.S3.SecretKey,
		})
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(sc.S3.Bucket)}); err != nil {
			return nil, errors.New("E304").
				WithDetail("HeadBucket " + sc.S3.Bucket + " failed").
				WithSuggestion("Check the bucket name, region and credentials").
				Wrap(err)
		}
		return snapshot.NewS3Store(client, sc.S3.Bucket, sc.S3.Prefix), nil

	case config.SnapshotRedis:
		if rdb == nil {
			return nil, errors.New("E107").WithSuggestion("Set transport.redis.addr or TETHER_REDIS_ADDR")
		}
		return snapshot.NewRedisStore(rdb, cfg.Transport.Redis.Prefix+"snapshot:", 0), nil
	}
	return nil, errors.New("E105").WithDetail("snapshot.driver is " + quote(sc.Driver))
}
