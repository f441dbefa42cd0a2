package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the Postgres table used when none is configured.
const DefaultTable = "tether_snapshots"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// PostgresStore is a Store backed by a Postgres table with one row per
// channel.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore returns a store writing to table through pool.
func NewPostgresStore(pool *pgxpool.Pool, table string) (*PostgresStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("snapshot: invalid table name %q", table)
	}
	return &PostgresStore{pool: pool, table: pgx.Identifier{table}.Sanitize()}, nil
}

// ConnectPostgres opens a pool for url and returns a store on table after
// creating the table if needed.
func ConnectPostgres(ctx context.Context, url, table string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	s, err := NewPostgresStore(pool, table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the snapshot table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+s.table+` (
		channel    TEXT PRIMARY KEY,
		state      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return err
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, channel string) (State, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM `+s.table+` WHERE channel = $1`, channel).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeState(data)
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, channel string, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO `+s.table+` (channel, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (channel) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		channel, data)
	return err
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
