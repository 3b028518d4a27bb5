package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nxt3d/smart-credentials/pkg/domain"
)

// Schema for the Postgres backend. One table holds every region of every
// instance; the composite primary key is the isolation boundary.
const Schema = `
CREATE TABLE IF NOT EXISTS credential_records (
    instance_addr TEXT  NOT NULL,
    namespace     BYTEA NOT NULL,
    record_key    BYTEA NOT NULL,
    record_value  BYTEA NOT NULL,
    PRIMARY KEY (instance_addr, namespace, record_key)
);
`

// PostgresStore is a Postgres-backed Store scoped to a single instance
// address.
type PostgresStore struct {
	pool     *pgxpool.Pool
	instance domain.Address
}

// NewPostgresStore constructs a Postgres-backed store for one instance.
func NewPostgresStore(pool *pgxpool.Pool, instance domain.Address) *PostgresStore {
	return &PostgresStore{pool: pool, instance: instance}
}

// NewPostgresProvider returns a Provider that scopes stores onto one shared
// pool by instance address.
func NewPostgresProvider(pool *pgxpool.Pool) Provider {
	return ProviderFunc(func(instance domain.Address) Store {
		return NewPostgresStore(pool, instance)
	})
}

// EnsureSchema creates the backing table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure credential_records schema: %w", err)
	}
	return nil
}

// Get returns the stored value, or a zero-length slice when absent.
func (s *PostgresStore) Get(ctx context.Context, ns Namespace, key []byte) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record_value FROM credential_records
		 WHERE instance_addr = $1 AND namespace = $2 AND record_key = $3`,
		string(s.instance), ns[:], key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return []byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get: %w", err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Set upserts the key unconditionally (last write wins).
func (s *PostgresStore) Set(ctx context.Context, ns Namespace, key []byte, value []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO credential_records (instance_addr, namespace, record_key, record_value)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (instance_addr, namespace, record_key)
		 DO UPDATE SET record_value = EXCLUDED.record_value`,
		string(s.instance), ns[:], key, value,
	)
	if err != nil {
		return fmt.Errorf("postgres set: %w", err)
	}
	return nil
}
