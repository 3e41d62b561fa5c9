package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

//go:embed migrations.sql
var migrationSQL string

// OpenPostgres opens and pings a Postgres database.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the cart_kv table if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, migrationSQL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// PostgresStore is an Adapter backed by the cart_kv table, scoped to one namespace.
type PostgresStore struct {
	DB        *sql.DB
	namespace string
}

// NewPostgresStore binds db to a namespace (device id).
func NewPostgresStore(db *sql.DB, namespace string) *PostgresStore {
	return &PostgresStore{DB: db, namespace: namespace}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM cart_kv WHERE namespace=$1 AND item_key=$2`,
		s.namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap(OpGet, key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO cart_kv (namespace, item_key, value, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (namespace, item_key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		s.namespace, key, value)
	return wrap(OpSet, key, err)
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM cart_kv WHERE namespace=$1 AND item_key=$2`, s.namespace, key)
	return wrap(OpRemove, key, err)
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM cart_kv WHERE namespace=$1`, s.namespace)
	return wrap(OpClear, "", err)
}
