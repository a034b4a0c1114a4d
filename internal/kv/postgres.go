package kv

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const postgresTimeout = 5 * time.Second

// Postgres implements a medium on a shared PostgreSQL database.
// Keys are prefixed with a namespace so that several terminals can share one table.
type Postgres struct {
	pool      *pgxpool.Pool
	namespace string
}

// OpenPostgres connects to the database described by dsn.
func OpenPostgres(dsn, namespace string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres storage requires a dsn")
	}
	ctx, cancel := context.WithTimeout(context.Background(), postgresTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to postgres")
	}
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS shopchat_items (
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			update_timestamp BIGINT NOT NULL,
			PRIMARY KEY (namespace, key)
		)
	`)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "creating shopchat_items table")
	}
	return &Postgres{pool: pool, namespace: namespace}, nil
}

// GetItem implements Medium.
func (p *Postgres) GetItem(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), postgresTimeout)
	defer cancel()

	var value string
	err := p.pool.QueryRow(ctx, `
		SELECT value FROM shopchat_items WHERE namespace = $1 AND key = $2
	`, p.namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "querying item")
	}
	return value, true, nil
}

// SetItem implements Medium.
func (p *Postgres) SetItem(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), postgresTimeout)
	defer cancel()

	_, err := p.pool.Exec(ctx, `
		INSERT INTO shopchat_items (namespace, key, value, update_timestamp)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, key) DO UPDATE
		SET value = EXCLUDED.value, update_timestamp = EXCLUDED.update_timestamp
	`, p.namespace, key, value, time.Now().UnixMicro())
	if err != nil {
		return errors.Wrap(err, "writing item")
	}
	return nil
}

// RemoveItem implements Medium.
func (p *Postgres) RemoveItem(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), postgresTimeout)
	defer cancel()

	_, err := p.pool.Exec(ctx, `DELETE FROM shopchat_items WHERE namespace = $1 AND key = $2`, p.namespace, key)
	if err != nil {
		return errors.Wrap(err, "deleting item")
	}
	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
