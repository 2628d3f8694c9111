package loaders

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresClient struct {
	dsn  string
	pool *pgxpool.Pool
}

// RelayUsageRow is one relay call as stored in relay_usage. Conversation text
// is never stored.
type RelayUsageRow struct {
	ID               string
	RequestID        string
	TurnCount        int
	PromptChars      int
	ResponseChars    int
	PromptTokens     int
	CompletionTokens int
	LatencyMs        int64
	Outcome          string
	CreatedAt        time.Time
}

const createRelayUsageTable = `
CREATE TABLE IF NOT EXISTS relay_usage (
    id                TEXT PRIMARY KEY,
    request_id        TEXT,
    turn_count        INTEGER NOT NULL,
    prompt_chars      INTEGER NOT NULL,
    response_chars    INTEGER NOT NULL,
    prompt_tokens     INTEGER NOT NULL DEFAULT 0,
    completion_tokens INTEGER NOT NULL DEFAULT 0,
    latency_ms        BIGINT NOT NULL,
    outcome           TEXT NOT NULL,
    created_at        TIMESTAMPTZ NOT NULL
)`

func NewPostgresClient(dsn string, workerCount, batchSize int) (*PostgresClient, error) {
	client := &PostgresClient{
		dsn: dsn,
	}

	pool, err := client.createConnectionPool(workerCount)
	if err != nil {
		return nil, err
	}

	client.pool = pool
	log.Printf("Successfully connected to PostgreSQL database (batch size %d)", batchSize)
	return client, nil
}

func (c *PostgresClient) createConnectionPool(workerCount int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Postgres DSN: %w", err)
	}

	cfg.MaxConns = int32(workerCount) + 2
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = 60 * time.Minute
	cfg.MaxConnIdleTime = 15 * time.Minute

	log.Printf("Creating Postgres connection pool with MaxConns=%d", cfg.MaxConns)
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, createRelayUsageTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create relay_usage table: %w", err)
	}

	log.Println("Postgres connection pool established successfully")
	return pool, nil
}

func (c *PostgresClient) Close() error {
	if c.pool != nil {
		c.pool.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// BatchInsertRelayUsage inserts rows in a single round trip.
func (c *PostgresClient) BatchInsertRelayUsage(ctx context.Context, rows []RelayUsageRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `
        INSERT INTO relay_usage (
            id, request_id, turn_count, prompt_chars, response_chars,
            prompt_tokens, completion_tokens, latency_ms, outcome, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (id) DO NOTHING
    `

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(query,
			r.ID,
			r.RequestID,
			r.TurnCount,
			r.PromptChars,
			r.ResponseChars,
			r.PromptTokens,
			r.CompletionTokens,
			r.LatencyMs,
			r.Outcome,
			r.CreatedAt.UTC(),
		)
	}

	results := c.pool.SendBatch(ctx, batch)
	defer results.Close()

	failed := 0
	for range rows {
		if _, err := results.Exec(); err != nil {
			log.Printf("Failed to insert relay usage row: %v", err)
			failed++
		}
	}
	if failed == len(rows) {
		return fmt.Errorf("failed to insert any relay usage rows")
	}
	return nil
}
