package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PratikDhanave/utm-receiver/internal/logging"
	"github.com/PratikDhanave/utm-receiver/internal/models"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

var (
	// ErrNotInitialized is returned when the store has no pool, either because
	// it was never created or because Close already ran.
	ErrNotInitialized = errors.New("store: connection pool not initialized")

	// ErrNotFound is returned by GetClick for an unknown id.
	ErrNotFound = errors.New("store: click not found")
)

// logger is resolved per call so it follows logging.Init at startup.
func logger() *slog.Logger { return logging.Component("store") }

// PostgresStore is the append-only persistence layer for UTM clicks.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
// maxConns <= 0 keeps the pgxpool default.
func NewPostgresStore(dbURL string, maxConns int32) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	logger().Info("connecting to PostgreSQL",
		"database", poolCfg.ConnConfig.Database,
		"host", poolCfg.ConnConfig.Host,
		"user", poolCfg.ConnConfig.User,
		"max_conns", poolCfg.MaxConns,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger().Info("database connection pool created")
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql and then checks the table is readable.
// Safe to run on every startup.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if p == nil || p.pool == nil {
		return ErrNotInitialized
	}

	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		logger().Error("utm_clicks table creation failed", logging.ErrorAttrs(err)...)
		return fmt.Errorf("create utm_clicks: %w", err)
	}
	logger().Info("utm_clicks table creation check completed")

	if _, err := p.pool.Exec(ctx, `SELECT 1 FROM utm_clicks LIMIT 1`); err != nil {
		logger().Error("utm_clicks table verification failed", logging.ErrorAttrs(err)...)
		return fmt.Errorf("verify utm_clicks: %w", err)
	}
	logger().Info("utm_clicks table exists and is accessible")

	return nil
}

// Ping is used by readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	if p == nil || p.pool == nil {
		return ErrNotInitialized
	}
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool. It is a no-op on a nil or closed store.
func (p *PostgresStore) Close() {
	if p == nil || p.pool == nil {
		return
	}
	p.pool.Close()
	p.pool = nil
}

// AppendClick inserts one utm_clicks row and returns it with the
// database-assigned id and created_at. Failures are logged and returned as-is
// (wrapped); nothing is retried.
func (p *PostgresStore) AppendClick(ctx context.Context, in models.NewClick) (models.Click, error) {
	if p == nil || p.pool == nil {
		return models.Click{}, ErrNotInitialized
	}

	params := in.Params
	if params == nil {
		params = map[string]string{}
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return models.Click{}, err
	}

	out := models.Click{
		Params:        params,
		ClientAddress: in.ClientAddress,
		UserAgent:     in.UserAgent,
		Referrer:      in.Referrer,
	}

	err = p.pool.QueryRow(ctx, `
		INSERT INTO utm_clicks (utm_params, ip_address, user_agent, referrer, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`, paramsJSON, in.ClientAddress, in.UserAgent, in.Referrer).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		attrs := logging.ErrorAttrs(err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			attrs = append(attrs, "sqlstate", pgErr.Code)
		}
		logger().Error("database insert failed", attrs...)
		return models.Click{}, fmt.Errorf("insert utm_click: %w", err)
	}

	logger().Debug("inserted utm click", "id", out.ID)
	return out, nil
}

// GetClick reads a single click back by id.
func (p *PostgresStore) GetClick(ctx context.Context, id int64) (models.Click, error) {
	if p == nil || p.pool == nil {
		return models.Click{}, ErrNotInitialized
	}

	// host() drops the /32 or /128 netmask that inet::text would carry.
	c := models.Click{ID: id}
	err := p.pool.QueryRow(ctx, `
		SELECT utm_params, host(ip_address), COALESCE(user_agent, ''), COALESCE(referrer, ''), created_at
		FROM utm_clicks
		WHERE id = $1
	`, id).Scan(&c.Params, &c.ClientAddress, &c.UserAgent, &c.Referrer, &c.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return models.Click{}, ErrNotFound
	}
	if err != nil {
		return models.Click{}, fmt.Errorf("select utm_click: %w", err)
	}
	return c, nil
}
