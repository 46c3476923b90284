package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"appcontext/internal/config"
)

const pingTimeout = 5 * time.Second

var mongoConnect = func(ctx context.Context, opts ...*options.ClientOptions) (*mongo.Client, error) {
	return mongo.Connect(ctx, opts...)
}

// Client owns the long-lived MongoDB connection and the selected database.
// It is safe for concurrent use; nothing is mutated after Connect returns.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// ClientOptions builds driver options for cfg, including the tracing monitor.
func ClientOptions(cfg config.MongoConfig) (*options.ClientOptions, error) {
	if cfg.ConnectionString == "" {
		return nil, config.ErrConnectionStringRequired
	}
	if cfg.DatabaseName == "" {
		return nil, config.ErrDatabaseNameRequired
	}

	opts := options.Client().
		ApplyURI(cfg.ConnectionString).
		SetMonitor(otelmongo.NewMonitor())
	if cfg.ConnectTimeoutSec > 0 {
		timeout := time.Duration(cfg.ConnectTimeoutSec) * time.Second
		opts.SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mongodb options: %w", err)
	}
	return opts, nil
}

// Connect opens a MongoDB client for cfg and verifies connectivity with a short ping.
func Connect(ctx context.Context, cfg config.MongoConfig, log zerolog.Logger) (*Client, error) {
	start := time.Now()

	opts, err := ClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	cli, err := mongoConnect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	c := &Client{client: cli, db: cli.Database(cfg.DatabaseName)}

	if err := c.Ping(ctx); err != nil {
		_ = cli.Disconnect(context.Background())
		log.Error().
			Str("event", "db_connect_failed").
			Str("db_name", cfg.DatabaseName).
			Err(err).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("database unreachable")
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Info().
		Str("event", "db_connect").
		Str("db_name", cfg.DatabaseName).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("database connected")

	return c, nil
}

// ConnectFromProvider reads the connection string and database name from p and connects.
func ConnectFromProvider(ctx context.Context, p config.Provider, log zerolog.Logger) (*Client, error) {
	cfg, err := config.MongoFromProvider(p)
	if err != nil {
		return nil, err
	}
	return Connect(ctx, cfg, log)
}

// Database returns the handle used to resolve collections.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Ping checks connectivity against the primary.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.client.Ping(ctx, readpref.Primary())
}

// Disconnect closes all pooled connections.
func (c *Client) Disconnect(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return err
	}
	return nil
}
