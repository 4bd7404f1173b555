// Package milvus is the storage layer: collection lifecycle, index
// management and all row-level access to the Milvus backend. Every read or
// write goes through Store.WithCollection, which scopes the operation to a
// database-bound connection and a loaded collection.
package milvus

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"go.uber.org/zap"

	"github.com/kuaixun/fusearch/internal/domain"
)

// Config holds connection parameters for the Milvus backend.
type Config struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Store owns all connection state towards Milvus. Because a Milvus session
// carries an implicit "current database" selector, Store keeps one client per
// logical database, each bound to its database at dial time; operations
// against different databases can therefore interleave on one process without
// bleeding into each other's session.
type Store struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	clients map[string]*milvusclient.Client // database name -> bound client
}

// NewStore validates the config and creates a Store. Connections are dialed
// lazily per database; connectivity is verified by EnsureDatabase at startup.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("milvus: address is required")
	}
	return &Store{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[string]*milvusclient.Client),
	}, nil
}

// Close shuts down every database-bound client.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for db, c := range s.clients {
		if err := c.Close(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close client for database %s: %w", db, err)
		}
		delete(s.clients, db)
	}
	return firstErr
}

// client returns the connection bound to the given database, dialing it on
// first use. db == "" selects the server default database.
func (s *Store) client(ctx context.Context, db string) (*milvusclient.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[db]; ok {
		return c, nil
	}

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  s.cfg.Address,
		Username: s.cfg.Username,
		Password: s.cfg.Password,
		DBName:   db,
	})
	if err != nil {
		return nil, fmt.Errorf("dial milvus %s (db=%s): %w: %w", s.cfg.Address, db, domain.ErrStoreUnavailable, err)
	}

	s.logger.Info("Connected to milvus", zap.String("address", s.cfg.Address), zap.String("database", db))
	s.clients[db] = c
	return c, nil
}

// Ping verifies the backend is reachable via the default-database client.
func (s *Store) Ping(ctx context.Context) error {
	c, err := s.client(ctx, "")
	if err != nil {
		return err
	}
	if _, err := c.ListDatabase(ctx, milvusclient.NewListDatabaseOption()); err != nil {
		return fmt.Errorf("ping milvus: %w", err)
	}
	return nil
}

// EnsureDatabase creates the logical database if absent. It never errors on
// "already exists" (including races with concurrent initializers); genuine
// connection failures propagate.
func (s *Store) EnsureDatabase(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("database name is required: %w", domain.ErrInvalidInput)
	}

	// The bootstrap client is bound to the default database: the target may
	// not exist yet.
	c, err := s.client(ctx, "")
	if err != nil {
		return err
	}

	dbs, err := c.ListDatabase(ctx, milvusclient.NewListDatabaseOption())
	if err != nil {
		return fmt.Errorf("list databases: %w", err)
	}
	for _, db := range dbs {
		if db == name {
			return nil
		}
	}

	if err := c.CreateDatabase(ctx, milvusclient.NewCreateDatabaseOption(name)); err != nil {
		if isAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("create database %s: %w", name, err)
	}

	s.logger.Info("Created database", zap.String("database", name))
	return nil
}

// isAlreadyExists matches the backend's duplicate-creation errors so that
// checked-then-create races resolve as success.
func isAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exist") || strings.Contains(msg, "duplicated")
}
