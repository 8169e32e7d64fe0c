package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ProductCatalogTable is the fully qualified catalog table.
const ProductCatalogTable = "bedrock_integration.product_catalog"

// CatalogStore handles all read-only catalog queries against Postgres.
type CatalogStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCatalogStore opens a connection and returns a store instance.
func NewCatalogStore(databaseURL string, logger *zap.Logger) (*CatalogStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewCatalogStoreFromDB(db, logger), nil
}

// NewCatalogStoreFromDB wraps an existing connection pool.
func NewCatalogStoreFromDB(db *sql.DB, logger *zap.Logger) *CatalogStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogStore{db: db, logger: logger.Named("catalog")}
}

// Close closes the database connection.
func (s *CatalogStore) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *CatalogStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
