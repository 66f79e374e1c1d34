package lib

import (
	"context"
	"fmt"

	"github.com/theleywin/talent-nest-network/src/store"
	"github.com/theleywin/talent-nest-network/src/store/mongostore"
	"github.com/theleywin/talent-nest-network/src/store/sqlstore"
)

// ConnectDB opens the configured backend.
func ConnectDB(ctx context.Context, cfg DatabaseConfig) (store.Store, error) {
	switch cfg.Driver {
	case "mongo":
		return mongostore.Open(ctx, mongostore.Config{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDatabase,
			Transactions:   cfg.MongoTransactions,
			ConnectTimeout: cfg.ConnectTimeout,
		})
	case "sqlite":
		return sqlstore.Open(sqlstore.Config{Path: cfg.SQLitePath})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
