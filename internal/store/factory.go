package store

import (
	"fmt"

	"github.com/suteetoe/commerce-directory/pkg/config"
	"github.com/suteetoe/commerce-directory/pkg/database"
	"go.uber.org/zap"
)

// New opens the backend selected by cfg.Store.Driver. The postgres backend
// is migrated before it is returned.
func New(cfg *config.Config, log *zap.Logger) (Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		log.Warn("Using in-memory store, data is lost on restart")
		return NewMemoryStore(), nil
	case config.StoreDriverPostgres:
		db, err := database.InitDB(&cfg.DB, log)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := database.MigrateModels(db, Models()...); err != nil {
			return nil, err
		}
		log.Info("Database migrations completed successfully")
		return NewGormStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
