package infra

import (
	"fmt"

	"distillery/internal/config"
	"distillery/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the ledger store with the configured driver, installs the
// tracing plugin when enabled and brings the schema up to date.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)

	if cfg.DBTracing {
		if err := db.Use(otelgorm.NewPlugin()); err != nil {
			log.Warn().Err(err).Msg("db connected but failed to install otelgorm plugin")
		}
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "", "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// RunMigrations creates or updates the ledger tables, then applies the
// idempotent patches AutoMigrate cannot express.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Item{},
		&model.Lot{},
		&model.InventoryTxn{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches adds the constraints that keep the ledger honest at the
// storage level. Each statement is guarded so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	patches := []string{
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_inventory_transactions_quantity_positive') THEN
		    ALTER TABLE inventory_transactions
		      ADD CONSTRAINT chk_inventory_transactions_quantity_positive CHECK (quantity > 0);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_inventory_transactions_type') THEN
		    ALTER TABLE inventory_transactions
		      ADD CONSTRAINT chk_inventory_transactions_type
		      CHECK (txn_type IN ('RECEIVE','PRODUCE','CONSUME','TRANSFER','DESTROY','ADJUST','ADJUST_UP'));
		  END IF;
		END $$`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_transactions_lot
		    ON inventory_transactions (organization_id, item_id, lot_id)
		    WHERE lot_id IS NOT NULL`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
