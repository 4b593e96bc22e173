package infra

import (
	"fmt"

	"consigna/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection to PostgreSQL, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates the schema on any GORM dialect used by the service
// (PostgreSQL in production, SQLite for tests and backup snapshots).
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(model.Tablas()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// handle on its own. The statements are valid on both PostgreSQL and SQLite.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// at most one open remito per (cliente, fecha_entrega)
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_remitos_abierto_cliente_fecha
		    ON remitos (cliente_id, fecha_entrega)
		    WHERE fecha_retiro IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_remitos_fecha_entrega
		    ON remitos (fecha_entrega)`,
		`CREATE INDEX IF NOT EXISTS idx_historial_precios_articulo_fecha
		    ON historial_precios (articulo_id, created_at)`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
