package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"consigna/internal/dto"
	"consigna/internal/infra"
	"consigna/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const backupLote = 200

// BackupService exports and restores the whole database as a zipped SQLite
// snapshot.
type BackupService interface {
	Estado(ctx context.Context) (*dto.EstadoBackupResponse, error)
	Exportar(ctx context.Context, w io.Writer) error
	Restaurar(ctx context.Context, r io.ReaderAt, size int64) (*dto.RestauracionResponse, error)
}

type backupService struct {
	db  *gorm.DB
	rdb *redis.Client
	now func() time.Time
}

func NewBackupService(db *gorm.DB, rdb *redis.Client) BackupService {
	return &backupService{db: db, rdb: rdb, now: time.Now}
}

type tabler interface {
	TableName() string
}

// ── Snapshot contents ─────────────────────────────────────────────────────────

type datosBackup struct {
	vendedores []model.Vendedor
	rubros     []model.Rubro
	clientes   []model.Cliente
	articulos  []model.Articulo
	remitos    []model.Remito
	items      []model.RemitoItem
	historial  []model.HistorialPrecio
}

type tablaBackup struct {
	nombre string
	filas  interface{}
	n      int
}

// tablas is parents first, in the same order as model.Tablas.
func (d *datosBackup) tablas() []tablaBackup {
	return []tablaBackup{
		{model.Vendedor{}.TableName(), &d.vendedores, len(d.vendedores)},
		{model.Rubro{}.TableName(), &d.rubros, len(d.rubros)},
		{model.Cliente{}.TableName(), &d.clientes, len(d.clientes)},
		{model.Articulo{}.TableName(), &d.articulos, len(d.articulos)},
		{model.Remito{}.TableName(), &d.remitos, len(d.remitos)},
		{model.RemitoItem{}.TableName(), &d.items, len(d.items)},
		{model.HistorialPrecio{}.TableName(), &d.historial, len(d.historial)},
	}
}

func (d *datosBackup) conteos() ([]dto.TablaEstado, int64) {
	var total int64
	out := make([]dto.TablaEstado, 0, 7)
	for _, t := range d.tablas() {
		out = append(out, dto.TablaEstado{Tabla: t.nombre, Registros: int64(t.n)})
		total += int64(t.n)
	}
	return out, total
}

// leerDatos loads every table concurrently.
func leerDatos(ctx context.Context, db *gorm.DB) (*datosBackup, error) {
	d := &datosBackup{}
	g, ctx := errgroup.WithContext(ctx)
	cargar := func(dest interface{}) func() error {
		return func() error {
			return db.WithContext(ctx).Order("id").Find(dest).Error
		}
	}
	g.Go(cargar(&d.vendedores))
	g.Go(cargar(&d.rubros))
	g.Go(cargar(&d.clientes))
	g.Go(cargar(&d.articulos))
	g.Go(cargar(&d.remitos))
	g.Go(cargar(&d.items))
	g.Go(cargar(&d.historial))
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("leyendo tablas: %w", err)
	}
	return d, nil
}

// escribirDatos inserts the snapshot parents first, keeping ids.
func escribirDatos(tx *gorm.DB, d *datosBackup) error {
	for _, t := range d.tablas() {
		if t.n == 0 {
			continue
		}
		if err := tx.Omit(clause.Associations).CreateInBatches(t.filas, backupLote).Error; err != nil {
			return fmt.Errorf("insertando %s: %w", t.nombre, err)
		}
	}
	return nil
}

// ── Operations ────────────────────────────────────────────────────────────────

func (s *backupService) Estado(ctx context.Context) (*dto.EstadoBackupResponse, error) {
	resp := &dto.EstadoBackupResponse{Tablas: make([]dto.TablaEstado, 0, len(model.Tablas()))}
	for _, m := range model.Tablas() {
		var n int64
		if err := s.db.WithContext(ctx).Model(m).Count(&n).Error; err != nil {
			return nil, err
		}
		resp.Tablas = append(resp.Tablas, dto.TablaEstado{Tabla: m.(tabler).TableName(), Registros: n})
		resp.Total += n
	}
	return resp, nil
}

func (s *backupService) Exportar(ctx context.Context, w io.Writer) error {
	datos, err := leerDatos(ctx, s.db)
	if err != nil {
		return err
	}
	secuencias, err := leerSecuencias(ctx, s.db)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "consigna-backup-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, infra.BackupSnapshot)
	snap, err := infra.NewSQLite(path)
	if err != nil {
		return fmt.Errorf("creando snapshot: %w", err)
	}
	err = runTx(ctx, snap, func(tx *gorm.DB) error { return escribirDatos(tx, datos) })
	if sqlDB, dbErr := snap.DB(); dbErr == nil {
		_ = sqlDB.Close()
	}
	if err != nil {
		return fmt.Errorf("escribiendo snapshot: %w", err)
	}

	tablas, total := datos.conteos()
	manifest := infra.ManifestBackup{
		Version:    infra.BackupVersion,
		CreatedAt:  s.now().UTC(),
		Tablas:     make(map[string]int64, len(tablas)),
		Secuencias: secuencias,
	}
	for _, t := range tablas {
		manifest.Tablas[t.Tabla] = t.Registros
	}
	if err := infra.EscribirBackupZip(w, path, manifest); err != nil {
		return err
	}
	log.Info().Int64("registros", total).Msg("backup exportado")
	return nil
}

func (s *backupService) Restaurar(ctx context.Context, r io.ReaderAt, size int64) (*dto.RestauracionResponse, error) {
	dir, err := os.MkdirTemp("", "consigna-restore-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path, manifest, err := infra.ExtraerBackupZip(r, size, dir)
	if err != nil {
		if errors.Is(err, infra.ErrBackupInvalido) {
			return nil, &ValidationError{Fields: map[string]string{"archivo": err.Error()}}
		}
		return nil, err
	}

	snap, err := infra.NewSQLite(path)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"archivo": "snapshot ilegible: " + err.Error()}}
	}
	datos, err := leerDatos(ctx, snap)
	if sqlDB, dbErr := snap.DB(); dbErr == nil {
		_ = sqlDB.Close()
	}
	if err != nil {
		return nil, err
	}

	err = runTx(ctx, s.db, func(tx *gorm.DB) error {
		tablas := model.Tablas()
		for i := len(tablas) - 1; i >= 0; i-- {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(tablas[i]).Error; err != nil {
				return fmt.Errorf("vaciando %s: %w", tablas[i].(tabler).TableName(), err)
			}
		}
		if err := escribirDatos(tx, datos); err != nil {
			return err
		}
		return resetearSecuencias(tx, manifest.Secuencias)
	})
	if err != nil {
		return nil, fmt.Errorf("restaurando backup: %w", err)
	}

	vaciarCachePrecios(ctx, s.rdb)
	tablas, total := datos.conteos()
	log.Info().
		Int64("registros", total).
		Time("creado", manifest.CreatedAt).
		Msg("backup restaurado")
	return &dto.RestauracionResponse{Tablas: tablas, Total: total}, nil
}

// leerSecuencias returns the last id handed out by each PostgreSQL id
// sequence. Other dialects have no sequences and yield nil.
func leerSecuencias(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	if db.Dialector.Name() != "postgres" {
		return nil, nil
	}
	out := make(map[string]int64, len(model.Tablas()))
	for _, m := range model.Tablas() {
		tabla := m.(tabler).TableName()
		var secuencia sql.NullString
		if err := db.WithContext(ctx).Raw("SELECT pg_get_serial_sequence(?, 'id')", tabla).Row().Scan(&secuencia); err != nil {
			return nil, fmt.Errorf("secuencia de %s: %w", tabla, err)
		}
		if !secuencia.Valid {
			continue
		}
		var ultimo int64
		q := fmt.Sprintf("SELECT CASE WHEN is_called THEN last_value ELSE 0 END FROM %s", secuencia.String)
		if err := db.WithContext(ctx).Raw(q).Row().Scan(&ultimo); err != nil {
			return nil, fmt.Errorf("leyendo secuencia de %s: %w", tabla, err)
		}
		out[tabla] = ultimo
	}
	return out, nil
}

// resetearSecuencias moves each PostgreSQL id sequence past both the restored
// rows and the last id the source database had handed out.
func resetearSecuencias(tx *gorm.DB, ultimos map[string]int64) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	for _, m := range model.Tablas() {
		tabla := m.(tabler).TableName()
		q := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), GREATEST(COALESCE((SELECT MAX(id) FROM %[1]s), 0), ?) + 1, false)",
			tabla,
		)
		if err := tx.Exec(q, ultimos[tabla]).Error; err != nil {
			return fmt.Errorf("secuencia de %s: %w", tabla, err)
		}
	}
	return nil
}
