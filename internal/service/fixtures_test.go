package service_test

import (
	"fmt"
	"strings"
	"testing"

	"consigna/internal/infra"
	"consigna/internal/model"
	"consigna/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory SQLite fixture ─────────────────────────────────────────────────

type entorno struct {
	db         *gorm.DB
	remitoRepo repository.RemitoRepository
	articulos  repository.ArticuloRepository
	clientes   repository.ClienteRepository
	vendedores repository.VendedorRepository
	rubros     repository.RubroRepository
	historial  repository.HistorialPrecioRepository
}

func nuevoEntorno(t *testing.T) *entorno {
	t.Helper()
	return nuevoEntornoNombrado(t, "")
}

// nuevoEntornoNombrado opens a second, independent database within one test.
func nuevoEntornoNombrado(t *testing.T, sufijo string) *entorno {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name() + sufijo)
	db, err := infra.NewSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &entorno{
		db:         db,
		remitoRepo: repository.NewRemitoRepository(db),
		articulos:  repository.NewArticuloRepository(db),
		clientes:   repository.NewClienteRepository(db),
		vendedores: repository.NewVendedorRepository(db),
		rubros:     repository.NewRubroRepository(db),
		historial:  repository.NewHistorialPrecioRepository(db),
	}
}

func (e *entorno) seedCliente(t *testing.T, id uint, razonSocial string, boca int) *model.Cliente {
	t.Helper()
	dir := "Av. Siempreviva 742"
	loc := "Springfield"
	c := &model.Cliente{
		ID:          id,
		RazonSocial: razonSocial,
		Boca:        &boca,
		Direccion:   &dir,
		Localidad:   &loc,
		PorcDto:     decimal.NewFromInt(10),
	}
	require.NoError(t, e.db.Create(c).Error)
	return c
}

func (e *entorno) seedArticulo(t *testing.T, nro, descripcion, precio string) *model.Articulo {
	t.Helper()
	a := &model.Articulo{
		NroArticulo: nro,
		Descripcion: descripcion,
		PrecioReal:  decimal.RequireFromString(precio),
	}
	require.NoError(t, e.db.Create(a).Error)
	return a
}

func (e *entorno) contarFilas(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

func ptr[T any](v T) *T { return &v }
