package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"consigna/internal/dto"
	"consigna/internal/model"
	"consigna/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildArticuloSvc(e *entorno, rdb *redis.Client) service.ArticuloService {
	return service.NewArticuloService(e.articulos, e.rubros, e.remitoRepo, e.historial, rdb, nil)
}

// maestroXLSX builds an article master workbook with data rows from row 9.
func maestroXLSX(t *testing.T, filas [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A8", "Código"))
	require.NoError(t, f.SetCellValue(sheet, "B8", "Descripción"))
	require.NoError(t, f.SetCellValue(sheet, "C8", "Precio"))
	for i, fila := range filas {
		for j, v := range fila {
			cell, err := excelize.CoordinatesToCellName(j+1, 9+i)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

// ── CRUD ──────────────────────────────────────────────────────────────────────

func TestCrearArticulo_NormalizaCodigoYDescripcion(t *testing.T) {
	e := nuevoEntorno(t)
	svc := buildArticuloSvc(e, nil)

	resp, err := svc.Crear(context.Background(), dto.CrearArticuloRequest{
		NroArticulo: "  art-010 ",
		Descripcion: "GORRA ROJA",
		PrecioReal:  decimal.RequireFromString("1500"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ART-010", resp.NroArticulo)
	assert.Equal(t, "Gorra roja", resp.Descripcion)
	assert.True(t, decimal.NewFromInt(1500).Equal(resp.PrecioReal))
	assert.NotEmpty(t, resp.FechaMod)
}

func TestCrearArticulo_CodigoDuplicado(t *testing.T) {
	e := nuevoEntorno(t)
	svc := buildArticuloSvc(e, nil)
	e.seedArticulo(t, "ART-001", "Gorra", "100")

	_, err := svc.Crear(context.Background(), dto.CrearArticuloRequest{
		NroArticulo: "art-001",
		Descripcion: "Otra",
		PrecioReal:  decimal.NewFromInt(5),
	})
	assert.True(t, errors.Is(err, service.ErrDuplicado))
}

func TestCrearArticulo_Validaciones(t *testing.T) {
	e := nuevoEntorno(t)
	svc := buildArticuloSvc(e, nil)
	ctx := context.Background()

	_, err := svc.Crear(ctx, dto.CrearArticuloRequest{
		NroArticulo: "CODIGO-DEMASIADO-LARGO",
		Descripcion: " ",
		PrecioReal:  decimal.Zero,
	})
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "nro_articulo")
	assert.Contains(t, verr.Fields, "descripcion")
	assert.Contains(t, verr.Fields, "precio_real")

	_, err = svc.Crear(ctx, dto.CrearArticuloRequest{
		NroArticulo: "ART-002",
		Descripcion: "Anteojos",
		PrecioReal:  decimal.NewFromInt(10),
		RubroID:     ptr(uint(999)),
	})
	assert.True(t, errors.Is(err, service.ErrReferencia))
}

func TestActualizarArticulo_CambioDePrecioRegistraHistorial(t *testing.T) {
	e := nuevoEntorno(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := buildArticuloSvc(e, rdb)
	ctx := context.Background()
	a := e.seedArticulo(t, "ART-001", "Gorra", "1000")

	_, err := svc.ConsultarPrecio(ctx, "ART-001")
	require.NoError(t, err)
	require.True(t, mr.Exists("precio:ART-001"))

	resp, err := svc.Actualizar(ctx, a.ID, dto.ActualizarArticuloRequest{
		PrecioReal: ptr(decimal.RequireFromString("1200")),
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1200).Equal(resp.PrecioReal))
	assert.False(t, mr.Exists("precio:ART-001"), "price change must drop the cached lookup")

	hist, err := svc.HistorialPrecios(ctx, a.ID, 1, 50)
	require.NoError(t, err)
	require.Len(t, hist.Data, 1)
	assert.Equal(t, model.MotivoManual, hist.Data[0].Motivo)
	assert.True(t, decimal.NewFromInt(1000).Equal(hist.Data[0].PrecioAntes))
	assert.True(t, decimal.NewFromInt(1200).Equal(hist.Data[0].PrecioDespues))
	assert.Nil(t, hist.Data[0].RemitoID)
}

func TestActualizarArticulo_SinCambioDePrecioNoRegistraHistorial(t *testing.T) {
	e := nuevoEntorno(t)
	svc := buildArticuloSvc(e, nil)
	a := e.seedArticulo(t, "ART-001", "Gorra", "1000")

	resp, err := svc.Actualizar(context.Background(), a.ID, dto.ActualizarArticuloRequest{
		Descripcion: ptr("gorra azul"),
		PrecioReal:  ptr(decimal.RequireFromString("1000.00")),
	})
	require.NoError(t, err)
	assert.Equal(t, "Gorra azul", resp.Descripcion)
	assert.Equal(t, int64(0), e.contarFilas(t, &model.HistorialPrecio{}))
}

func TestActualizarArticulo_NoEncontrado(t *testing.T) {
	e := nuevoEntorno(t)
	svc := buildArticuloSvc(e, nil)

	_, err := svc.Actualizar(context.Background(), 42, dto.ActualizarArticuloRequest{})
	assert.True(t, errors.Is(err, service.ErrNoEncontrado))
}

func TestEliminarArticulo_EnUsoPorRemito(t *testing.T) {
	e := nuevoEntorno(t)
	svc := buildArticuloSvc(e, nil)
	remitos := buildRemitoSvc(e, nil)
	ctx := context.Background()
	e.seedCliente(t, 1, "Kiosco", 1)
	usado := e.seedArticulo(t, "ART-001", "Gorra", "100")
	libre := e.seedArticulo(t, "ART-002", "Anteojos", "200")

	_, err := remitos.GuardarEntrega(ctx, dto.GuardarRemitoRequest{
		ClienteID:    1,
		FechaEntrega: fecha(t, "2024-05-02"),
		Items:        []dto.ItemEntregaRequest{item(usado.ID, 1, "100")},
	})
	require.NoError(t, err)

	assert.True(t, errors.Is(svc.Eliminar(ctx, usado.ID), service.ErrEnUso))
	require.NoError(t, svc.Eliminar(ctx, libre.ID))
	assert.True(t, errors.Is(svc.Eliminar(ctx, libre.ID), service.ErrNoEncontrado))
}

func TestListarArticulos_FiltraYPagina(t *testing.T) {
	e := nuevoEntorno(t)
	svc := buildArticuloSvc(e, nil)
	for i := 1; i <= 5; i++ {
		e.seedArticulo(t, fmt.Sprintf("GOR-%03d", i), fmt.Sprintf("Gorra %d", i), "100")
	}
	e.seedArticulo(t, "ANT-001", "Anteojos", "300")

	resp, err := svc.Listar(context.Background(), dto.ArticuloFilter{Descripcion: "gorra", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Len(t, resp.Data, 2)
}

// ── Importación ───────────────────────────────────────────────────────────────

func TestImportarExcel_InsertaActualizaYDeduplica(t *testing.T) {
	e := nuevoEntorno(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := buildArticuloSvc(e, rdb)
	ctx := context.Background()
	existente := e.seedArticulo(t, "ART-001", "Gorra", "1000")
	_, err := svc.ConsultarPrecio(ctx, "ART-001")
	require.NoError(t, err)

	resp, err := svc.ImportarExcel(ctx, maestroXLSX(t, [][]interface{}{
		{"art-001", "GORRA ROJA", 1100},
		{"ART-002", "anteojos de sol", 2500.5},
		{"ART-002", "duplicado ignorado", 1},
		{"", "", ""},
		{"CODIGO-MUY-LARGO", "x", 10},
		{"ART-003", "sin precio", "n/d"},
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Insertados)
	assert.Equal(t, 1, resp.Actualizados)
	require.Len(t, resp.Omitidos, 1)
	assert.Contains(t, resp.Omitidos[0], "fila 13")

	act, err := svc.ObtenerPorID(ctx, existente.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gorra roja", act.Descripcion)
	assert.True(t, decimal.NewFromInt(1100).Equal(act.PrecioReal))
	assert.False(t, mr.Exists("precio:ART-001"))

	nuevo, err := svc.ObtenerPorNro(ctx, "ART-002")
	require.NoError(t, err)
	assert.Equal(t, "Anteojos de sol", nuevo.Descripcion)
	assert.True(t, decimal.RequireFromString("2500.5").Equal(nuevo.PrecioReal))
	require.NotNil(t, nuevo.Costo)
	assert.True(t, nuevo.Costo.IsZero())

	sinPrecio, err := svc.ObtenerPorNro(ctx, "ART-003")
	require.NoError(t, err)
	assert.True(t, sinPrecio.PrecioReal.IsZero())

	hist, err := svc.HistorialPrecios(ctx, existente.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, hist.Data, 1)
	assert.Equal(t, model.MotivoImportacionExcel, hist.Data[0].Motivo)
}

func TestImportarExcel_ArchivoInvalido(t *testing.T) {
	e := nuevoEntorno(t)
	svc := buildArticuloSvc(e, nil)

	_, err := svc.ImportarExcel(context.Background(), bytes.NewReader([]byte("no es un xlsx")))
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "archivo")
}

// ── Consulta de precios ───────────────────────────────────────────────────────

func TestConsultarPrecio_UsaCache(t *testing.T) {
	e := nuevoEntorno(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := buildArticuloSvc(e, rdb)
	ctx := context.Background()
	a := e.seedArticulo(t, "ART-001", "Gorra", "1000")

	first, err := svc.ConsultarPrecio(ctx, "art-001")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(first.PrecioReal))
	assert.Positive(t, mr.TTL("precio:ART-001"))

	// A write that bypasses the service is not seen until the entry expires.
	require.NoError(t, e.db.Model(&model.Articulo{}).Where("id = ?", a.ID).
		Update("precio_real", decimal.NewFromInt(9999)).Error)
	cached, err := svc.ConsultarPrecio(ctx, "ART-001")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(cached.PrecioReal))

	mr.FastForward(5 * time.Hour)
	fresh, err := svc.ConsultarPrecio(ctx, "ART-001")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(9999).Equal(fresh.PrecioReal))
}

func TestConsultarPrecio_SinRedis(t *testing.T) {
	e := nuevoEntorno(t)
	svc := buildArticuloSvc(e, nil)
	e.seedArticulo(t, "ART-001", "Gorra", "1000")

	resp, err := svc.ConsultarPrecio(context.Background(), "ART-001")
	require.NoError(t, err)
	assert.Equal(t, "Gorra", resp.Descripcion)

	_, err = svc.ConsultarPrecio(context.Background(), "NOPE")
	assert.True(t, errors.Is(err, service.ErrNoEncontrado))
}
