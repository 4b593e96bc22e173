package service_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"consigna/internal/dto"
	"consigna/internal/infra"
	"consigna/internal/model"
	"consigna/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poblarParaBackup(t *testing.T, e *entorno) uint {
	t.Helper()
	ctx := context.Background()
	v, err := service.NewVendedorService(e.vendedores).Crear(ctx, dto.CrearVendedorRequest{Nombre: "Ana"})
	require.NoError(t, err)
	c := e.seedCliente(t, 7, "Kiosco El Sol", 12)
	require.NoError(t, e.db.Model(c).Update("vendedor_id", v.ID).Error)
	a := e.seedArticulo(t, "ART-001", "Gorra", "1000")

	resp, err := buildRemitoSvc(e, nil).GuardarEntrega(ctx, dto.GuardarRemitoRequest{
		ClienteID:    7,
		FechaEntrega: fecha(t, "2024-03-01"),
		PorcDto:      decimal.NewFromInt(10),
		Items:        []dto.ItemEntregaRequest{item(a.ID, 5, "1200")},
	})
	require.NoError(t, err)
	return resp.RemitoID
}

func TestBackupService_Estado(t *testing.T) {
	e := nuevoEntorno(t)
	poblarParaBackup(t, e)

	estado, err := service.NewBackupService(e.db, nil).Estado(context.Background())
	require.NoError(t, err)
	require.Len(t, estado.Tablas, len(model.Tablas()))

	porTabla := map[string]int64{}
	for _, te := range estado.Tablas {
		porTabla[te.Tabla] = te.Registros
	}
	assert.Equal(t, int64(1), porTabla["remitos"])
	assert.Equal(t, int64(1), porTabla["remito_items"])
	assert.Equal(t, int64(1), porTabla["historial_precios"])
	assert.Equal(t, int64(6), estado.Total)
}

func TestBackupService_ExportarYRestaurar(t *testing.T) {
	origen := nuevoEntorno(t)
	remitoID := poblarParaBackup(t, origen)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, service.NewBackupService(origen.db, nil).Exportar(ctx, &buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	nombres := []string{}
	for _, f := range zr.File {
		nombres = append(nombres, f.Name)
	}
	assert.ElementsMatch(t, []string{infra.BackupSnapshot, infra.BackupManifest}, nombres)

	destino := nuevoEntornoNombrado(t, "destino")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, mr.Set("precio:ART-001", "{}"))
	// Rows that must disappear on restore.
	destino.seedArticulo(t, "VIEJO", "Borrar", "1")

	res, err := service.NewBackupService(destino.db, rdb).Restaurar(ctx, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.Total)
	assert.False(t, mr.Exists("precio:ART-001"))

	full, found, err := buildRemitoSvc(destino, nil).ObtenerCompleto(ctx, remitoID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Kiosco El Sol", full.Cabecera.RazonSocial)
	assert.Equal(t, "2024-03-01", full.Cabecera.FechaEntrega.String())
	require.Len(t, full.Items, 1)
	assert.True(t, decimal.NewFromInt(1200).Equal(full.Items[0].PrecioReal))

	_, err = destino.articulos.FindByNro(ctx, "VIEJO")
	assert.Error(t, err)
}

func TestBackupService_ManifestRefleja(t *testing.T) {
	e := nuevoEntorno(t)
	poblarParaBackup(t, e)

	var buf bytes.Buffer
	require.NoError(t, service.NewBackupService(e.db, nil).Exportar(context.Background(), &buf))
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	var m infra.ManifestBackup
	for _, f := range zr.File {
		if f.Name != infra.BackupManifest {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		raw, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &m))
	}
	assert.Equal(t, infra.BackupVersion, m.Version)
	assert.Equal(t, int64(1), m.Tablas["clientes"])
	assert.False(t, m.CreatedAt.IsZero())
	assert.Empty(t, m.Secuencias, "sqlite has no id sequences")
}

func TestBackupService_RestaurarArchivoInvalido(t *testing.T) {
	e := nuevoEntorno(t)
	svc := service.NewBackupService(e.db, nil)
	raw := []byte("esto no es un zip")

	_, err := svc.Restaurar(context.Background(), bytes.NewReader(raw), int64(len(raw)))
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "archivo")
}
