package service_test

import (
	"context"
	"errors"
	"testing"

	"consigna/internal/dto"
	"consigna/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildClienteSvc(e *entorno) service.ClienteService {
	return service.NewClienteService(e.clientes, e.vendedores, e.remitoRepo)
}

func TestClienteService_CrearConVendedor(t *testing.T) {
	e := nuevoEntorno(t)
	vendedores := service.NewVendedorService(e.vendedores)
	svc := buildClienteSvc(e)
	ctx := context.Background()

	v, err := vendedores.Crear(ctx, dto.CrearVendedorRequest{Nombre: "Juan Pérez"})
	require.NoError(t, err)

	c, err := svc.Crear(ctx, dto.CrearClienteRequest{
		RazonSocial: "Kiosco El Sol",
		Boca:        ptr(12),
		PorcDto:     decimal.RequireFromString("15.5"),
		Email:       ptr("kiosco@example.com"),
		VendedorID:  &v.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, *c.Boca)
	require.NotNil(t, c.NombreVendedor)
	assert.Equal(t, "Juan Pérez", *c.NombreVendedor)
	assert.True(t, decimal.RequireFromString("15.5").Equal(c.PorcDto))
}

func TestClienteService_Reglas(t *testing.T) {
	e := nuevoEntorno(t)
	svc := buildClienteSvc(e)
	ctx := context.Background()
	e.seedCliente(t, 1, "Existente", 12)

	_, err := svc.Crear(ctx, dto.CrearClienteRequest{RazonSocial: "Otro", Boca: ptr(12)})
	assert.True(t, errors.Is(err, service.ErrDuplicado), "boca must be unique")

	_, err = svc.Crear(ctx, dto.CrearClienteRequest{RazonSocial: "Otro", VendedorID: ptr(uint(77))})
	assert.True(t, errors.Is(err, service.ErrReferencia))

	_, err = svc.Crear(ctx, dto.CrearClienteRequest{RazonSocial: " ", PorcDto: decimal.NewFromInt(101)})
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "razon_social")
	assert.Contains(t, verr.Fields, "porc_dto")

	// Keeping its own boca is not a conflict.
	upd, err := svc.Actualizar(ctx, 1, dto.ActualizarClienteRequest{Boca: ptr(12), Localidad: ptr("Rosario")})
	require.NoError(t, err)
	assert.Equal(t, "Rosario", *upd.Localidad)
}

func TestClienteService_EliminarConRemitos(t *testing.T) {
	e := nuevoEntorno(t)
	svc := buildClienteSvc(e)
	remitos := buildRemitoSvc(e, nil)
	ctx := context.Background()
	e.seedCliente(t, 1, "Con remitos", 1)
	e.seedCliente(t, 2, "Sin remitos", 2)
	a := e.seedArticulo(t, "ART-001", "Gorra", "100")

	_, err := remitos.GuardarEntrega(ctx, dto.GuardarRemitoRequest{
		ClienteID:    1,
		FechaEntrega: fecha(t, "2024-05-02"),
		Items:        []dto.ItemEntregaRequest{item(a.ID, 2, "100")},
	})
	require.NoError(t, err)

	assert.True(t, errors.Is(svc.Eliminar(ctx, 1), service.ErrEnUso))
	require.NoError(t, svc.Eliminar(ctx, 2))
	_, err = svc.ObtenerPorID(ctx, 2)
	assert.True(t, errors.Is(err, service.ErrNoEncontrado))
}

func TestClienteService_ListarPorRazonSocial(t *testing.T) {
	e := nuevoEntorno(t)
	svc := buildClienteSvc(e)
	e.seedCliente(t, 1, "Kiosco Norte", 1)
	e.seedCliente(t, 2, "Kiosco Sur", 2)
	e.seedCliente(t, 3, "Farmacia Centro", 3)

	resp, err := svc.Listar(context.Background(), dto.ClienteFilter{RazonSocial: "kiosco", Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	assert.Len(t, resp.Data, 2)
}

func TestVendedorService_EliminarConClientes(t *testing.T) {
	e := nuevoEntorno(t)
	vendedores := service.NewVendedorService(e.vendedores)
	clientes := buildClienteSvc(e)
	ctx := context.Background()

	v, err := vendedores.Crear(ctx, dto.CrearVendedorRequest{Nombre: "Ana", Comision: ptr(decimal.NewFromInt(5))})
	require.NoError(t, err)
	_, err = clientes.Crear(ctx, dto.CrearClienteRequest{RazonSocial: "Kiosco", VendedorID: &v.ID})
	require.NoError(t, err)

	assert.True(t, errors.Is(vendedores.Eliminar(ctx, v.ID), service.ErrEnUso))

	otro, err := vendedores.Crear(ctx, dto.CrearVendedorRequest{Nombre: "Beto"})
	require.NoError(t, err)
	require.NoError(t, vendedores.Eliminar(ctx, otro.ID))

	list, err := vendedores.Listar(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = vendedores.Crear(ctx, dto.CrearVendedorRequest{Nombre: "Caro", Comision: ptr(decimal.NewFromInt(150))})
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "comision")
}
