// cmd/seed/main.go: carga datos de demo (rubros, vendedor, clientes, artículos).
// Uso: go run ./cmd/seed
// Es idempotente: lo que ya existe se deja como está.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"consigna/internal/config"
	"consigna/internal/dto"
	"consigna/internal/infra"
	"consigna/internal/repository"
	"consigna/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	ctx := context.Background()

	rubros := service.NewRubroService(repository.NewRubroRepository(db))
	vendedores := service.NewVendedorService(repository.NewVendedorRepository(db))
	remitoRepo := repository.NewRemitoRepository(db)
	clientes := service.NewClienteService(repository.NewClienteRepository(db), repository.NewVendedorRepository(db), remitoRepo)
	articulos := service.NewArticuloService(
		repository.NewArticuloRepository(db),
		repository.NewRubroRepository(db),
		remitoRepo,
		repository.NewHistorialPrecioRepository(db),
		nil, nil,
	)

	rubroIDs := map[string]uint{}
	for _, nombre := range []string{"GORRAS", "ANTEOJOS", "BIJOUTERIE"} {
		r, err := rubros.Crear(ctx, dto.CrearRubroRequest{NombreRubro: nombre})
		if skip(err, "rubro", nombre) {
			continue
		}
		rubroIDs[nombre] = r.ID
	}

	var vendedorID *uint
	if existentes, err := vendedores.Listar(ctx); err == nil && len(existentes) > 0 {
		vendedorID = &existentes[0].ID
	} else {
		v, err := vendedores.Crear(ctx, dto.CrearVendedorRequest{Nombre: "Vendedor Demo", Comision: ptr(decimal.NewFromInt(5))})
		if !skip(err, "vendedor", "Vendedor Demo") {
			vendedorID = &v.ID
		}
	}

	demoClientes := []dto.CrearClienteRequest{
		{RazonSocial: "Kiosco El Sol", Boca: ptr(1), Localidad: ptr("Rosario"), PorcDto: decimal.NewFromInt(10), VendedorID: vendedorID},
		{RazonSocial: "Farmacia Centro", Boca: ptr(2), Localidad: ptr("Funes"), PorcDto: decimal.NewFromInt(15), VendedorID: vendedorID},
		{RazonSocial: "Óptica Norte", Boca: ptr(3), Localidad: ptr("Rosario"), PorcDto: decimal.Zero},
	}
	for _, c := range demoClientes {
		_, err := clientes.Crear(ctx, c)
		skip(err, "cliente", c.RazonSocial)
	}

	demoArticulos := []struct {
		nro, desc, precio, rubro string
	}{
		{"GOR-001", "Gorra trucker negra", "4500", "GORRAS"},
		{"GOR-002", "Gorra visera plana", "5200", "GORRAS"},
		{"ANT-001", "Anteojos de sol aviador", "9800", "ANTEOJOS"},
		{"BIJ-001", "Pulsera acero", "2300", "BIJOUTERIE"},
	}
	for _, a := range demoArticulos {
		req := dto.CrearArticuloRequest{
			NroArticulo: a.nro,
			Descripcion: a.desc,
			PrecioReal:  decimal.RequireFromString(a.precio),
		}
		if id, ok := rubroIDs[a.rubro]; ok {
			req.RubroID = &id
		}
		_, err := articulos.Crear(ctx, req)
		skip(err, "artículo", a.nro)
	}

	log.Info().Msg("seed completo")
}

// skip logs and reports whether the row was not created. Duplicates are
// expected on re-runs.
func skip(err error, tipo, nombre string) bool {
	switch {
	case err == nil:
		log.Info().Str(tipo, nombre).Msg("creado")
		return false
	case errors.Is(err, service.ErrDuplicado):
		log.Info().Str(tipo, nombre).Msg("ya existe")
	default:
		log.Error().Err(err).Str(tipo, nombre).Msg("no se pudo crear")
	}
	return true
}

func ptr[T any](v T) *T { return &v }
